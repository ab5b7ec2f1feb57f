package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/bretbouchard/sandbox/internal/editor"
	"github.com/bretbouchard/sandbox/internal/types"
)

// printer renders the tab bar, sidebar and notices as text
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

func (p *printer) TabsChanged(tabs []editor.Tab, activeID string) {
	p.printf("%s\n", formatTabs(tabs, activeID))
}

func (p *printer) TreeChanged(tree []types.Node) {
	p.printf("%s", formatTree(tree))
}

func (p *printer) Notify(n editor.Notice) {
	if n.Err != nil {
		p.printf("[%s] %s (%v)\n", n.Severity, n.Message, n.Err)
		return
	}
	p.printf("[%s] %s\n", n.Severity, n.Message)
}

func (p *printer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, format, args...)
}

func formatTabs(tabs []editor.Tab, activeID string) string {
	if len(tabs) == 0 {
		return "tabs: (none)"
	}
	parts := make([]string, len(tabs))
	for i, t := range tabs {
		label := t.Name
		if !t.Saved {
			label += " *"
		}
		if t.ID == activeID {
			label = "[" + label + "]"
		}
		parts[i] = label
	}
	return "tabs: " + strings.Join(parts, " | ")
}

func formatTree(tree []types.Node) string {
	var b strings.Builder
	b.WriteString("tree:\n")
	var walk func(nodes []types.Node, depth int)
	walk = func(nodes []types.Node, depth int) {
		for _, n := range nodes {
			b.WriteString(strings.Repeat("  ", depth+1))
			b.WriteString(n.Name)
			if n.IsFolder() {
				b.WriteString("/")
			}
			b.WriteString("\n")
			walk(n.Children, depth+1)
		}
	}
	walk(tree, 0)
	return b.String()
}
