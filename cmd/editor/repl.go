package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bretbouchard/sandbox/internal/editor"
	"github.com/bretbouchard/sandbox/internal/editor/headless"
	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/types"
)

const help = `commands:
  tree                     show the file tree
  tabs                     show open tabs
  open <name|id>           open a file in a tab
  close [id]               close a tab (the active one by default)
  rename <name|id> <name>  rename a file, open or not
  cursor <line> <col>      move the cursor
  type <text>              insert text at the cursor (\n for newline)
  show                     print the active buffer
  save                     save the active file
  generate                 toggle the generate zone
  delete <name|id>         delete a file
  rmdir <name|id>          delete a folder
  new <name> [folder]      create a file, or a folder
  loglevel <level>         change the log level
  commands                 list registered commands
  run <command id>         run a registered command
  quit                     exit`

var errQuit = errors.New("quit")

// repl reads commands and runs them on the session's event loop
type repl struct {
	session *editor.Session
	widget  *headless.Widget
	out     *printer
	logger  *logging.Logger
	run     func(fn func()) error
}

func (r *repl) serve(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	r.out.printf("%s\n", help)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, args := parseCommand(line)
			if cmd == "" {
				continue
			}
			var err error
			if runErr := r.run(func() { err = r.exec(cmd, args) }); runErr != nil {
				return nil
			}
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				r.out.printf("error: %v\n", err)
			}
		}
	}
}

// parseCommand splits a line into its command and the rest
func parseCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	cmd, rest, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(rest)
}

// exec runs one command. It is called on the event loop.
func (r *repl) exec(cmd, args string) error {
	s := r.session
	switch cmd {
	case "help", "?":
		r.out.printf("%s\n", help)
	case "quit", "exit":
		return errQuit
	case "tree":
		r.out.printf("%s", formatTree(s.Tree()))
	case "tabs":
		r.out.printf("%s\n", formatTabs(s.Tabs(), s.Active()))
	case "open":
		node, err := r.resolve(args)
		if err != nil {
			return err
		}
		if node.IsFolder() {
			return fmt.Errorf("%s is a folder", node.Name)
		}
		s.SelectFile(node.ID, node.Name)
	case "close":
		id := args
		if id == "" {
			id = s.Active()
		}
		if id == "" {
			return editor.ErrNoActiveTab
		}
		s.CloseTab(id)
	case "rename":
		ref, name, ok := strings.Cut(args, " ")
		if !ok {
			return fmt.Errorf("usage: rename <name|id> <name>")
		}
		id := ref
		if node, err := r.resolve(ref); err == nil {
			id = node.ID
		}
		return s.RenameTab(id, strings.TrimSpace(name))
	case "cursor":
		fields := strings.Fields(args)
		if len(fields) != 2 {
			return fmt.Errorf("usage: cursor <line> <col>")
		}
		line, err := strconv.Atoi(fields[0])
		if err != nil {
			return err
		}
		col, err := strconv.Atoi(fields[1])
		if err != nil {
			return err
		}
		r.widget.MoveCursor(line, col)
	case "type":
		if s.Active() == "" {
			return editor.ErrNoActiveTab
		}
		r.widget.Type(strings.ReplaceAll(args, `\n`, "\n"))
	case "show":
		if s.Active() == "" {
			return editor.ErrNoActiveTab
		}
		r.out.printf("%s\n", r.widget.Value())
	case "save":
		return s.Save()
	case "generate":
		open := s.ToggleGenerate()
		r.out.printf("generate zone open: %t\n", open)
	case "delete":
		node, err := r.resolve(args)
		if err != nil {
			return err
		}
		s.DeleteFile(node.ID)
	case "rmdir":
		node, err := r.resolve(args)
		if err != nil {
			return err
		}
		return s.DeleteFolder(node.ID)
	case "new":
		name, kind, _ := strings.Cut(args, " ")
		if strings.TrimSpace(kind) == "folder" {
			return s.AddNew(name, types.NodeFolder)
		}
		return s.AddNew(name, types.NodeFile)
	case "loglevel":
		return r.logger.SetLevel(args)
	case "commands":
		for _, c := range s.Registry().List() {
			r.out.printf("  %-24s %s\n", c.ID, c.Label)
		}
	case "run":
		return s.RunCommand(args)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

// resolve finds a tree node by id, or by name when the name is unique
func (r *repl) resolve(ref string) (types.Node, error) {
	if ref == "" {
		return types.Node{}, fmt.Errorf("a file name or id is required")
	}
	tree := r.session.Tree()
	if node, ok := types.Find(tree, ref); ok {
		return node, nil
	}

	var matches []types.Node
	types.Walk(tree, func(n types.Node) bool {
		if n.Name == ref {
			matches = append(matches, n)
		}
		return true
	})
	switch len(matches) {
	case 0:
		return types.Node{}, fmt.Errorf("no file named %q", ref)
	case 1:
		return matches[0], nil
	default:
		return types.Node{}, fmt.Errorf("%q is ambiguous, use its id", ref)
	}
}
