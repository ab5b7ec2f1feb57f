// Package headless provides an in-memory text widget for running an editor
// session without a UI, as the command-line client and the tests do.
package headless

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bretbouchard/sandbox/internal/editor"
)

// Widget is an in-memory editor.Surface and editor.KeySource. It is not
// safe for concurrent use.
type Widget struct {
	lines    []string
	cursor   editor.Position
	language string

	nextID     int
	cursorFns  map[int]func(editor.Position)
	contentFns map[int]func()
	keyFns     map[int]func(*editor.KeyEvent)

	collections []*Markers
	zones       map[editor.ZoneHandle]editor.Zone
	commands    map[string]editor.Command
	unbound     []editor.Chord

	// Focused enables widget command keybindings and is the value of the
	// editorTextFocus context key
	Focused bool
	context map[string]bool
}

var (
	_ editor.Surface   = (*Widget)(nil)
	_ editor.KeySource = (*Widget)(nil)
)

// NewWidget creates an empty, focused widget with the cursor at 1:1
func NewWidget() *Widget {
	return &Widget{
		lines:      []string{""},
		cursor:     editor.Position{Line: 1, Column: 1},
		cursorFns:  make(map[int]func(editor.Position)),
		contentFns: make(map[int]func()),
		keyFns:     make(map[int]func(*editor.KeyEvent)),
		zones:      make(map[editor.ZoneHandle]editor.Zone),
		commands:   make(map[string]editor.Command),
		Focused:    true,
		context:    make(map[string]bool),
	}
}

// SetContext sets a context key read by command preconditions, such as
// suggestWidgetVisible while a completion list is open
func (w *Widget) SetContext(key string, value bool) {
	w.context[key] = value
}

func (w *Widget) contextKey(key string) bool {
	if key == "editorTextFocus" {
		return w.Focused
	}
	return w.context[key]
}

// Allows evaluates a precondition: context keys, optionally negated with
// '!', joined by "&&". An empty precondition always holds.
func (w *Widget) Allows(precondition string) bool {
	if strings.TrimSpace(precondition) == "" {
		return true
	}
	for _, term := range strings.Split(precondition, "&&") {
		term = strings.TrimSpace(term)
		key, negated := strings.CutPrefix(term, "!")
		if w.contextKey(strings.TrimSpace(key)) == negated {
			return false
		}
	}
	return true
}

// Markers is an in-memory marker collection
type Markers struct {
	markers []editor.Marker
	sets    int
}

// Set replaces the markers
func (m *Markers) Set(markers []editor.Marker) {
	m.markers = append([]editor.Marker(nil), markers...)
	m.sets++
}

// Clear removes every marker
func (m *Markers) Clear() {
	m.markers = nil
}

// Markers returns the current markers
func (m *Markers) Markers() []editor.Marker {
	return append([]editor.Marker(nil), m.markers...)
}

// Sets returns how many times Set was called
func (m *Markers) Sets() int {
	return m.sets
}

func (w *Widget) register(add func(id int), remove func(id int)) editor.Disposable {
	w.nextID++
	id := w.nextID
	add(id)
	return editor.DisposeFunc(func() { remove(id) })
}

// Cursor returns the cursor position
func (w *Widget) Cursor() editor.Position {
	return w.cursor
}

// OnCursorChange registers a cursor listener
func (w *Widget) OnCursorChange(fn func(editor.Position)) editor.Disposable {
	return w.register(
		func(id int) { w.cursorFns[id] = fn },
		func(id int) { delete(w.cursorFns, id) },
	)
}

// OnContentChange registers an edit listener
func (w *Widget) OnContentChange(fn func()) editor.Disposable {
	return w.register(
		func(id int) { w.contentFns[id] = fn },
		func(id int) { delete(w.contentFns, id) },
	)
}

// AddKeyListener registers a document-level key listener
func (w *Widget) AddKeyListener(fn func(*editor.KeyEvent)) editor.Disposable {
	return w.register(
		func(id int) { w.keyFns[id] = fn },
		func(id int) { delete(w.keyFns, id) },
	)
}

// LineContent returns a line's text, or "" outside the document
func (w *Widget) LineContent(line int) string {
	if line < 1 || line > len(w.lines) {
		return ""
	}
	return w.lines[line-1]
}

// CreateMarkerCollection creates an empty marker collection
func (w *Widget) CreateMarkerCollection() editor.MarkerCollection {
	m := &Markers{}
	w.collections = append(w.collections, m)
	return m
}

// AddZone inserts a zone and returns its handle
func (w *Widget) AddZone(zone editor.Zone) editor.ZoneHandle {
	w.nextID++
	handle := editor.ZoneHandle(fmt.Sprintf("zone-%d", w.nextID))
	w.zones[handle] = zone
	return handle
}

// RemoveZone removes a zone; unknown handles are ignored
func (w *Widget) RemoveZone(handle editor.ZoneHandle) {
	delete(w.zones, handle)
}

// AddCommand registers a widget command
func (w *Widget) AddCommand(cmd editor.Command) editor.Disposable {
	w.commands[cmd.ID] = cmd
	return editor.DisposeFunc(func() { delete(w.commands, cmd.ID) })
}

// UnbindKey records a removed default binding
func (w *Widget) UnbindKey(chord editor.Chord) {
	w.unbound = append(w.unbound, chord)
}

// Value returns the full text
func (w *Widget) Value() string {
	return strings.Join(w.lines, "\n")
}

// SetValue replaces the text. Edit listeners are notified, as a real
// widget notifies them for programmatic changes too.
func (w *Widget) SetValue(text string) {
	w.lines = strings.Split(text, "\n")
	w.clampCursor()
	w.fireContent()
}

// SetLanguage sets the highlighting language
func (w *Widget) SetLanguage(language string) {
	w.language = language
}

// Language returns the highlighting language
func (w *Widget) Language() string {
	return w.language
}

// MoveCursor moves the cursor and notifies cursor listeners
func (w *Widget) MoveCursor(line, column int) {
	w.cursor = editor.Position{Line: line, Column: column}
	w.clampCursor()
	for _, id := range sortedKeys(w.cursorFns) {
		w.cursorFns[id](w.cursor)
	}
}

// Type inserts text at the cursor as a user edit
func (w *Widget) Type(text string) {
	line := w.lines[w.cursor.Line-1]
	col := w.cursor.Column - 1
	runes := []rune(line)
	if col > len(runes) {
		col = len(runes)
	}
	updated := string(runes[:col]) + text + string(runes[col:])

	inserted := strings.Split(updated, "\n")
	lines := append([]string(nil), w.lines[:w.cursor.Line-1]...)
	lines = append(lines, inserted...)
	lines = append(lines, w.lines[w.cursor.Line:]...)
	w.lines = lines

	last := inserted[len(inserted)-1]
	w.cursor.Line += len(inserted) - 1
	w.cursor.Column = len([]rune(last)) - (len(runes) - col) + 1
	w.fireContent()
}

// Press delivers a key press: document listeners first, then, when
// focused and not prevented, a matching widget command whose
// precondition holds.
func (w *Widget) Press(e *editor.KeyEvent) {
	for _, id := range sortedKeys(w.keyFns) {
		w.keyFns[id](e)
	}
	if e.DefaultPrevented() || !w.Focused {
		return
	}
	for _, cmd := range w.commands {
		if cmd.Keybinding.Matches(e) && cmd.Run != nil && w.Allows(cmd.Precondition) {
			cmd.Run()
			return
		}
	}
}

// Zones returns the inserted zones
func (w *Widget) Zones() map[editor.ZoneHandle]editor.Zone {
	out := make(map[editor.ZoneHandle]editor.Zone, len(w.zones))
	for k, v := range w.zones {
		out[k] = v
	}
	return out
}

// Collections returns every marker collection created
func (w *Widget) Collections() []*Markers {
	return append([]*Markers(nil), w.collections...)
}

// Command returns a registered widget command
func (w *Widget) Command(id string) (editor.Command, bool) {
	cmd, ok := w.commands[id]
	return cmd, ok
}

// Unbound returns the default bindings removed so far
func (w *Widget) Unbound() []editor.Chord {
	return append([]editor.Chord(nil), w.unbound...)
}

// Listeners returns the number of registered listeners of every kind
func (w *Widget) Listeners() int {
	return len(w.cursorFns) + len(w.contentFns) + len(w.keyFns)
}

func (w *Widget) clampCursor() {
	if w.cursor.Line < 1 {
		w.cursor.Line = 1
	}
	if w.cursor.Line > len(w.lines) {
		w.cursor.Line = len(w.lines)
	}
	limit := len([]rune(w.lines[w.cursor.Line-1])) + 1
	if w.cursor.Column < 1 {
		w.cursor.Column = 1
	}
	if w.cursor.Column > limit {
		w.cursor.Column = limit
	}
}

func (w *Widget) fireContent() {
	for _, id := range sortedKeys(w.contentFns) {
		w.contentFns[id]()
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
