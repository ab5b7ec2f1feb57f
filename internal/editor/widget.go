package editor

import (
	"context"

	"github.com/bretbouchard/sandbox/internal/channel"
	"github.com/bretbouchard/sandbox/internal/types"
)

// Position is a cursor location. Lines and columns start at 1.
type Position struct {
	Line   int
	Column int
}

// Range spans text from a start to an end position; the end column is
// exclusive.
type Range struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Marker is a decoration over a range, rendered with a style tag
type Marker struct {
	Range Range
	Style string
}

// MarkerCollection is a persistent set of markers owned by the widget
type MarkerCollection interface {
	// Set replaces the markers of the collection in place
	Set(markers []Marker)
	Clear()
}

// ZoneHandle identifies a zone inserted into the widget; empty means none
type ZoneHandle string

// Zone is a reserved, non-text region inserted after a line
type Zone struct {
	AfterLine     int
	HeightInLines int
}

// Disposable releases a registration
type Disposable interface {
	Dispose()
}

// DisposeFunc adapts a function to Disposable
type DisposeFunc func()

// Dispose calls f
func (f DisposeFunc) Dispose() { f() }

// Command is a widget-scoped action bound to a key chord
type Command struct {
	ID         string
	Label      string
	Keybinding Chord
	// Precondition is a context-key expression the widget evaluates before
	// running the command
	Precondition string
	Run          func()
}

// Surface is the text widget the session drives
type Surface interface {
	Cursor() Position
	OnCursorChange(fn func(Position)) Disposable
	// OnContentChange fires on every user edit
	OnContentChange(fn func()) Disposable
	LineContent(line int) string

	CreateMarkerCollection() MarkerCollection
	AddZone(zone Zone) ZoneHandle
	RemoveZone(handle ZoneHandle)

	AddCommand(cmd Command) Disposable
	// UnbindKey removes a default widget keybinding
	UnbindKey(chord Chord)

	Value() string
	SetValue(text string)
	SetLanguage(language string)
}

// KeyEvent is a document-level key press
type KeyEvent struct {
	Key   string
	Ctrl  bool
	Meta  bool
	Shift bool
	Alt   bool

	prevented bool
}

// PreventDefault stops the host from handling the key itself
func (e *KeyEvent) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether a listener called PreventDefault
func (e *KeyEvent) DefaultPrevented() bool { return e.prevented }

// KeySource delivers document-level key presses, independent of widget focus
type KeySource interface {
	AddKeyListener(fn func(*KeyEvent)) Disposable
}

// Severity grades a user-facing notice
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a non-fatal message for the user
type Notice struct {
	Severity Severity
	Message  string
	Err      error
}

// Observer is the sidebar and tab bar presentation
type Observer interface {
	TabsChanged(tabs []Tab, activeID string)
	TreeChanged(tree []types.Node)
	Notify(notice Notice)
}

// Remote is the sync channel as the session uses it
type Remote interface {
	Connect(ctx context.Context) error
	Disconnect() error
	Emit(event string, args ...any) error
	Request(event string, reply channel.Reply, args ...any)
	On(event string, handler channel.Handler) channel.Subscription
	Off(sub channel.Subscription)
}

var _ Remote = (*channel.Client)(nil)
