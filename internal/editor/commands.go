package editor

import (
	"errors"
	"fmt"
	"strings"
)

// GeneratePrecondition keeps the generate command from firing while another
// widget affordance owns the keyboard.
const GeneratePrecondition = "editorTextFocus && !suggestWidgetVisible && !renameInputVisible && !inSnippetMode && !quickFixWidgetVisible"

// Command ids
const (
	CommandSave     = "editor.save"
	CommandGenerate = "editor.toggleGenerate"
)

// Chord is a key combination. Mod matches Ctrl or Meta, so one binding
// covers both platform conventions.
type Chord struct {
	Key   string
	Mod   bool
	Shift bool
	Alt   bool
}

// ParseChord parses chords such as "mod+s", "ctrl+shift+g" or "cmd+k".
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Chord{}, fmt.Errorf("invalid key chord %q", s)
	}

	var c Chord
	for _, p := range parts[:len(parts)-1] {
		switch strings.TrimSpace(p) {
		case "mod", "ctrl", "control", "cmd", "meta":
			c.Mod = true
		case "shift":
			c.Shift = true
		case "alt", "option":
			c.Alt = true
		default:
			return Chord{}, fmt.Errorf("invalid key chord %q: unknown modifier %q", s, p)
		}
	}
	c.Key = strings.TrimSpace(parts[len(parts)-1])
	return c, nil
}

// MustParseChord is ParseChord for constant chords.
func MustParseChord(s string) Chord {
	c, err := ParseChord(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Matches reports whether the key event is this chord
func (c Chord) Matches(e *KeyEvent) bool {
	return strings.EqualFold(e.Key, c.Key) &&
		(e.Ctrl || e.Meta) == c.Mod &&
		e.Shift == c.Shift &&
		e.Alt == c.Alt
}

func (c Chord) String() string {
	var b strings.Builder
	if c.Mod {
		b.WriteString("mod+")
	}
	if c.Shift {
		b.WriteString("shift+")
	}
	if c.Alt {
		b.WriteString("alt+")
	}
	b.WriteString(c.Key)
	return b.String()
}

// Dispatcher binds the save and generate shortcuts.
//
// Save listens at the document level so it works whatever the widget's
// focus state. Generate is a widget command guarded by
// GeneratePrecondition. Both are also registered by id in the Registry for
// front ends without a keyboard.
type Dispatcher struct {
	surface  Surface
	keys     KeySource
	registry *Registry
	save     Chord
	generate Chord

	disposables []Disposable
	attached    bool
}

// NewDispatcher creates a dispatcher for the given chords.
func NewDispatcher(surface Surface, keys KeySource, registry *Registry, save, generate Chord) *Dispatcher {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Dispatcher{
		surface:  surface,
		keys:     keys,
		registry: registry,
		save:     save,
		generate: generate,
	}
}

// Attach installs the bindings. onSave and onGenerate run on the caller's
// execution context, as delivered by the widget and key source.
func (d *Dispatcher) Attach(onSave, onGenerate func()) error {
	if d.attached {
		return errors.New("dispatcher already attached")
	}

	if err := d.registry.Register(Command{ID: CommandSave, Label: "Save file", Keybinding: d.save, Run: onSave}); err != nil {
		return err
	}
	if err := d.registry.Register(Command{
		ID:           CommandGenerate,
		Label:        "Toggle generate zone",
		Keybinding:   d.generate,
		Precondition: GeneratePrecondition,
		Run:          onGenerate,
	}); err != nil {
		d.registry.Unregister(CommandSave)
		return err
	}

	if d.keys != nil {
		d.disposables = append(d.disposables, d.keys.AddKeyListener(func(e *KeyEvent) {
			if d.save.Matches(e) {
				e.PreventDefault()
				onSave()
			}
		}))
	}

	// The widget ships its own binding for the generate chord.
	d.surface.UnbindKey(d.generate)
	cmd, _ := d.registry.Get(CommandGenerate)
	d.disposables = append(d.disposables, d.surface.AddCommand(cmd))

	d.attached = true
	return nil
}

// Detach releases every binding installed by Attach.
func (d *Dispatcher) Detach() {
	for i := len(d.disposables) - 1; i >= 0; i-- {
		d.disposables[i].Dispose()
	}
	d.disposables = nil
	d.registry.Unregister(CommandSave)
	d.registry.Unregister(CommandGenerate)
	d.attached = false
}

// Registry returns the command registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}
