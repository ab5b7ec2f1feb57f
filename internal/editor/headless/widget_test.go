package headless

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bretbouchard/sandbox/internal/editor"
)

func TestAllows(t *testing.T) {
	w := NewWidget()

	assert.True(t, w.Allows(""))
	assert.True(t, w.Allows(editor.GeneratePrecondition))

	w.SetContext("suggestWidgetVisible", true)
	assert.False(t, w.Allows(editor.GeneratePrecondition))
	assert.True(t, w.Allows("suggestWidgetVisible"))

	w.SetContext("suggestWidgetVisible", false)
	w.Focused = false
	assert.False(t, w.Allows(editor.GeneratePrecondition))
}

func TestPressHonorsPrecondition(t *testing.T) {
	w := NewWidget()
	runs := 0
	w.AddCommand(editor.Command{
		ID:           "test.run",
		Keybinding:   editor.MustParseChord("mod+g"),
		Precondition: "editorTextFocus && !renameInputVisible",
		Run:          func() { runs++ },
	})

	w.Press(&editor.KeyEvent{Key: "g", Ctrl: true})
	w.SetContext("renameInputVisible", true)
	w.Press(&editor.KeyEvent{Key: "g", Ctrl: true})

	assert.Equal(t, 1, runs)
}
