package editor_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bretbouchard/sandbox/internal/editor"
	"github.com/bretbouchard/sandbox/internal/editor/headless"
	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
)

func newDecoratedWidget(text string) (*headless.Widget, *editor.Controller) {
	w := headless.NewWidget()
	w.SetValue(text)
	return w, editor.NewController(w, 0, nil)
}

func TestHintRecomputesOnlyOnLineChange(t *testing.T) {
	_, c := newDecoratedWidget("first line\nsecond")

	assert.True(t, c.CursorMoved(editor.Position{Line: 1, Column: 1}))
	assert.False(t, c.CursorMoved(editor.Position{Line: 1, Column: 5}))
	assert.False(t, c.CursorMoved(editor.Position{Line: 1, Column: 11}))
	assert.Equal(t, 1, c.Recomputes())

	assert.True(t, c.CursorMoved(editor.Position{Line: 2, Column: 3}))
	assert.Equal(t, 2, c.Recomputes())
}

func TestHintSpansCursorToLineEnd(t *testing.T) {
	w, c := newDecoratedWidget("héllo wörld\nx")

	c.CursorMoved(editor.Position{Line: 1, Column: 4})

	collections := w.Collections()
	require.Len(t, collections, 1)
	assert.Equal(t, []editor.Marker{{
		Range: editor.Range{StartLine: 1, StartColumn: 4, EndLine: 1, EndColumn: 12},
		Style: editor.HintStyle,
	}}, collections[0].Markers())
}

func TestHintCollectionUpdatedInPlace(t *testing.T) {
	w, c := newDecoratedWidget("a\nb\nc")

	for line := 1; line <= 3; line++ {
		c.CursorMoved(editor.Position{Line: line, Column: 1})
	}

	collections := w.Collections()
	require.Len(t, collections, 1, "collection is created once")
	assert.Equal(t, 3, collections[0].Sets())
}

func TestResetForcesRecompute(t *testing.T) {
	_, c := newDecoratedWidget("a")

	c.CursorMoved(editor.Position{Line: 1, Column: 1})
	c.Reset()

	assert.True(t, c.CursorMoved(editor.Position{Line: 1, Column: 1}))
}

func TestToggleGenerateTwiceLeavesNoZone(t *testing.T) {
	w, c := newDecoratedWidget("a\nb\nc")
	w.MoveCursor(2, 1)

	require.True(t, c.ToggleGenerate())
	zone := c.Zone()
	assert.True(t, zone.Active)
	assert.Equal(t, 2, zone.AnchorLine)
	assert.NotEmpty(t, zone.Handle)
	assert.Equal(t, map[editor.ZoneHandle]editor.Zone{
		zone.Handle: {AfterLine: 2, HeightInLines: editor.DefaultZoneHeight},
	}, w.Zones())

	assert.False(t, c.ToggleGenerate())
	assert.Equal(t, editor.OverlayZone{}, c.Zone())
	assert.Empty(t, w.Zones())
}

func TestZoneHeightConfigurable(t *testing.T) {
	w := headless.NewWidget()
	c := editor.NewController(w, 5, nil)

	c.ToggleGenerate()

	for _, zone := range w.Zones() {
		assert.Equal(t, 5, zone.HeightInLines)
	}
}

func TestCloseZoneWithoutHandle(t *testing.T) {
	w, c := newDecoratedWidget("a")

	assert.NotPanics(t, func() {
		c.CloseZone()
		c.CloseZone()
	})
	assert.Empty(t, w.Zones())
}

func TestDisposeClearsOverlays(t *testing.T) {
	w, c := newDecoratedWidget("abc")
	c.CursorMoved(editor.Position{Line: 1, Column: 2})
	c.ToggleGenerate()

	c.Dispose()

	assert.Empty(t, w.Zones())
	assert.Empty(t, w.Collections()[0].Markers())
}

func TestDecorationMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)
	w := headless.NewWidget()
	c := editor.NewController(w, 0, metrics)

	c.CursorMoved(editor.Position{Line: 1, Column: 1})
	c.CursorMoved(editor.Position{Line: 1, Column: 1})

	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.DecorationUpdates))
}
