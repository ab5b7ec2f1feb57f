package editor

import (
	"unicode/utf8"

	"github.com/bretbouchard/sandbox/internal/infrastructure/monitoring"
)

// HintStyle is the style tag of the end-of-line cursor hint
const HintStyle = "inline-decoration"

// DefaultZoneHeight is the height of the generate zone in lines
const DefaultZoneHeight = 3

// OverlayZone is the state of the generate zone
type OverlayZone struct {
	Active     bool
	AnchorLine int
	Handle     ZoneHandle
}

// Controller places the end-of-line hint and the generate zone.
type Controller struct {
	surface    Surface
	metrics    *monitoring.Metrics
	zoneHeight int

	markers    MarkerCollection // created on first use, then updated in place
	lastLine   int              // 0 until the first cursor event
	recomputes int

	zone OverlayZone
}

// NewController creates a controller for the surface. A non-positive
// zoneHeight selects DefaultZoneHeight.
func NewController(surface Surface, zoneHeight int, metrics *monitoring.Metrics) *Controller {
	if zoneHeight <= 0 {
		zoneHeight = DefaultZoneHeight
	}
	return &Controller{
		surface:    surface,
		metrics:    metrics,
		zoneHeight: zoneHeight,
	}
}

// CursorMoved updates the hint when the cursor changed line and reports
// whether it recomputed. Column-only moves are ignored.
func (c *Controller) CursorMoved(pos Position) bool {
	if pos.Line == c.lastLine {
		return false
	}
	c.lastLine = pos.Line
	c.recompute(pos)
	return true
}

func (c *Controller) recompute(pos Position) {
	c.recomputes++
	c.metrics.IncDecorationUpdates()

	line := c.surface.LineContent(pos.Line)
	markers := []Marker{{
		Range: Range{
			StartLine:   pos.Line,
			StartColumn: pos.Column,
			EndLine:     pos.Line,
			EndColumn:   utf8.RuneCountInString(line) + 1,
		},
		Style: HintStyle,
	}}

	if c.markers == nil {
		c.markers = c.surface.CreateMarkerCollection()
	}
	c.markers.Set(markers)
}

// Reset forgets the last cursor line so the next cursor event recomputes,
// as after a new file is shown.
func (c *Controller) Reset() {
	c.lastLine = 0
}

// Recomputes returns how many times the hint has been recomputed.
func (c *Controller) Recomputes() int {
	return c.recomputes
}

// Zone returns the generate zone state.
func (c *Controller) Zone() OverlayZone {
	return c.zone
}

// ToggleGenerate opens the generate zone after the cursor line, or closes
// it if open. It reports whether the zone is open afterwards.
func (c *Controller) ToggleGenerate() bool {
	if c.zone.Active {
		c.removeZone()
		return false
	}

	c.removeZone()
	line := c.surface.Cursor().Line
	c.zone = OverlayZone{
		Active:     true,
		AnchorLine: line,
		Handle:     c.surface.AddZone(Zone{AfterLine: line, HeightInLines: c.zoneHeight}),
	}
	return true
}

// CloseZone closes the generate zone if it is open.
func (c *Controller) CloseZone() {
	c.removeZone()
}

// removeZone removes the zone by its handle. Without a handle it does
// nothing.
func (c *Controller) removeZone() {
	if c.zone.Handle != "" {
		c.surface.RemoveZone(c.zone.Handle)
	}
	c.zone = OverlayZone{}
}

// Dispose removes every overlay the controller placed.
func (c *Controller) Dispose() {
	c.removeZone()
	if c.markers != nil {
		c.markers.Clear()
	}
}
