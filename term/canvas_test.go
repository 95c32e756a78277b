package term

import (
	"testing"

	"github.com/gdamore/tcell/v2"
	. "github.com/jakecoffman/b2"
)

var white = FColor{R: 1, G: 1, B: 1, A: 1}

func newScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(40, 20)
	t.Cleanup(screen.Fini)
	return screen
}

func cell(screen tcell.Screen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func TestViewMapping(t *testing.T) {
	c := NewCanvas(newScreen(t), DRAW_SHAPES)

	if x, y := c.ToCell(Vector{}); x != 20 || y != 10 {
		t.Errorf("origin maps to (%d, %d), want the screen center", x, y)
	}
	// one meter is two columns but only one row
	if x, y := c.ToCell(Vector{X: 1, Y: 1}); x != 22 || y != 9 {
		t.Errorf("(1, 1) maps to (%d, %d)", x, y)
	}
	if p := c.ToWorld(20, 10); !p.Equal(Vector{X: 0.25, Y: -0.5}) {
		t.Errorf("cell center is %v", p)
	}
	for _, xy := range [][2]int{{0, 0}, {20, 10}, {39, 19}, {7, 13}} {
		if x, y := c.ToCell(c.ToWorld(xy[0], xy[1])); x != xy[0] || y != xy[1] {
			t.Errorf("cell %v round trips to (%d, %d)", xy, x, y)
		}
	}

	c.View.Center = Vector{X: 5, Y: 5}
	if x, y := c.ToCell(Vector{X: 5, Y: 5}); x != 20 || y != 10 {
		t.Errorf("view center maps to (%d, %d)", x, y)
	}
}

func TestDrawSegment(t *testing.T) {
	screen := newScreen(t)
	c := NewCanvas(screen, 0)

	c.DrawSegment(Vector{X: -2}, Vector{X: 2}, white)
	for x := 16; x <= 24; x++ {
		if r := cell(screen, x, 10); r != RUNE_LINE {
			t.Errorf("cell (%d, 10) is %q", x, r)
		}
	}
	if r := cell(screen, 15, 10); r == RUNE_LINE {
		t.Errorf("segment overran its end")
	}

	// diagonal lines have no gaps
	c.DrawSegment(Vector{X: -5, Y: -5}, Vector{X: 5, Y: 5}, white)
	for y := 5; y <= 15; y++ {
		found := false
		for x := 0; x < 40; x++ {
			found = found || cell(screen, x, y) == RUNE_LINE
		}
		if !found {
			t.Errorf("row %d of the diagonal is empty", y)
		}
	}

	// off screen ends are clipped, not wrapped
	c.DrawSegment(Vector{X: -100, Y: 3}, Vector{X: 100, Y: 3}, white)
	for x := 0; x < 40; x++ {
		if r := cell(screen, x, 7); r != RUNE_LINE {
			t.Fatalf("clipped line missing at column %d", x)
		}
	}
}

func TestDrawSolidPolygon(t *testing.T) {
	screen := newScreen(t)
	c := NewCanvas(screen, 0)

	box := []Vector{{X: -2, Y: -1}, {X: 2, Y: -1}, {X: 2, Y: 1}, {X: -2, Y: 1}}
	c.DrawSolidPolygon(box, 0, white, white)

	if r := cell(screen, 20, 10); r != RUNE_FILL {
		t.Errorf("inside is %q", r)
	}
	if r := cell(screen, 16, 10); r != RUNE_LINE {
		t.Errorf("left edge is %q", r)
	}
	if r := cell(screen, 20, 9); r != RUNE_LINE {
		t.Errorf("top edge is %q", r)
	}
	if r := cell(screen, 30, 10); r == RUNE_FILL || r == RUNE_LINE {
		t.Errorf("fill leaked outside the box")
	}
}

func TestDrawSolidCircle(t *testing.T) {
	screen := newScreen(t)
	c := NewCanvas(screen, 0)

	c.DrawSolidCircle(Vector{}, 2, Vector{X: 1}, white, white)
	if r := cell(screen, 18, 10); r != RUNE_FILL {
		t.Errorf("inside is %q", r)
	}
	// the axis runs from the center to the right edge
	for x := 20; x <= 24; x++ {
		if r := cell(screen, x, 10); r != RUNE_LINE {
			t.Errorf("axis missing at column %d: %q", x, r)
		}
	}
	if r := cell(screen, 10, 10); r == RUNE_FILL || r == RUNE_LINE {
		t.Errorf("circle leaked to %q", r)
	}

	c.DrawPoint(Vector{X: 1, Y: 1}, 4, white)
	if r := cell(screen, 22, 9); r != RUNE_POINT {
		t.Errorf("point is %q", r)
	}
}

func TestCanvasDebugDraw(t *testing.T) {
	screen := newScreen(t)
	c := NewCanvas(screen, DRAW_SHAPES)

	w, err := NewWorld(DefaultWorldDef())
	if err != nil {
		t.Fatal(err)
	}
	bd := DefaultBodyDef()
	bd.Type = BODY_DYNAMIC
	bd.Position = Vector{X: 0, Y: 0}
	body, _ := w.CreateBody(bd)
	w.CreateShape(body, DefaultShapeDef(MakeBox(2, 1)))

	w.DebugDraw(c)
	if r := cell(screen, 20, 10); r != RUNE_FILL {
		t.Errorf("box center is %q", r)
	}

	c.Toggle(DRAW_SHAPES)
	screen.Clear()
	w.DebugDraw(c)
	if r := cell(screen, 20, 10); r == RUNE_FILL {
		t.Errorf("shapes drawn with the flag off")
	}
}
