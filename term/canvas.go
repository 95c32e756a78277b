// Package term draws a b2 world into a terminal with tcell. Each cell is a
// pixel; cells are about twice as tall as they are wide, which the view
// corrects for.
package term

import (
	"github.com/chewxy/math32"
	"github.com/gdamore/tcell/v2"
	. "github.com/jakecoffman/b2"
)

const (
	RUNE_LINE  = '█'
	RUNE_FILL  = '░'
	RUNE_POINT = 'o'
	RUNE_AXIS  = '+'
)

// View maps world meters to terminal cells. Y points up in the world and
// down on screen.
type View struct {
	Center Vector
	// Scale is cells per meter horizontally.
	Scale float32
	// Aspect is the width of a cell divided by its height.
	Aspect float32
}

func DefaultView() View {
	return View{Scale: 2, Aspect: 0.5}
}

// Canvas implements b2.Drawer on a tcell screen.
type Canvas struct {
	Screen tcell.Screen
	View   View

	flags uint
}

func NewCanvas(screen tcell.Screen, flags uint) *Canvas {
	return &Canvas{Screen: screen, View: DefaultView(), flags: flags}
}

func (c *Canvas) Flags() uint {
	return c.flags
}

func (c *Canvas) SetFlags(flags uint) {
	c.flags = flags
}

func (c *Canvas) Toggle(flag uint) {
	c.flags ^= flag
}

// ToCell returns the column and row holding p.
func (c *Canvas) ToCell(p Vector) (x, y int) {
	w, h := c.Screen.Size()
	v := &c.View
	fx := (p.X-v.Center.X)*v.Scale + float32(w)/2
	fy := float32(h)/2 - (p.Y-v.Center.Y)*v.Scale*v.Aspect
	return int(math32.Floor(fx)), int(math32.Floor(fy))
}

// ToWorld returns the world point at the center of a cell.
func (c *Canvas) ToWorld(x, y int) Vector {
	w, h := c.Screen.Size()
	v := &c.View
	return Vector{
		X: (float32(x)+0.5-float32(w)/2)/v.Scale + v.Center.X,
		Y: (float32(h)/2-float32(y)-0.5)/(v.Scale*v.Aspect) + v.Center.Y,
	}
}

func style(color FColor) tcell.Style {
	// alpha blends toward the black background
	r := int32(Clamp01(color.R*color.A) * 255)
	g := int32(Clamp01(color.G*color.A) * 255)
	b := int32(Clamp01(color.B*color.A) * 255)
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(r, g, b))
}

func (c *Canvas) set(x, y int, r rune, st tcell.Style) {
	w, h := c.Screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return
	}
	c.Screen.SetContent(x, y, r, nil, st)
}

// line plots the cells between two cells with Bresenham's algorithm.
func (c *Canvas) line(x0, y0, x1, y1 int, r rune, st tcell.Style) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		c.set(x0, y0, r, st)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func (c *Canvas) DrawSegment(a, b Vector, color FColor) {
	x0, y0 := c.ToCell(a)
	x1, y1 := c.ToCell(b)
	c.line(x0, y0, x1, y1, RUNE_LINE, style(color))
}

func (c *Canvas) DrawPolygon(verts []Vector, color FColor) {
	for i := range verts {
		c.DrawSegment(verts[i], verts[(i+1)%len(verts)], color)
	}
}

// fill paints every cell whose center passes inside.
func (c *Canvas) fill(bb BB, inside func(Vector) bool, st tcell.Style) {
	x0, y0 := c.ToCell(Vector{X: bb.L, Y: bb.T})
	x1, y1 := c.ToCell(Vector{X: bb.R, Y: bb.B})
	w, h := c.Screen.Size()
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, w-1), min(y1, h-1)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if inside(c.ToWorld(x, y)) {
				c.set(x, y, RUNE_FILL, st)
			}
		}
	}
}

func (c *Canvas) DrawSolidPolygon(verts []Vector, radius float32, outline, fill FColor) {
	if len(verts) == 0 {
		return
	}
	bb := NewBBForExtents(verts[0], 0, 0)
	for _, v := range verts[1:] {
		bb = bb.Expand(v)
	}
	// convex and counter-clockwise
	c.fill(bb, func(p Vector) bool {
		for i := range verts {
			a, b := verts[i], verts[(i+1)%len(verts)]
			if b.Sub(a).Cross(p.Sub(a)) < 0 {
				return false
			}
		}
		return true
	}, style(fill))
	c.DrawPolygon(verts, outline)
}

// circleSteps picks enough points for a closed outline at the current zoom.
func (c *Canvas) circleSteps(radius float32) int {
	return max(8, int(2*math32.Pi*radius*c.View.Scale*2))
}

func (c *Canvas) DrawCircle(center Vector, radius float32, color FColor) {
	st := style(color)
	n := c.circleSteps(radius)
	for i := 0; i < n; i++ {
		p := center.Add(ForAngle(2 * math32.Pi * float32(i) / float32(n)).Mult(radius))
		x, y := c.ToCell(p)
		c.set(x, y, RUNE_LINE, st)
	}
}

func (c *Canvas) DrawSolidCircle(center Vector, radius float32, axis Vector, outline, fill FColor) {
	c.fill(NewBBForCircle(center, radius), func(p Vector) bool {
		return p.DistanceSq(center) <= radius*radius
	}, style(fill))
	c.DrawCircle(center, radius, outline)
	c.DrawSegment(center, center.Add(axis.Mult(radius)), outline)
}

func (c *Canvas) DrawTransform(xf Transform) {
	const axisScale = 0.4
	c.DrawSegment(xf.P, xf.P.Add(xf.Q.XAxis().Mult(axisScale)), FColor{R: 1, A: 1})
	c.DrawSegment(xf.P, xf.P.Add(xf.Q.YAxis().Mult(axisScale)), FColor{G: 1, A: 1})
	x, y := c.ToCell(xf.P)
	c.set(x, y, RUNE_AXIS, style(FColor{R: 1, G: 1, B: 1, A: 1}))
}

func (c *Canvas) DrawPoint(p Vector, size float32, color FColor) {
	x, y := c.ToCell(p)
	c.set(x, y, RUNE_POINT, style(color))
}

// DrawText writes a line of text starting at a cell, clipped to the screen.
func (c *Canvas) DrawText(x, y int, text string, color FColor) {
	st := style(color)
	for _, r := range text {
		c.set(x, y, r, st)
		x++
	}
}
