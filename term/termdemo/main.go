// Command termdemo runs a small pyramid in the terminal.
package main

import (
	"flag"
	"log"

	"github.com/gdamore/tcell/v2"
	. "github.com/jakecoffman/b2"
	"github.com/jakecoffman/b2/term"
)

func buildWorld(rows int) (*World, error) {
	world, err := NewWorld(DefaultWorldDef())
	if err != nil {
		return nil, err
	}

	ground, err := world.CreateBody(DefaultBodyDef())
	if err != nil {
		return nil, err
	}
	if _, err := world.CreateShape(ground, DefaultShapeDef(MakeOffsetBox(30, 1, Vector{Y: -1}, 0))); err != nil {
		return nil, err
	}

	const h = 0.5
	for i := 0; i < rows; i++ {
		for j := i; j < rows; j++ {
			bd := DefaultBodyDef()
			bd.Type = BODY_DYNAMIC
			bd.Position = Vector{X: 2*h*float32(j) - h*float32(rows+i-1), Y: h + 2*h*float32(i)}
			body, err := world.CreateBody(bd)
			if err != nil {
				return nil, err
			}
			if _, err := world.CreateShape(body, DefaultShapeDef(MakeBox(h, h))); err != nil {
				return nil, err
			}
		}
	}

	bd := DefaultBodyDef()
	bd.Type = BODY_DYNAMIC
	bd.Position = Vector{X: -float32(rows) - 6, Y: 2}
	bd.LinearVelocity = Vector{X: 15}
	ball, err := world.CreateBody(bd)
	if err != nil {
		return nil, err
	}
	sd := DefaultShapeDef(NewCircle(Vector{}, 1))
	sd.Density = 5
	_, err = world.CreateShape(ball, sd)
	return world, err
}

func main() {
	rows := flag.Int("rows", 8, "rows in the pyramid")
	flag.Parse()

	world, err := buildWorld(*rows)
	if err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	defer screen.Fini()

	canvas := term.NewCanvas(screen, DRAW_SHAPES|DRAW_JOINTS)
	canvas.View.Center = Vector{Y: float32(*rows) / 2}
	if err := term.Run(canvas, world, 1.0/30.0, func(w *World, dt float32) {
		w.Step(dt, 0, 0)
	}); err != nil {
		log.Println(err)
	}
}
