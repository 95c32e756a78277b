package term

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	. "github.com/jakecoffman/b2"
)

func newLoop(t *testing.T) *loop {
	w, err := NewWorld(DefaultWorldDef())
	if err != nil {
		t.Fatal(err)
	}
	bd := DefaultBodyDef()
	bd.Type = BODY_DYNAMIC
	body, _ := w.CreateBody(bd)
	w.CreateShape(body, DefaultShapeDef(MakeBox(0.5, 0.5)))

	return &loop{
		world:  w,
		canvas: NewCanvas(newScreen(t), DRAW_SHAPES),
		tick:   1.0 / 60,
		update: func(w *World, dt float32) { w.Step(dt, 0, 0) },
	}
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestHandleKey(t *testing.T) {
	l := newLoop(t)

	if !l.handleKey(key('p')) || !l.paused {
		t.Errorf("p did not pause")
	}
	l.handleKey(key('p'))
	if l.paused {
		t.Errorf("p did not resume")
	}

	l.handleKey(key(' '))
	if !l.paused || !l.singleStep {
		t.Errorf("space should pause and queue one step")
	}

	l.handleKey(key('2'))
	if l.canvas.Flags() != DRAW_SHAPES|DRAW_JOINTS {
		t.Errorf("2 should toggle joints, flags %b", l.canvas.Flags())
	}
	l.handleKey(key('1'))
	if l.canvas.Flags() != DRAW_JOINTS {
		t.Errorf("1 should toggle shapes, flags %b", l.canvas.Flags())
	}

	l.handleKey(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	if l.canvas.View.Center.X != 1 {
		t.Errorf("right should pan one meter, center %v", l.canvas.View.Center)
	}
	l.handleKey(key('+'))
	if l.canvas.View.Scale != 2.5 {
		t.Errorf("+ should zoom in, scale %v", l.canvas.View.Scale)
	}

	if l.handleKey(key('q')) {
		t.Errorf("q should stop")
	}
	if l.handleKey(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Errorf("escape should stop")
	}
}

func TestFrame(t *testing.T) {
	l := newLoop(t)

	l.frame()
	if l.world.StepCount() != 1 {
		t.Errorf("running frame did not step")
	}

	l.paused = true
	l.frame()
	if l.world.StepCount() != 1 {
		t.Errorf("paused frame stepped")
	}

	l.singleStep = true
	l.frame()
	l.frame()
	if l.world.StepCount() != 2 || l.singleStep {
		t.Errorf("single step ran %d steps", l.world.StepCount()-1)
	}

	if r := cell(l.canvas.Screen, 0, 0); r != 's' {
		t.Errorf("status line starts with %q", r)
	}
}

func TestRun(t *testing.T) {
	l := newLoop(t)
	screen := l.canvas.Screen.(tcell.SimulationScreen)

	if err := Run(l.canvas, l.world, 0, l.update); err == nil {
		t.Errorf("zero tick accepted")
	}

	errs := make(chan error, 1)
	go func() {
		errs <- Run(l.canvas, l.world, 1.0/60, l.update)
	}()
	screen.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	select {
	case err := <-errs:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop on q")
	}
}
