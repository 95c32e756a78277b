package term

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	. "github.com/jakecoffman/b2"
	"github.com/pkg/errors"
)

// UpdateFunc advances the world by one tick.
type UpdateFunc func(world *World, dt float32)

var drawKeys = map[rune]uint{
	'1': DRAW_SHAPES,
	'2': DRAW_JOINTS,
	'3': DRAW_AABBS,
	'4': DRAW_CONTACTS,
	'5': DRAW_CENTER_OF_MASS,
}

var textColor = FColor{R: 0.9, G: 0.9, B: 0.9, A: 1}

// loop holds the interactive state of Run.
type loop struct {
	world      *World
	canvas     *Canvas
	tick       float32
	update     UpdateFunc
	paused     bool
	singleStep bool
}

// handleKey applies a key press and reports whether to keep running.
func (l *loop) handleKey(ev *tcell.EventKey) bool {
	const pan = 2
	v := &l.canvas.View
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		v.Center.X -= pan / v.Scale
	case tcell.KeyRight:
		v.Center.X += pan / v.Scale
	case tcell.KeyUp:
		v.Center.Y += pan / (v.Scale * v.Aspect)
	case tcell.KeyDown:
		v.Center.Y -= pan / (v.Scale * v.Aspect)
	case tcell.KeyRune:
		r := ev.Rune()
		if flag, ok := drawKeys[r]; ok {
			l.canvas.Toggle(flag)
			break
		}
		switch r {
		case 'q':
			return false
		case 'p':
			l.paused = !l.paused
		case ' ':
			l.paused = true
			l.singleStep = true
		case '+', '=':
			v.Scale *= 1.25
		case '-':
			v.Scale /= 1.25
		}
	}
	return true
}

// frame steps the world if it is running and redraws it.
func (l *loop) frame() {
	if !l.paused || l.singleStep {
		l.update(l.world, l.tick)
		l.singleStep = false
	}

	screen := l.canvas.Screen
	screen.Clear()
	l.world.DebugDraw(l.canvas)

	s := l.world.Stats()
	status := ""
	if l.paused {
		status = " paused"
	}
	l.canvas.DrawText(0, 0, fmt.Sprintf("step %d%s  bodies %d (%d awake)  contacts %d",
		l.world.StepCount(), status, s.Bodies, s.AwakeBodies, s.Touching), textColor)
	l.canvas.DrawText(0, 1, "q quit, p pause, space step, 1-5 layers, arrows pan, +/- zoom", textColor)
	screen.Show()
}

// Run steps and draws the world once per tick until q, escape or ctrl-c is
// pressed. The screen must be initialized and is left open.
func Run(canvas *Canvas, world *World, tick float32, update UpdateFunc) error {
	if tick <= 0 {
		return errors.Errorf("term: tick must be positive, got %v", tick)
	}
	l := &loop{world: world, canvas: canvas, tick: tick, update: update}

	ticker := time.NewTicker(time.Duration(float64(tick) * float64(time.Second)))
	defer ticker.Stop()

	done := make(chan struct{})
	defer close(done)
	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := canvas.Screen.PollEvent()
			if ev == nil {
				// the screen was finalized
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !l.handleKey(ev) {
					return nil
				}
			case *tcell.EventResize:
				canvas.Screen.Sync()
			}
		case <-ticker.C:
			l.frame()
		}
	}
}
