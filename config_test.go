package b2

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadWorldDef(t *testing.T) {
	def, err := LoadWorldDef(strings.NewReader("gravity: {x: 0, y: -9.8}\nworkers: 4\nenableContinuous: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !def.Gravity.Equal(V(0, -9.8)) {
		t.Errorf("gravity got %v", def.Gravity)
	}
	if def.Workers != 4 || def.EnableContinuous {
		t.Errorf("overrides not applied: workers %d continuous %v", def.Workers, def.EnableContinuous)
	}
	// untouched keys keep their defaults
	defaults := DefaultWorldDef()
	if def.VelocityIterations != defaults.VelocityIterations || def.TimeToSleep != defaults.TimeToSleep || !def.AllowSleep {
		t.Errorf("defaults lost: %+v", def)
	}

	w, err := NewWorld(def)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Gravity().Equal(V(0, -9.8)) {
		t.Errorf("world gravity got %v", w.Gravity())
	}
}

func TestLoadWorldDefEmpty(t *testing.T) {
	def, err := LoadWorldDef(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	defaults := DefaultWorldDef()
	if !def.Gravity.Equal(defaults.Gravity) || def.Workers != defaults.Workers ||
		def.PositionIterations != defaults.PositionIterations || def.AABBMargin != defaults.AABBMargin {
		t.Errorf("empty document changed the defaults: %+v", def)
	}
}

func TestLoadWorldDefErrors(t *testing.T) {
	for _, doc := range []string{
		"gravty: {x: 0, y: -10}",
		"gravity: [1, 2",
		"velocityIterations: 0",
		"timeToSleep: -1",
		"workers: -2",
		"gravity: {x: .nan, y: 0}",
		"workers: many",
	} {
		if _, err := LoadWorldDef(strings.NewReader(doc)); !errors.Is(err, ErrInvalidWorld) {
			t.Errorf("%q: expected ErrInvalidWorld, got %v", doc, err)
		}
	}
}
