// Command simple drops a box on the ground and logs where it is each step,
// without opening a window.
package main

import (
	"flag"
	"log"
	"os"

	. "github.com/jakecoffman/b2"
)

func main() {
	config := flag.String("world", "", "yaml file with world settings")
	steps := flag.Int("steps", 60, "steps to simulate")
	flag.Parse()

	def := DefaultWorldDef()
	if *config != "" {
		f, err := os.Open(*config)
		if err != nil {
			log.Fatal(err)
		}
		def, err = LoadWorldDef(f)
		f.Close()
		if err != nil {
			log.Fatal(err)
		}
	}
	world, err := NewWorld(def)
	if err != nil {
		log.Fatal(err)
	}

	groundDef := DefaultBodyDef()
	groundDef.Position = Vector{Y: -10}
	ground, err := world.CreateBody(groundDef)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := world.CreateShape(ground, DefaultShapeDef(MakeBox(50, 10))); err != nil {
		log.Fatal(err)
	}

	bodyDef := DefaultBodyDef()
	bodyDef.Type = BODY_DYNAMIC
	bodyDef.Position = Vector{Y: 4}
	body, err := world.CreateBody(bodyDef)
	if err != nil {
		log.Fatal(err)
	}
	shapeDef := DefaultShapeDef(MakeBox(1, 1))
	shapeDef.Friction = 0.3
	if _, err := world.CreateShape(body, shapeDef); err != nil {
		log.Fatal(err)
	}

	const timeStep = 1.0 / 60.0
	for i := 0; i < *steps; i++ {
		world.Step(timeStep, 0, 0)
		p := body.Position()
		log.Printf("%4.2f %4.2f %4.2f", p.X, p.Y, body.Angle())
	}
}
