package b2

// ContactImpulse holds the impulses the solver applied at each manifold
// point, for PostSolve.
type ContactImpulse struct {
	NormalImpulses  [MAX_MANIFOLD_POINTS]float32
	TangentImpulses [MAX_MANIFOLD_POINTS]float32
	Count           int
}

// ContactListener receives contact events. All calls happen on the goroutine
// running Step while the world is locked, so bodies and shapes may only be
// destroyed (deferred), not created.
type ContactListener interface {
	// BeginContact is called when two shapes start touching.
	BeginContact(c *Contact)
	// EndContact is called when two shapes stop touching, including when the
	// contact is destroyed.
	EndContact(c *Contact)
	// PreSolve is called for touching solid contacts after the manifold was
	// updated. Disabling the contact here skips it for this step.
	PreSolve(c *Contact, oldManifold *Manifold)
	// PostSolve reports the impulses applied this step.
	PostSolve(c *Contact, impulse *ContactImpulse)
}

// ContactFilter is consulted after the category and group filter accepted a
// pair.
type ContactFilter interface {
	ShouldCollide(a, b Shape) bool
}

// DestructionListener is told about joints and shapes destroyed implicitly
// because their body was destroyed.
type DestructionListener interface {
	SayGoodbyeJoint(j Joint)
	SayGoodbyeShape(s Shape)
}

// ContactHandler adapts plain functions to ContactListener. Nil functions
// are skipped.
type ContactHandler struct {
	BeginFunc     func(c *Contact)
	EndFunc       func(c *Contact)
	PreSolveFunc  func(c *Contact, oldManifold *Manifold)
	PostSolveFunc func(c *Contact, impulse *ContactImpulse)
}

func (h *ContactHandler) BeginContact(c *Contact) {
	if h.BeginFunc != nil {
		h.BeginFunc(c)
	}
}

func (h *ContactHandler) EndContact(c *Contact) {
	if h.EndFunc != nil {
		h.EndFunc(c)
	}
}

func (h *ContactHandler) PreSolve(c *Contact, oldManifold *Manifold) {
	if h.PreSolveFunc != nil {
		h.PreSolveFunc(c, oldManifold)
	}
}

func (h *ContactHandler) PostSolve(c *Contact, impulse *ContactImpulse) {
	if h.PostSolveFunc != nil {
		h.PostSolveFunc(c, impulse)
	}
}

// Listeners groups the optional callbacks of a world.
type Listeners struct {
	Contact     ContactListener
	Filter      ContactFilter
	Destruction DestructionListener
}

func (w *World) SetContactListener(l ContactListener) {
	w.listeners.Contact = l
}

// SetContactFilter replaces the custom filter. Existing contacts are not
// re-filtered, use Shape.SetFilter for that.
func (w *World) SetContactFilter(f ContactFilter) {
	w.listeners.Filter = f
}

func (w *World) SetDestructionListener(l DestructionListener) {
	w.listeners.Destruction = l
}

// PostStepCallbackFunc runs once the world is unlocked.
type PostStepCallbackFunc func(w *World, key interface{})

type postStepCallback struct {
	callback PostStepCallbackFunc
	key      interface{}
}

// AddPostStepCallback defers f until the world is unlocked, the only time
// bodies, shapes and joints may be created or destroyed. A callback with a
// non-nil key is only registered once per key. Returns false if the key was
// already queued.
// Called while unlocked, f runs immediately.
func (w *World) AddPostStepCallback(f PostStepCallbackFunc, key interface{}) bool {
	if !w.IsLocked() {
		f(w, key)
		return true
	}
	for _, cb := range w.postStepCallbacks {
		if key != nil && cb.key == key {
			return false
		}
	}
	w.postStepCallbacks = append(w.postStepCallbacks, postStepCallback{f, key})
	return true
}

// runPostStepCallbacks drains the queue, including callbacks queued by the
// callbacks themselves.
func (w *World) runPostStepCallbacks() {
	for i := 0; i < len(w.postStepCallbacks); i++ {
		cb := w.postStepCallbacks[i]
		cb.callback(w, cb.key)
	}
	w.postStepCallbacks = w.postStepCallbacks[:0]
}
