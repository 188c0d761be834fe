// pkg/core/object.go
package core

// Entity is any object occupying space in a scene. The set of implementations is
// closed: entity() is defined on each variant, not on Object, so embedding Object
// outside this package does not produce an Entity.
type Entity interface {
	Type() ObjectType
	Base() *Object
	entity()
}

// Object holds the state shared by every scene entity.
// Identity and extents are fixed at construction. Kinematic and goal fields are
// written by the integrator and scenario logic without validation.
type Object struct {
	id     int64
	length float64
	width  float64

	maxSpeed    float64
	hasMaxSpeed bool

	state  KinematicState
	target KinematicState

	canBlockSight  bool
	canBeCollided  bool
	checkCollision bool

	color Color
}

// Option configures optional construction parameters.
type Option func(*options)

type options struct {
	maxSpeed       *float64
	canBlockSight  bool
	canBeCollided  bool
	checkCollision bool
	color          *Color
}

func defaultOptions() options {
	return options{
		canBlockSight:  true,
		canBeCollided:  true,
		checkCollision: true,
	}
}

// WithMaxSpeed bounds the achievable speed. Without it the speed is unbounded.
func WithMaxSpeed(v float64) Option {
	return func(o *options) {
		o.maxSpeed = &v
	}
}

// WithCanBlockSight sets whether the object occludes line of sight.
func WithCanBlockSight(b bool) Option {
	return func(o *options) {
		o.canBlockSight = b
	}
}

// WithCanBeCollided sets whether other objects can collide with this one.
func WithCanBeCollided(b bool) Option {
	return func(o *options) {
		o.canBeCollided = b
	}
}

// WithCheckCollision sets whether this object reports its own collisions.
func WithCheckCollision(b bool) Option {
	return func(o *options) {
		o.checkCollision = b
	}
}

// WithColor sets the initial display color. Vehicles ignore it and always start
// with the vehicle color; use Vehicle.ColorAsSource afterwards.
func WithColor(c Color) Option {
	return func(o *options) {
		o.color = &c
	}
}

func newObject(id int64, length, width float64, state, target KinematicState, opts []Option) (Object, options) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	obj := Object{
		id:             id,
		length:         length,
		width:          width,
		state:          state,
		target:         target,
		canBlockSight:  o.canBlockSight,
		canBeCollided:  o.canBeCollided,
		checkCollision: o.checkCollision,
	}
	if o.maxSpeed != nil {
		obj.maxSpeed = *o.maxSpeed
		obj.hasMaxSpeed = true
	}
	return obj, o
}

// initColor assigns c, or the variant default when c is nil. Only the display
// color is touched.
func (o *Object) initColor(c *Color, t ObjectType) {
	if c == nil {
		o.color = DefaultColor(t)
		return
	}
	o.color = *c
}

// Base returns the shared object state.
func (o *Object) Base() *Object { return o }

func (o *Object) ID() int64       { return o.id }
func (o *Object) Length() float64 { return o.length }
func (o *Object) Width() float64  { return o.width }

// MaxSpeed returns the speed bound and whether one was set.
func (o *Object) MaxSpeed() (float64, bool) { return o.maxSpeed, o.hasMaxSpeed }

func (o *Object) State() KinematicState { return o.state }
func (o *Object) Position() Vector2D    { return o.state.Position }
func (o *Object) Heading() float64      { return o.state.Heading }
func (o *Object) Speed() float64        { return o.state.Speed }

// SetState replaces the whole kinematic state at once.
func (o *Object) SetState(s KinematicState) { o.state = s }
func (o *Object) SetPosition(p Vector2D)    { o.state.Position = p }
func (o *Object) SetHeading(h float64)      { o.state.Heading = h }
func (o *Object) SetSpeed(v float64)        { o.state.Speed = v }

func (o *Object) Target() KinematicState   { return o.target }
func (o *Object) TargetPosition() Vector2D { return o.target.Position }
func (o *Object) TargetHeading() float64   { return o.target.Heading }
func (o *Object) TargetSpeed() float64     { return o.target.Speed }

// SetTarget replaces the goal state. The object never changes its goal on its own.
func (o *Object) SetTarget(t KinematicState) { o.target = t }

func (o *Object) CanBlockSight() bool  { return o.canBlockSight }
func (o *Object) CanBeCollided() bool  { return o.canBeCollided }
func (o *Object) CheckCollision() bool { return o.checkCollision }

func (o *Object) Color() Color { return o.color }
