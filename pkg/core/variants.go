// pkg/core/variants.go
package core

// Pedestrian is a person walking in the scene.
type Pedestrian struct {
	Object
}

func NewPedestrian(id int64, length, width float64, state, target KinematicState, opts ...Option) *Pedestrian {
	obj, o := newObject(id, length, width, state, target, opts)
	p := &Pedestrian{Object: obj}
	p.initColor(o.color, TypePedestrian)
	return p
}

func (p *Pedestrian) Type() ObjectType { return TypePedestrian }
func (p *Pedestrian) entity()          {}

// Cyclist is a bicycle and its rider.
type Cyclist struct {
	Object
}

func NewCyclist(id int64, length, width float64, state, target KinematicState, opts ...Option) *Cyclist {
	obj, o := newObject(id, length, width, state, target, opts)
	c := &Cyclist{Object: obj}
	c.initColor(o.color, TypeCyclist)
	return c
}

func (c *Cyclist) Type() ObjectType { return TypeCyclist }
func (c *Cyclist) entity()          {}

// RoadObject is a static obstacle. Its goal state equals its placement.
type RoadObject struct {
	Object
}

func NewRoadObject(id int64, length, width float64, position Vector2D, heading float64, opts ...Option) *RoadObject {
	placed := KinematicState{Position: position, Heading: heading}
	obj, o := newObject(id, length, width, placed, placed, opts)
	r := &RoadObject{Object: obj}
	r.initColor(o.color, TypeRoadObject)
	return r
}

func (r *RoadObject) Type() ObjectType { return TypeRoadObject }
func (r *RoadObject) entity()          {}

var (
	_ Entity = (*Vehicle)(nil)
	_ Entity = (*Pedestrian)(nil)
	_ Entity = (*Cyclist)(nil)
	_ Entity = (*RoadObject)(nil)
)
