package instance

import (
	"github.com/gogpu/gg"
)

// relativeTransform tracks the cumulative transform of an instance. The
// trail matrix is cached and invalidated down the subtree whenever a node
// transform above it changes.
type relativeTransform struct {
	inst  *Instance
	trail gg.Matrix
	valid bool
}

func (rt *relativeTransform) initialize(i *Instance) {
	*rt = relativeTransform{inst: i}
}

// addInstance is called when child is inserted below rt's instance.
func (rt *relativeTransform) addInstance(child *Instance) {
	child.rt.invalidate()
}

// removeInstance is called when child is removed below rt's instance.
func (rt *relativeTransform) removeInstance(child *Instance) {
	child.rt.invalidate()
}

// invalidate drops the cached matrices of the subtree.
func (rt *relativeTransform) invalidate() {
	if !rt.valid {
		return
	}
	rt.valid = false
	for _, c := range rt.inst.children {
		c.rt.invalidate()
	}
}

func (rt *relativeTransform) trailMatrix() gg.Matrix {
	if rt.valid {
		return rt.trail
	}
	i := rt.inst
	m := i.node.Transform()
	if i.parent != nil {
		m = i.parent.rt.trailMatrix().Multiply(m)
	}
	rt.trail = m
	rt.valid = true
	return m
}

// root returns the nearest transformed ancestor, excluding the instance.
func (rt *relativeTransform) root() *Instance {
	for p := rt.inst.parent; p != nil; p = p.parent {
		if p.state.IsTransformed {
			return p
		}
	}
	return nil
}

// matrix is the product of node transforms below the transform root down
// to and including the instance's node.
func (rt *relativeTransform) matrix() gg.Matrix {
	i := rt.inst
	m := i.node.Transform()
	for p := i.parent; p != nil && !p.state.IsTransformed; p = p.parent {
		m = p.node.Transform().Multiply(m)
	}
	return m
}

// audit recomputes the trail matrix from the trail and reports whether
// the cached one agrees.
func (rt *relativeTransform) audit() bool {
	if !rt.valid {
		return true
	}
	m := gg.Identity()
	for _, n := range rt.inst.trail.Nodes() {
		m = m.Multiply(n.Transform())
	}
	return matrixNear(m, rt.trail)
}

func matrixNear(a, b gg.Matrix) bool {
	const eps = 1e-9
	d := [...]float64{a.A - b.A, a.B - b.B, a.C - b.C, a.D - b.D, a.E - b.E, a.F - b.F}
	for _, v := range d {
		if v > eps || v < -eps {
			return false
		}
	}
	return true
}
