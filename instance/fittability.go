package instance

// fittability tracks whether drawables of an instance may fit their
// bounds. A PreventFit hint on the instance or any ancestor disables it.
type fittability struct {
	inst              *Instance
	selfFittable      bool
	ancestorsFittable bool
	// subtreeUnfittableCount counts instances in the subtree, including
	// this one, with a PreventFit hint.
	subtreeUnfittableCount int
}

func (f *fittability) initialize(i *Instance) {
	self := !i.node.Hints().PreventFit
	*f = fittability{
		inst:              i,
		selfFittable:      self,
		ancestorsFittable: self,
	}
	if !self {
		f.subtreeUnfittableCount = 1
	}
}

// onInsert is called when child is inserted below f's instance.
func (f *fittability) onInsert(child *fittability) {
	f.addUnfittable(child.subtreeUnfittableCount)
	child.setAncestorsFittable(f.ancestorsFittable && child.selfFittable)
}

// onRemove is called when child is removed below f's instance.
func (f *fittability) onRemove(child *fittability) {
	f.addUnfittable(-child.subtreeUnfittableCount)
	child.setAncestorsFittable(child.selfFittable)
}

// checkSelf picks up a changed PreventFit hint.
func (f *fittability) checkSelf() {
	self := !f.inst.node.Hints().PreventFit
	if self == f.selfFittable {
		return
	}
	f.selfFittable = self
	if self {
		f.addUnfittable(-1)
	} else {
		f.addUnfittable(1)
	}
	parentFittable := true
	if p := f.inst.parent; p != nil {
		parentFittable = p.fit.ancestorsFittable
	}
	f.setAncestorsFittable(parentFittable && self)
}

func (f *fittability) addUnfittable(delta int) {
	if delta == 0 {
		return
	}
	for p := f.inst; p != nil; p = p.parent {
		p.fit.subtreeUnfittableCount += delta
	}
}

func (f *fittability) setAncestorsFittable(v bool) {
	if f.ancestorsFittable == v {
		return
	}
	f.ancestorsFittable = v
	i := f.inst
	if i.selfDrawable != nil {
		i.selfDrawable.SetFittable(v)
	}
	if i.groupDrawable != nil {
		i.groupDrawable.SetFittable(v)
	}
	for _, c := range i.children {
		c.fit.setAncestorsFittable(v && c.fit.selfFittable)
	}
}

// audit recounts the subtree and checks the cached flags.
func (f *fittability) audit() bool {
	count := 0
	if !f.selfFittable {
		count++
	}
	for _, c := range f.inst.children {
		count += c.fit.subtreeUnfittableCount
	}
	parentFittable := true
	if p := f.inst.parent; p != nil {
		parentFittable = p.fit.ancestorsFittable
	}
	return count == f.subtreeUnfittableCount &&
		f.ancestorsFittable == (parentFittable && f.selfFittable)
}
