// Package scenefile loads YAML scene scripts: a node tree plus a list of
// frames, each a list of mutations applied before the frame is synced.
//
// A script looks like:
//
//	width: 200
//	height: 120
//	scene:
//	  id: root
//	  children:
//	    - id: a
//	      rect: [10, 10, 40, 40]
//	      color: "#3060ff"
//	      supports: [canvas, svg]
//	    - id: cache
//	      hints: [canvasCache, singleCache]
//	      children:
//	        - {id: x, rect: [0, 0, 20, 20]}
//	frames:
//	  - []
//	  - - {op: translate, node: a, x: 5, y: 0}
//	    - {op: insert, parent: a, index: 0, ref: cache}
//	    - {op: visible, node: a, value: false}
package scenefile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gogpu/gg"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
)

// MaxFileSize bounds the size of a script read by Load.
const MaxFileSize = 1 << 20

// Errors returned while building or running a script.
var (
	// ErrUnknownNode is returned when an op names an id not in the scene.
	ErrUnknownNode = errors.New("scenefile: unknown node")

	// ErrDuplicateID is returned when two node specs share an id.
	ErrDuplicateID = errors.New("scenefile: duplicate node id")

	// ErrUnknownOp is returned for an unsupported op name.
	ErrUnknownOp = errors.New("scenefile: unknown op")

	// ErrTooLarge is returned for scripts over MaxFileSize.
	ErrTooLarge = errors.New("scenefile: script too large")
)

// Script is the decoded form of a scene script.
type Script struct {
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	Scene  NodeSpec `yaml:"scene"`
	Frames [][]Op   `yaml:"frames"`
}

// NodeSpec describes one node. A spec with only Ref set reuses a node
// declared elsewhere, giving it another parent.
type NodeSpec struct {
	ID               string     `yaml:"id"`
	Ref              string     `yaml:"ref,omitempty"`
	Rect             []float64  `yaml:"rect,omitempty"`
	Color            string     `yaml:"color,omitempty"`
	Supports         []string   `yaml:"supports,omitempty"`
	Renderer         string     `yaml:"renderer,omitempty"`
	Opacity          *float64   `yaml:"opacity,omitempty"`
	Visible          *bool      `yaml:"visible,omitempty"`
	ExcludeInvisible bool       `yaml:"excludeInvisible,omitempty"`
	Hints            []string   `yaml:"hints,omitempty"`
	Transform        []float64  `yaml:"transform,omitempty"`
	Children         []NodeSpec `yaml:"children,omitempty"`
}

// Op is one scene mutation. Which fields apply depends on Op:
//
//	insert     parent, index, and either ref or spec
//	remove     parent, child
//	move       parent, child, index
//	visible    node, value (bool)
//	opacity    node, value (number)
//	renderer   node, value (renderer name)
//	hint       node, name, value (bool)
//	translate  node, x, y
type Op struct {
	Op     string    `yaml:"op"`
	Node   string    `yaml:"node,omitempty"`
	Parent string    `yaml:"parent,omitempty"`
	Child  string    `yaml:"child,omitempty"`
	Ref    string    `yaml:"ref,omitempty"`
	Spec   *NodeSpec `yaml:"spec,omitempty"`
	Index  int       `yaml:"index,omitempty"`
	Name   string    `yaml:"name,omitempty"`
	Value  yaml.Node `yaml:"value,omitempty"`
	X      float64   `yaml:"x,omitempty"`
	Y      float64   `yaml:"y,omitempty"`
}

// Load decodes a script from r.
func Load(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("scenefile: read: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, ErrTooLarge
	}
	var s Script
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("scenefile: decode: %w", err)
	}
	return &s, nil
}

// LoadFile decodes the script at path.
func LoadFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenefile: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Scene is a built node tree with its ids resolved.
type Scene struct {
	Root  *node.Node
	nodes map[string]*node.Node
}

// Lookup returns the node declared with id.
func (sc *Scene) Lookup(id string) (*node.Node, error) {
	n, ok := sc.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, id)
	}
	return n, nil
}

// Build creates the node tree of the script.
func (s *Script) Build() (*Scene, error) {
	sc := &Scene{nodes: make(map[string]*node.Node)}
	root, err := sc.build(&s.Scene)
	if err != nil {
		return nil, err
	}
	sc.Root = root
	return sc, nil
}

func (sc *Scene) build(spec *NodeSpec) (*node.Node, error) {
	if spec.Ref != "" {
		return sc.Lookup(spec.Ref)
	}
	n := node.NewNamed(spec.ID)
	if spec.ID != "" {
		if _, ok := sc.nodes[spec.ID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateID, spec.ID)
		}
		sc.nodes[spec.ID] = n
	}
	if err := configure(n, spec); err != nil {
		return nil, fmt.Errorf("scenefile: node %q: %w", spec.ID, err)
	}
	for i := range spec.Children {
		c, err := sc.build(&spec.Children[i])
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(c); err != nil {
			return nil, fmt.Errorf("scenefile: node %q: %w", spec.ID, err)
		}
	}
	return n, nil
}

func configure(n *node.Node, spec *NodeSpec) error {
	if len(spec.Rect) > 0 {
		if len(spec.Rect) != 4 {
			return fmt.Errorf("rect needs 4 values, got %d", len(spec.Rect))
		}
		supported := renderer.Canvas | renderer.SVG
		if len(spec.Supports) > 0 {
			supported = 0
			for _, name := range spec.Supports {
				r, err := renderer.Parse(name)
				if err != nil {
					return err
				}
				supported |= r
			}
		}
		col := gg.RGB(0.2, 0.4, 1)
		if spec.Color != "" {
			col = gg.Hex(spec.Color)
		}
		n.SetPainter(RectPainter{
			Rect:  node.Rect{X: spec.Rect[0], Y: spec.Rect[1], W: spec.Rect[2], H: spec.Rect[3]},
			Color: col,
		}, supported)
		n.SetBoundsValid(true)
	}
	if spec.Renderer != "" {
		r, err := renderer.Parse(spec.Renderer)
		if err != nil {
			return err
		}
		n.SetRenderer(r)
	}
	if spec.Opacity != nil {
		n.SetOpacity(*spec.Opacity)
	}
	if spec.Visible != nil {
		n.SetVisible(*spec.Visible)
	}
	n.SetExcludeInvisible(spec.ExcludeInvisible)
	if len(spec.Hints) > 0 {
		var h node.Hints
		for _, name := range spec.Hints {
			if err := setHint(&h, name, true); err != nil {
				return err
			}
		}
		n.SetHints(h)
	}
	switch len(spec.Transform) {
	case 0:
	case 2:
		n.SetTransform(gg.Translate(spec.Transform[0], spec.Transform[1]))
	case 6:
		t := spec.Transform
		n.SetTransform(gg.Matrix{A: t[0], B: t[1], C: t[2], D: t[3], E: t[4], F: t[5]})
	default:
		return fmt.Errorf("transform needs 2 or 6 values, got %d", len(spec.Transform))
	}
	return nil
}

func setHint(h *node.Hints, name string, v bool) error {
	switch strings.ToLower(name) {
	case "csstransform":
		h.CSSTransform = v
	case "layersplit":
		h.LayerSplit = v
	case "canvascache":
		h.CanvasCache = v
	case "singlecache":
		h.SingleCache = v
	case "usesopacity":
		h.UsesOpacity = v
	case "preventfit":
		h.PreventFit = v
	default:
		return fmt.Errorf("unknown hint %q", name)
	}
	return nil
}

// Apply runs the ops of one frame in order. It stops at the first error.
func (sc *Scene) Apply(ops []Op) error {
	for i := range ops {
		if err := sc.apply(&ops[i]); err != nil {
			return fmt.Errorf("scenefile: op %d (%s): %w", i, ops[i].Op, err)
		}
	}
	return nil
}

func (sc *Scene) apply(op *Op) error {
	switch op.Op {
	case "insert":
		parent, err := sc.Lookup(op.Parent)
		if err != nil {
			return err
		}
		var child *node.Node
		switch {
		case op.Spec != nil:
			child, err = sc.build(op.Spec)
		default:
			child, err = sc.Lookup(op.Ref)
		}
		if err != nil {
			return err
		}
		return parent.InsertChild(op.Index, child)

	case "remove":
		parent, child, err := sc.pair(op)
		if err != nil {
			return err
		}
		return parent.RemoveChild(child)

	case "move":
		parent, child, err := sc.pair(op)
		if err != nil {
			return err
		}
		return parent.MoveChildToIndex(child, op.Index)
	}

	n, err := sc.Lookup(op.Node)
	if err != nil {
		return err
	}
	switch op.Op {
	case "visible":
		var v bool
		if err := op.Value.Decode(&v); err != nil {
			return err
		}
		n.SetVisible(v)
	case "opacity":
		var v float64
		if err := op.Value.Decode(&v); err != nil {
			return err
		}
		n.SetOpacity(v)
	case "renderer":
		var name string
		if err := op.Value.Decode(&name); err != nil {
			return err
		}
		r, err := renderer.Parse(name)
		if err != nil {
			return err
		}
		n.SetRenderer(r)
	case "hint":
		var v bool
		if err := op.Value.Decode(&v); err != nil {
			return err
		}
		h := n.Hints()
		if err := setHint(&h, op.Name, v); err != nil {
			return err
		}
		n.SetHints(h)
	case "translate":
		n.Translate(op.X, op.Y)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
	}
	return nil
}

func (sc *Scene) pair(op *Op) (parent, child *node.Node, err error) {
	if parent, err = sc.Lookup(op.Parent); err != nil {
		return nil, nil, err
	}
	if child, err = sc.Lookup(op.Child); err != nil {
		return nil, nil, err
	}
	return parent, child, nil
}

// RectPainter fills a rectangle with a solid color.
type RectPainter struct {
	Rect  node.Rect
	Color gg.RGBA
}

// PaintCanvas implements node.Painter.
func (p RectPainter) PaintCanvas(dc *gg.Context) {
	dc.SetRGBA(p.Color.R, p.Color.G, p.Color.B, p.Color.A)
	dc.DrawRectangle(p.Rect.X, p.Rect.Y, p.Rect.W, p.Rect.H)
	_ = dc.Fill()
}
