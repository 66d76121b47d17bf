package display

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gogpu/gg"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogpu/scenesync"
	"github.com/gogpu/scenesync/node"
	"github.com/gogpu/scenesync/renderer"
)

type rectPainter struct {
	w, h float64
}

func (p rectPainter) PaintCanvas(dc *gg.Context) {
	dc.SetRGBA(0, 0, 1, 1)
	dc.DrawRectangle(0, 0, p.w, p.h)
	_ = dc.Fill()
}

func painted(name string) *node.Node {
	n := node.NewNamed(name)
	n.SetPainter(rectPainter{w: 10, h: 10}, renderer.Canvas|renderer.SVG)
	return n
}

func group(name string, children ...*node.Node) *node.Node {
	n := node.NewNamed(name)
	for _, c := range children {
		if err := n.AddChild(c); err != nil {
			panic(err)
		}
	}
	return n
}

func newTestDisplay(t *testing.T, root *node.Node, opts ...Option) *Display {
	t.Helper()
	opts = append([]Option{WithDebug(scenesync.DebugConfig{Assertions: true, SlowAssertions: true})}, opts...)
	d := New(root, opts...)
	t.Cleanup(d.Dispose)
	return d
}

func mustUpdate(t *testing.T, d *Display) FrameStats {
	t.Helper()
	s, err := d.UpdateDisplay()
	if err != nil {
		t.Fatalf("UpdateDisplay: %v", err)
	}
	return s
}

func TestUpdateDisplayAdvancesFrame(t *testing.T) {
	d := newTestDisplay(t, group("root", painted("a"), painted("b")))
	if d.BaseInstance() != nil {
		t.Fatal("instances exist before the first frame")
	}
	if d.FrameID() != 1 {
		t.Fatalf("FrameID() = %d, want 1", d.FrameID())
	}

	s := mustUpdate(t, d)
	if s.Frame != 1 {
		t.Errorf("stats frame = %d, want 1", s.Frame)
	}
	if d.FrameID() != 2 {
		t.Errorf("FrameID() after update = %d, want 2", d.FrameID())
	}
	if s.LiveInstances != 3 {
		t.Errorf("live instances = %d, want 3", s.LiveInstances)
	}
	if d.BaseInstance() == nil || !d.BaseInstance().IsDisplayRoot() {
		t.Fatal("no display root instance after the first frame")
	}
	if d.LastFrame() != s {
		t.Errorf("LastFrame() = %v, want %v", d.LastFrame(), s)
	}

	s = mustUpdate(t, d)
	if s.Frame != 2 || s.InstancesDisposed != 0 || s.DrawablesDisposed != 0 {
		t.Errorf("idle frame = %v", s)
	}
}

func TestUpdateDisplayDisposesRemovedSubtree(t *testing.T) {
	b := group("b", painted("x"), painted("y"))
	root := group("root", painted("a"), b)
	d := newTestDisplay(t, root)
	mustUpdate(t, d)

	if err := root.RemoveChild(b); err != nil {
		t.Fatal(err)
	}
	s := mustUpdate(t, d)
	if s.InstancesDisposed != 1 {
		t.Errorf("instances disposed = %d, want 1", s.InstancesDisposed)
	}
	if s.LiveInstances != 2 {
		t.Errorf("live instances = %d, want 2", s.LiveInstances)
	}
	if len(b.Instances()) != 0 {
		t.Errorf("removed node still has %d instances", len(b.Instances()))
	}
}

func TestDisplayPaint(t *testing.T) {
	a := painted("a")
	a.SetTransform(gg.Translate(20, 20))
	d := newTestDisplay(t, group("root", a), WithSize(40, 40))
	mustUpdate(t, d)

	dc, err := d.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer func() { _ = dc.Close() }()

	if w, h := dc.Width(), dc.Height(); w != 40 || h != 40 {
		t.Fatalf("render size = %dx%d, want 40x40", w, h)
	}
	if _, _, b, a := dc.Image().At(25, 25).RGBA(); b == 0 || a == 0 {
		t.Error("expected blue inside the translated rectangle")
	}
	if _, _, _, a := dc.Image().At(5, 5).RGBA(); a != 0 {
		t.Error("expected transparent outside the rectangle")
	}

	a.SetVisible(false)
	mustUpdate(t, d)
	dc.Clear()
	if err := d.Paint(dc); err != nil {
		t.Fatal(err)
	}
	if _, _, _, a := dc.Image().At(25, 25).RGBA(); a != 0 {
		t.Error("hidden node was painted")
	}
}

func TestDisplaySharedCanvasCache(t *testing.T) {
	s := group("s", painted("x"))
	s.SetHints(node.Hints{CanvasCache: true, SingleCache: true})
	p1, p2 := group("p1", s), group("p2", s)
	root := group("root", p1, p2)
	d := newTestDisplay(t, root)

	st := mustUpdate(t, d)
	if st.SharedInstances != 1 || d.SharedInstanceCount() != 1 {
		t.Fatalf("shared instances = %d, want 1", st.SharedInstances)
	}
	shared, ok := d.SharedCanvasInstance(s.ID())
	if !ok || shared.ExternalReferenceCount() != 2 {
		t.Fatalf("shared instance %v registered=%t", shared, ok)
	}

	if err := root.RemoveChild(p1); err != nil {
		t.Fatal(err)
	}
	if err := root.RemoveChild(p2); err != nil {
		t.Fatal(err)
	}
	mustUpdate(t, d)
	if d.SharedInstanceCount() != 0 {
		t.Errorf("shared instances after removal = %d, want 0", d.SharedInstanceCount())
	}
	if !shared.IsDisposed() {
		t.Error("unreferenced shared instance was not disposed")
	}
}

func TestDisplayDispose(t *testing.T) {
	a := painted("a")
	d := New(group("root", a))
	mustUpdate(t, d)
	base := d.BaseInstance()

	d.Dispose()
	d.Dispose()
	if !base.IsDisposed() {
		t.Error("base instance survived Dispose")
	}
	if len(a.Instances()) != 0 {
		t.Errorf("node still has %d instances", len(a.Instances()))
	}
	if _, err := d.UpdateDisplay(); !errors.Is(err, ErrDisposed) {
		t.Errorf("UpdateDisplay after Dispose = %v, want ErrDisposed", err)
	}
	if _, err := d.Render(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Render after Dispose = %v, want ErrDisposed", err)
	}
}

func TestDisplaySavePNG(t *testing.T) {
	d := newTestDisplay(t, group("root", painted("a")), WithSize(16, 16))
	mustUpdate(t, d)

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := d.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Size() == 0 {
		t.Error("empty png")
	}
}

func TestDisplayMetrics(t *testing.T) {
	before := gatheredCounter(t, "scenesync_display_frames_total")
	d := newTestDisplay(t, group("root", painted("a")), WithMetrics(true))
	mustUpdate(t, d)
	mustUpdate(t, d)
	if got := gatheredCounter(t, "scenesync_display_frames_total"); got != before+2 {
		t.Errorf("frames_total = %v, want %v", got, before+2)
	}
}

func TestOptions(t *testing.T) {
	d := New(node.New(), WithSize(-1, 100), WithWebGL(true), WithBranchCacheLimit(0), WithBitmapCacheMB(0))
	defer d.Dispose()
	if w, h := d.Size(); w != DefaultWidth || h != 100 {
		t.Errorf("Size() = %d, %d", w, h)
	}
	if !d.IsWebGLAllowed() {
		t.Error("WebGL not allowed")
	}
	if d.Debug().Enabled() {
		t.Error("assertions on by default")
	}
}

func gatheredCounter(t *testing.T, name string) float64 {
	t.Helper()
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		return sum
	}
	return 0
}
