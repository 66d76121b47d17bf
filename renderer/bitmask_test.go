package renderer

import "testing"

func TestCreateOrderAndOrder(t *testing.T) {
	order := CreateOrder(WebGL, Canvas, 0, SVG)
	want := []Bitmask{WebGL, Canvas, SVG, 0}
	for i, w := range want {
		if got := Order(order, i); got != w {
			t.Errorf("Order(%d) = %v, want %v", i, got.Name(), w.Name())
		}
	}
	if Order(order, -1) != 0 || Order(order, NumActiveRenderers) != 0 {
		t.Error("out of range slots should be 0")
	}
}

func TestPushOrder(t *testing.T) {
	tests := []struct {
		name  string
		order Bitmask
		push  Bitmask
		want  []Bitmask
	}{
		{"empty", 0, SVG, []Bitmask{SVG}},
		{"already first", CreateOrder(SVG, Canvas), SVG, []Bitmask{SVG, Canvas}},
		{"new renderer", CreateOrder(SVG, Canvas), DOM, []Bitmask{DOM, SVG, Canvas}},
		{"move from middle", CreateOrder(SVG, Canvas, DOM), DOM, []Bitmask{DOM, SVG, Canvas}},
		{"full order", CreateOrder(SVG, Canvas, DOM, WebGL), WebGL, []Bitmask{WebGL, SVG, Canvas, DOM}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PushOrder(tt.order, tt.push)
			for i := 0; i < NumActiveRenderers; i++ {
				var w Bitmask
				if i < len(tt.want) {
					w = tt.want[i]
				}
				if Order(got, i) != w {
					t.Fatalf("slot %d = %s, want %s (order %s)", i, Order(got, i).Name(), w.Name(), OrderString(got))
				}
			}
		})
	}
}

func TestPushOrderInvalidPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a renderer set")
		}
	}()
	PushOrder(0, SVG|Canvas)
}

func TestSelectSelf(t *testing.T) {
	tests := []struct {
		name      string
		supported Bitmask
		preferred Bitmask
		want      Bitmask
	}{
		{"fallback prefers svg", Canvas | SVG | DOM, 0, SVG},
		{"fallback canvas", Canvas | DOM, 0, Canvas},
		{"fallback webgl last", WebGL, 0, WebGL},
		{"preference wins", Canvas | SVG, CreateOrder(Canvas), Canvas},
		{"unsupported preference skipped", SVG, CreateOrder(Canvas, DOM), SVG},
		{"second preference", SVG | DOM, CreateOrder(Canvas, DOM), DOM},
		{"nothing supported", 0, CreateOrder(Canvas), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SelectSelf(tt.supported, tt.preferred); got != tt.want {
				t.Errorf("SelectSelf() = %s, want %s", got.Name(), tt.want.Name())
			}
		})
	}
}

func TestStringAndParse(t *testing.T) {
	if got := (Canvas | WebGL).String(); got != "canvas|webgl" {
		t.Errorf("String() = %q", got)
	}
	if got := Bitmask(0).String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if got := OrderString(CreateOrder(DOM, SVG)); got != "[dom svg]" {
		t.Errorf("OrderString() = %q", got)
	}
	for _, r := range []Bitmask{Canvas, SVG, DOM, WebGL} {
		got, err := Parse(r.Name())
		if err != nil || got != r {
			t.Errorf("Parse(%q) = %v, %v", r.Name(), got, err)
		}
	}
	if _, err := Parse("vulkan"); err == nil {
		t.Error("Parse should reject unknown names")
	}
	if WithoutWebGL(RendererArea) != Canvas|SVG|DOM {
		t.Error("WithoutWebGL should clear only the WebGL bit")
	}
}
