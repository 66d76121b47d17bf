package scenesync

import (
	"errors"
	"strings"
	"testing"
)

func TestDebugConfigEnabled(t *testing.T) {
	tests := []struct {
		cfg  DebugConfig
		want bool
	}{
		{DebugConfig{}, false},
		{DebugConfig{Assertions: true}, true},
		{DebugConfig{SlowAssertions: true}, true},
	}
	for _, tt := range tests {
		if got := tt.cfg.Enabled(); got != tt.want {
			t.Errorf("%+v.Enabled() = %v, want %v", tt.cfg, got, tt.want)
		}
	}
}

func TestAssertDisabledIsNoop(t *testing.T) {
	DebugConfig{}.Assert(false, "test", "never raised")
	DebugConfig{Assertions: true}.AssertSlow(false, "test", "never raised")
}

func TestAssertPanicsWithInvariantError(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok {
			t.Fatalf("panic value %T is not an error", r)
		}
		var inv *InvariantError
		if !errors.As(err, &inv) {
			t.Fatalf("panic value %v is not an *InvariantError", err)
		}
		if inv.Scope != "instance" || !strings.Contains(err.Error(), "counter 2") {
			t.Errorf("unexpected error %q", err.Error())
		}
	}()
	DebugConfig{Assertions: true}.Assert(false, "instance", "counter %d", 2)
}
