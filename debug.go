package scenesync

import "fmt"

// DebugConfig controls the debug-only checks of the synchronization engine.
// It is injected at construction instead of being read from globals.
type DebugConfig struct {
	// Assertions enables cheap invariant checks during every sync pass.
	Assertions bool

	// SlowAssertions enables expensive checks: re-running render state
	// inference on pruned subtrees, change interval audits and stitch
	// verification.
	SlowAssertions bool
}

// Enabled reports whether any checking is on.
func (c DebugConfig) Enabled() bool {
	return c.Assertions || c.SlowAssertions
}

// InvariantError reports a violated internal invariant. It is raised with
// panic when assertions are enabled and is never expected in a correct
// program.
type InvariantError struct {
	// Scope names the component that detected the violation.
	Scope string
	// Msg describes the violation.
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("scenesync: %s invariant violated: %s", e.Scope, e.Msg)
}

// Assert panics with an *InvariantError when cfg.Assertions is set and
// cond is false.
func (c DebugConfig) Assert(cond bool, scope, format string, args ...any) {
	if c.Assertions && !cond {
		panic(&InvariantError{Scope: scope, Msg: fmt.Sprintf(format, args...)})
	}
}

// AssertSlow is Assert gated on SlowAssertions.
func (c DebugConfig) AssertSlow(cond bool, scope, format string, args ...any) {
	if c.SlowAssertions && !cond {
		panic(&InvariantError{Scope: scope, Msg: fmt.Sprintf(format, args...)})
	}
}
