package sdkutil

import "fmt"

// ReentryGuard blocks an externally triggered entry point from re-entering
// itself through a nested call made mid-execution (for example through an
// asset transfer hook). Ledger execution is serialized, so a plain flag is
// sufficient; the guard is shared by all copies of a keeper value.
type ReentryGuard struct {
	entered bool
}

// NewReentryGuard returns an unlocked guard.
func NewReentryGuard() *ReentryGuard {
	return &ReentryGuard{}
}

// Enter marks the guard held, failing if it already is.
func (g *ReentryGuard) Enter(op string) error {
	if g.entered {
		return fmt.Errorf("reentrant call into %s", op)
	}
	g.entered = true
	return nil
}

// Exit releases the guard.
func (g *ReentryGuard) Exit() {
	g.entered = false
}
