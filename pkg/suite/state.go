package suite

import "sync/atomic"

// RunState is the state shared by every node of one run: whether the user
// chose accept-all, or cancel, at a snapshot prompt. The Runner resets it at
// the start of every run.
type RunState struct {
	acceptAll atomic.Bool
	declined  atomic.Bool
}

// AcceptAll reports whether mismatches are accepted without prompting.
func (s *RunState) AcceptAll() bool { return s.acceptAll.Load() }

// ArmAcceptAll makes every later mismatch in the run auto-accept.
func (s *RunState) ArmAcceptAll() { s.acceptAll.Store(true) }

// Declined reports whether the user cancelled prompting for this run.
func (s *RunState) Declined() bool { return s.declined.Load() }

// Decline suppresses further prompts; later mismatches are rejected.
func (s *RunState) Decline() { s.declined.Store(true) }

// Reset clears both flags.
func (s *RunState) Reset() {
	s.acceptAll.Store(false)
	s.declined.Store(false)
}
