package meter

import "sync"

// Signal is a boolean flag shared between the presentation boundary and the
// dispatcher loop. Every access is a non-blocking TryLock: a contended
// attempt means "check again next iteration", never a stall of the hot
// path. Do not upgrade these to blocking locks.
type Signal struct {
	mu sync.Mutex
	v  bool
}

// TrySet sets the flag. Returns false when contended.
func (s *Signal) TrySet(v bool) bool {
	if !s.mu.TryLock() {
		return false
	}
	s.v = v
	s.mu.Unlock()
	return true
}

// TryToggle flips the flag. Returns false when contended.
func (s *Signal) TryToggle() bool {
	if !s.mu.TryLock() {
		return false
	}
	s.v = !s.v
	s.mu.Unlock()
	return true
}

// TryConsume reads and clears the flag, reporting whether it was set.
// Contention reads as "not set"; the request survives for the next attempt.
func (s *Signal) TryConsume() bool {
	if !s.mu.TryLock() {
		return false
	}
	v := s.v
	s.v = false
	s.mu.Unlock()
	return v
}

// TryGet reads the flag without clearing it. ok is false when contended.
func (s *Signal) TryGet() (value, ok bool) {
	if !s.mu.TryLock() {
		return false, false
	}
	v := s.v
	s.mu.Unlock()
	return v, true
}
