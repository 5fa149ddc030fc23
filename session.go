package pihole6api

import "sync"

// sessionState holds the single session issued by the server for this
// client instance. It cycles between three conditions for the client's
// whole lifetime: no session yet, an active sid/csrf pair, and
// invalidated (after a 401 or an explicit logout), which looks identical
// to "no session" to the next caller.
//
// Reads take the read lock so ordinary requests never serialize against
// each other, only against a concurrent store or invalidate.
type sessionState struct {
	mu       sync.RWMutex
	sid      string
	csrf     string
	validity int
}

// current returns the active sid/csrf pair. ok is false when no session
// is held and the caller must authenticate first.
func (s *sessionState) current() (sid, csrf string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sid, s.csrf, s.sid != ""
}

// store replaces the session after a successful login exchange.
func (s *sessionState) store(sid, csrf string, validity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sid = sid
	s.csrf = csrf
	s.validity = validity
}

// invalidate clears the session, but only if it still holds staleSID.
// A concurrent re-authentication may already have replaced the token a
// failing request was using; that replacement must not be discarded.
// Pass the empty string to clear unconditionally.
func (s *sessionState) invalidate(staleSID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if staleSID != "" && s.sid != staleSID {
		return
	}
	s.sid = ""
	s.csrf = ""
	s.validity = 0
}
