package transmission

import (
	"net/http"
	"regexp"
	"sync"
)

const csrfHeader = "X-Transmission-Session-Id"

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9]+`)

// Session holds the CSRF session id negotiated with the daemon. It only ever
// moves from empty to set; a daemon that rejects the held id is an error,
// not a reason to negotiate again.
type Session struct {
	mu    sync.Mutex
	token string
}

// Token returns the held session id, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// CaptureFromChallenge stores the session id carried by a 409 response.
func (s *Session) CaptureFromChallenge(h http.Header) (string, error) {
	token := tokenPattern.FindString(h.Get(csrfHeader))
	if token == "" {
		return "", ErrTokenMissing
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, nil
}
