// Package session keeps the single logged-in session marker. There is no
// validation, refresh or expiry: a session lasts until Logout or restart.
package session

import (
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrAuthNotConfigured means no credentials were configured, so nobody can log in.
	ErrAuthNotConfigured = errors.New("login is not configured")
	// ErrInvalidCredentials means the email or password did not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Session is the stored marker.
type Session struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

// Authenticator checks credentials against the configured pair.
type Authenticator struct {
	email    string
	password string
	name     string
}

// NewAuthenticator creates an Authenticator. Empty email or password leaves
// login disabled.
func NewAuthenticator(email, password, name string) *Authenticator {
	return &Authenticator{email: email, password: password, name: name}
}

// Configured reports whether credentials are present.
func (a *Authenticator) Configured() bool {
	return a.email != "" && a.password != ""
}

// Check returns the display name for matching credentials.
func (a *Authenticator) Check(email, password string) (string, error) {
	if !a.Configured() {
		return "", ErrAuthNotConfigured
	}
	emailOK := subtle.ConstantTimeCompare([]byte(strings.ToLower(strings.TrimSpace(email))), []byte(strings.ToLower(a.email)))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password))
	if emailOK&passOK != 1 {
		return "", ErrInvalidCredentials
	}
	return a.name, nil
}

// Store holds at most one session.
type Store struct {
	auth    *Authenticator
	mu      sync.RWMutex
	current *Session
}

func NewStore(auth *Authenticator) *Store {
	return &Store{auth: auth}
}

// Login checks the credentials and replaces the stored session.
func (s *Store) Login(email, password string) (Session, error) {
	name, err := s.auth.Check(email, password)
	if err != nil {
		return Session{}, err
	}
	sess := Session{Name: name, Email: strings.ToLower(strings.TrimSpace(email)), Token: uuid.NewString()}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	return sess, nil
}

// Logout clears the stored session.
func (s *Store) Logout() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Current returns the stored session, if any.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

// Valid reports whether token matches the stored session.
func (s *Store) Valid(token string) bool {
	cur, ok := s.Current()
	if !ok || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(cur.Token)) == 1
}

// Enabled reports whether the gate should be enforced.
func (s *Store) Enabled() bool {
	return s.auth.Configured()
}
