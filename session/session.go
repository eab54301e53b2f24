// Package session keeps the credentials of the command line client. A
// Session is created once, initialised from its Store and then passed to
// whatever needs the token; nothing reads it from a global.
package session

import (
	"sync"
)

// User is the signed-in account as cached on disk.
type User struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// State is the persisted form of a session.
type State struct {
	APIURL string `yaml:"api_url,omitempty"`
	Token  string `yaml:"token,omitempty"`
	User   *User  `yaml:"user,omitempty"`
}

// Store loads and saves session state.
type Store interface {
	Load() (State, error)
	Save(State) error
}

// Session is safe for concurrent use.
type Session struct {
	store Store

	mu    sync.RWMutex
	state State
}

// New returns an empty session backed by store. store may be nil for a
// session that lives only in memory.
func New(store Store) *Session {
	return &Session{store: store}
}

// Init replaces the in-memory state with the stored one.
func (s *Session) Init() error {
	if s.store == nil {
		return nil
	}
	st, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// User returns the signed-in user.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return User{}, false
	}
	return *s.state.User, true
}

// APIURL returns the remembered backend address.
func (s *Session) APIURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.APIURL
}

// SetAPIURL remembers the backend address.
func (s *Session) SetAPIURL(url string) error {
	return s.update(func(st *State) { st.APIURL = url })
}

// Set stores a fresh token and its user.
func (s *Session) Set(token string, u User) error {
	return s.update(func(st *State) {
		st.Token = token
		st.User = &u
	})
}

// Clear signs the user out. The API address is kept.
func (s *Session) Clear() error {
	return s.update(func(st *State) {
		st.Token = ""
		st.User = nil
	})
}

func (s *Session) update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state
	fn(&next)
	if s.store != nil {
		if err := s.store.Save(next); err != nil {
			return err
		}
	}
	s.state = next
	return nil
}
