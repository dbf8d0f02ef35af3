// Package session holds who is signed in on this client. Components get a
// *Session passed in instead of reading shared flags.
package session

import (
	"errors"
	"fmt"

	"github.com/hackgods/healsync/internal/localstore"
)

type UserType string

const (
	UserPatient UserType = "patient"
	UserDoctor  UserType = "doctor"
	UserAdmin   UserType = "admin"
)

var (
	ErrNoSession       = errors.New("no active session")
	ErrInvalidUserType = errors.New("user type must be patient, doctor or admin")
	ErrMissingUserID   = errors.New("user id is required")
)

type Session struct {
	UserID   string   `json:"userId"`
	UserType UserType `json:"userType"`
	Name     string   `json:"name,omitempty"`
}

func ParseUserType(s string) (UserType, error) {
	switch t := UserType(s); t {
	case UserPatient, UserDoctor, UserAdmin:
		return t, nil
	}
	return "", ErrInvalidUserType
}

func (s *Session) Validate() error {
	if s.UserID == "" {
		return ErrMissingUserID
	}
	if _, err := ParseUserType(string(s.UserType)); err != nil {
		return err
	}
	return nil
}

func (s *Session) IsPatient() bool {
	return s != nil && s.UserType == UserPatient && s.UserID != ""
}

// ProfilePath is where the user lands after booking.
func (s *Session) ProfilePath() string {
	if s == nil {
		return "/login"
	}
	switch s.UserType {
	case UserDoctor:
		return "/doctor/dashboard"
	case UserAdmin:
		return "/admin/dashboard"
	default:
		return "/patient/profile"
	}
}

// Load reads the session saved in the store.
func Load(store *localstore.Store) (*Session, error) {
	var s Session
	ok, err := store.Get(localstore.KeySession, &s)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return nil, ErrNoSession
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("stored session: %w", err)
	}
	return &s, nil
}

func Save(store *localstore.Store, s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return store.Set(localstore.KeySession, s)
}

func Clear(store *localstore.Store) error {
	return store.Delete(localstore.KeySession)
}
