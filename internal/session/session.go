// Package session carries the per-browser state that every component needs,
// built once by the identity middleware and passed explicitly.
package session

import "fmt"

// Session is the active anonymous user for one browser.
type Session struct {
	UserID string
	// IsNew is true on the request that created the identity cookie
	IsNew bool
}

func New(userID string, isNew bool) *Session {
	return &Session{UserID: userID, IsNew: isNew}
}

// ProfileKey is the persistence key of the user's profile.
func (s *Session) ProfileKey() string {
	return ProfileKey(s.UserID)
}

// RDAKey is the persistence key of the user's cached RDA values.
func (s *Session) RDAKey() string {
	return RDAKey(s.UserID)
}

func ProfileKey(userID string) string {
	return fmt.Sprintf("profile_%s", userID)
}

func RDAKey(userID string) string {
	return fmt.Sprintf("rda_values_%s", userID)
}
