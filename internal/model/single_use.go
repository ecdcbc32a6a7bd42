package model

import (
	"crypto/subtle"
	"time"
)

// SingleUseToken is a verification or reset credential embedded on the user row.
// A zero value means no token is outstanding.
type SingleUseToken struct {
	Value     string
	ExpiresAt time.Time
}

// IsZero reports whether no token is set.
func (t SingleUseToken) IsZero() bool {
	return t.Value == ""
}

// Matches reports whether presented equals the stored value and the token is
// unexpired at now. Both conditions are evaluated together.
func (t SingleUseToken) Matches(presented string, now time.Time) bool {
	if t.IsZero() || presented == "" {
		return false
	}
	equal := subtle.ConstantTimeCompare([]byte(t.Value), []byte(presented)) == 1
	return equal && now.Before(t.ExpiresAt)
}

// Consume returns the cleared token and true when presented matches at now.
// On mismatch the token is returned unchanged with false.
func (t SingleUseToken) Consume(presented string, now time.Time) (SingleUseToken, bool) {
	if !t.Matches(presented, now) {
		return t, false
	}
	return SingleUseToken{}, true
}
