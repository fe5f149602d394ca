package model

import (
	"time"
)

type Session struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"userId,omitempty"`
	GuestID      *string   `db:"guest_id" json:"guestId,omitempty"`
	SessionStart time.Time `db:"session_start" json:"sessionStart"`
	LastActivity time.Time `db:"last_activity" json:"lastActivity"`
	IsOnline     bool      `db:"is_online" json:"isOnline"`
	Device       *string   `db:"device" json:"device,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ipAddress,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Owner folds the nullable column pair into the tagged variant. A row that
// violates the one-owner invariant yields a zero owner, which callers treat
// as malformed.
func (s *Session) Owner() SessionOwner {
	switch {
	case s.UserID != nil && s.GuestID == nil:
		return UserOwner(*s.UserID)
	case s.GuestID != nil && s.UserID == nil:
		return GuestOwner(*s.GuestID)
	}
	return SessionOwner{}
}

type UpsertSessionParams struct {
	Owner     SessionOwner
	Device    *string
	IPAddress *string
}

// SessionStats is the live counters block on the admin dashboard.
type SessionStats struct {
	Total      int `db:"total" json:"total"`
	Active     int `db:"active" json:"active"`
	Guest      int `db:"guest" json:"guest"`
	Registered int `db:"registered" json:"registered"`
}

// SessionSortKey names the columns the admin session list may order by.
type SessionSortKey string

const (
	SessionSortLastActivity SessionSortKey = "last_activity"
	SessionSortStart        SessionSortKey = "session_start"
	SessionSortOnline       SessionSortKey = "is_online"
	SessionSortID           SessionSortKey = "id"
)

func (k SessionSortKey) Valid() bool {
	switch k {
	case SessionSortLastActivity, SessionSortStart, SessionSortOnline, SessionSortID:
		return true
	}
	return false
}
