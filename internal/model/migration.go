package model

import (
	"time"
)

// MigrationLog records which user a guest identifier was migrated to. The
// unique key on guest_id makes migration effectively-once: a retry hits the
// log instead of re-running the reassignment.
type MigrationLog struct {
	GuestID    string    `db:"guest_id" json:"guestId"`
	UserID     string    `db:"user_id" json:"userId"`
	SessionID  string    `db:"session_id" json:"sessionId"`
	MigratedAt time.Time `db:"migrated_at" json:"migratedAt"`
}
