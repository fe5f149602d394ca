package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/pol60/bastshin-sessions/internal/database"
	"github.com/pol60/bastshin-sessions/internal/guestid"
	"github.com/pol60/bastshin-sessions/internal/metrics"
	"github.com/pol60/bastshin-sessions/internal/model"
	"github.com/pol60/bastshin-sessions/internal/repository"
)

type MigrationOutcome string

const (
	// MigrationMigrated: the guest's rows now belong to the user.
	MigrationMigrated MigrationOutcome = "migrated"
	// MigrationDuplicate: this guest id was already migrated to the same
	// user; nothing left to move.
	MigrationDuplicate MigrationOutcome = "duplicate"
	// MigrationConflict: the guest id was already claimed by a different
	// user. Logged, never surfaced to the shopper.
	MigrationConflict MigrationOutcome = "conflict"
	// MigrationSkipped: the guest id failed validation; no call was made.
	MigrationSkipped MigrationOutcome = "skipped"
	// MigrationError: a transient failure; safe to retry with the same
	// guest id.
	MigrationError MigrationOutcome = "error"
)

// txRunner runs a function inside a database transaction. Satisfied by
// *database.DB.
type txRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

// MigrationService reassigns guest-owned rows to an authenticated identity,
// effectively once per guest id. The migration_log claim makes retries and
// concurrent logins (two tabs, one guest id) collapse to a single winner;
// everyone else sees a duplicate and proceeds as if they had won.
type MigrationService struct {
	db            txRunner
	sessionRepo   repository.SessionRepository
	favoriteRepo  repository.FavoriteRepository
	migrationRepo repository.MigrationLogRepository
}

func NewMigrationService(
	db txRunner,
	sessionRepo repository.SessionRepository,
	favoriteRepo repository.FavoriteRepository,
	migrationRepo repository.MigrationLogRepository,
) *MigrationService {
	return &MigrationService{
		db:            db,
		sessionRepo:   sessionRepo,
		favoriteRepo:  favoriteRepo,
		migrationRepo: migrationRepo,
	}
}

// Migrate moves every row owned by guestID to userID and returns the
// resulting session row. The whole reassignment commits or rolls back as one
// transaction; the log insert is last so a lost race rolls the local work
// back cleanly.
func (m *MigrationService) Migrate(ctx context.Context, guestID, userID string) (*model.Session, MigrationOutcome, error) {
	if !guestid.Valid(guestID) {
		metrics.Migrations.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return nil, MigrationSkipped, nil
	}

	var session *model.Session

	err := m.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		sessions := m.sessionRepo.WithTx(tx)
		favorites := m.favoriteRepo.WithTx(tx)
		migrations := m.migrationRepo.WithTx(tx)

		guestSession, err := sessions.FindByOwner(ctx, model.GuestOwner(guestID))
		if err != nil {
			return err
		}

		userSession, err := sessions.FindByOwner(ctx, model.UserOwner(userID))
		if err != nil {
			return err
		}

		switch {
		case userSession != nil:
			// User already has a current row; the guest row is redundant.
			if guestSession != nil {
				if _, err := sessions.Delete(ctx, guestSession.ID); err != nil {
					return err
				}
			}
			session = userSession
		case guestSession != nil:
			session, err = sessions.ReplaceOwner(ctx, guestSession.ID, model.UserOwner(userID))
			if err != nil {
				return err
			}
		default:
			session, err = sessions.Upsert(ctx, model.UpsertSessionParams{
				Owner: model.UserOwner(userID),
			})
			if err != nil {
				return err
			}
		}

		moved, err := favorites.ReassignOwner(ctx, guestID, userID)
		if err != nil {
			return err
		}
		if moved > 0 {
			log.Info().
				Str("guestId", guestID).
				Str("userId", userID).
				Int64("favorites", moved).
				Msg("guest favorites reassigned")
		}

		return migrations.Record(ctx, guestID, userID, session.ID)
	})

	if err == nil {
		metrics.Migrations.WithLabelValues(metrics.OutcomeMigrated).Inc()
		log.Info().
			Str("guestId", guestID).
			Str("userId", userID).
			Str("sessionId", session.ID).
			Msg("guest migrated")
		return session, MigrationMigrated, nil
	}

	if repository.IsUniqueViolation(err) {
		return m.resolveDuplicate(ctx, guestID, userID)
	}

	metrics.Migrations.WithLabelValues(metrics.OutcomeError).Inc()
	return nil, MigrationError, err
}

// resolveDuplicate decides whether a lost claim race is benign. The log row
// tells us who actually got the guest's data; a different user is recorded
// as a conflict instead of being silently absorbed.
func (m *MigrationService) resolveDuplicate(ctx context.Context, guestID, userID string) (*model.Session, MigrationOutcome, error) {
	entry, err := m.migrationRepo.FindByGuestID(ctx, guestID)
	if err != nil {
		metrics.Migrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, MigrationError, err
	}

	if entry != nil && entry.UserID != userID {
		metrics.Migrations.WithLabelValues(metrics.OutcomeConflict).Inc()
		return nil, MigrationConflict, nil
	}

	metrics.Migrations.WithLabelValues(metrics.OutcomeDuplicate).Inc()

	session, err := m.sessionRepo.FindByOwner(ctx, model.UserOwner(userID))
	if err != nil {
		// The duplicate itself is benign; a failed lookup only means the
		// caller falls back to its own upsert.
		log.Debug().Err(err).Str("userId", userID).Msg("post-duplicate session lookup failed")
		return nil, MigrationDuplicate, nil
	}
	return session, MigrationDuplicate, nil
}
