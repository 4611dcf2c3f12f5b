package postgres

import (
	"context"
	"errors"
	"luckyEnvelope/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository struct {
	DB *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{
		DB: db,
	}
}

func (r *SessionRepository) FindByKey(ctx context.Context, key string) (domain.Session, error) {
	var session domain.Session

	err := r.DB.WithContext(ctx).Where("session_key = ?", key).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}

	return session, nil
}

// Create inserts a new session row. Two concurrent first-views of the same
// identity may both get here; the unique key plus DO NOTHING makes the
// duplicate insert a non-fatal miss the caller resolves by re-reading.
func (r *SessionRepository) Create(ctx context.Context, session *domain.Session) (bool, error) {
	result := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_key"}},
		DoNothing: true,
	}).Create(session)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// CommitPick appends the visit row and flips the session to picked in one
// transaction. The has_picked = false predicate is the serializability guard:
// of two near-simultaneous picks exactly one update matches, and the loser's
// visit row is rolled back with domain.ErrAlreadyPicked.
func (r *SessionRepository) CommitPick(ctx context.Context, key string, amount int64, name string, visit *domain.Visit) (int64, error) {
	var affected int64

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(visit).Error; err != nil {
			return err
		}

		result := tx.Model(&domain.Session{}).
			Where("session_key = ? AND has_picked = ?", key, false).
			Updates(map[string]interface{}{
				"has_picked":    true,
				"picked_amount": amount,
				"name":          name,
			})
		if result.Error != nil {
			return result.Error
		}

		affected = result.RowsAffected
		if affected == 0 {
			var existing domain.Session
			err := tx.Where("session_key = ?", key).First(&existing).Error
			if err == nil && existing.HasPicked {
				return domain.ErrAlreadyPicked
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			// No session row at all: keep the visit, nothing to flip.
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}
