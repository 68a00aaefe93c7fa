package localstore

import (
	"context"
	"errors"

	"studygram/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStore provides cache access for user records.
type UserStore struct {
	db       *gorm.DB
	notifier *notifier
}

// NewUserStore creates a user store bound to the given cache handle.
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db, notifier: newNotifier()}
}

// Upsert inserts or replaces a user row by id.
func (s *UserStore) Upsert(ctx context.Context, user *models.User) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(user).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// GetByID returns the cached user or gorm.ErrRecordNotFound.
func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteAll purges the user table. Sign-out keeps posts and comments as
// offline-readable cache but never keeps account records.
func (s *UserStore) DeleteAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).Where("1 = 1").Delete(&models.User{}).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// Observe returns a live sequence of the user row for id; a nil element
// means the row is absent.
func (s *UserStore) Observe(ctx context.Context, id string) <-chan *models.User {
	out := make(chan *models.User, 1)
	signal, unsubscribe := s.notifier.subscribe()

	go func() {
		defer unsubscribe()
		defer close(out)

		emit := func() {
			user, err := s.GetByID(ctx, id)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return
			}
			select {
			case out <- user:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- user:
				default:
				}
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-signal:
				emit()
			}
		}
	}()

	return out
}
