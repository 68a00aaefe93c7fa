package localstore

import (
	"context"

	"studygram/internal/models"
	"studygram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentStore provides cache access for comments. Comments are
// append/delete only; there is no update path.
type CommentStore struct {
	db       *gorm.DB
	notifier *notifier
}

// NewCommentStore creates a comment store bound to the given cache handle.
func NewCommentStore(db *gorm.DB) *CommentStore {
	return &CommentStore{db: db, notifier: newNotifier()}
}

// Insert adds a comment row, replacing any stale row with the same id.
func (s *CommentStore) Insert(ctx context.Context, comment *models.Comment) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(comment).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// GetByID returns the cached comment or gorm.ErrRecordNotFound.
func (s *CommentStore) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ByPost returns the cached comments under postID, newest first.
func (s *CommentStore) ByPost(ctx context.Context, postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("timestamp DESC").
		Find(&comments).Error
	return comments, err
}

// Delete removes the comment row by id.
func (s *CommentStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Delete(&models.Comment{}, "id = ?", id).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// ReplaceForPost swaps postID's comment subtree for the given set in one
// transaction (replace-all pull).
func (s *CommentStore) ReplaceForPost(ctx context.Context, postID string, comments []*models.Comment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if len(comments) == 0 {
			return nil
		}
		return tx.Create(comments).Error
	})
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// ObserveByPost returns a live sequence of postID's comments until ctx is
// cancelled.
func (s *CommentStore) ObserveByPost(ctx context.Context, postID string) <-chan []*models.Comment {
	out := make(chan []*models.Comment, 1)
	signal, unsubscribe := s.notifier.subscribe()

	go func() {
		defer unsubscribe()
		defer close(out)

		emit := func() {
			comments, err := s.ByPost(ctx, postID)
			if err != nil {
				if ctx.Err() == nil {
					observability.GlobalLogger.Error("live query failed", "error", err)
				}
				return
			}
			select {
			case out <- comments:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- comments:
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
