package localstore

import (
	"context"

	"studygram/internal/models"
	"studygram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostStore provides cache access for posts, including live queries that
// re-deliver results after every committed write.
type PostStore struct {
	db       *gorm.DB
	notifier *notifier
}

// NewPostStore creates a post store bound to the given cache handle.
func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db, notifier: newNotifier()}
}

// Upsert inserts or replaces a post row by id.
func (s *PostStore) Upsert(ctx context.Context, post *models.Post) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(post).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// UpsertAll inserts or replaces a batch of post rows by id.
func (s *PostStore) UpsertAll(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(posts).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// GetByID returns the cached post or gorm.ErrRecordNotFound.
func (s *PostStore) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// All returns every cached post ordered by creation time, newest first.
func (s *PostStore) All(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.WithContext(ctx).
		Order("timestamp DESC").
		Find(&posts).Error
	return posts, err
}

// ByUser returns the cached posts owned by userID, newest first.
func (s *PostStore) ByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Find(&posts).Error
	return posts, err
}

// ByCourse returns the cached posts tagged with courseTag, newest first.
func (s *PostStore) ByCourse(ctx context.Context, courseTag string) ([]*models.Post, error) {
	var posts []*models.Post
	err := s.db.WithContext(ctx).
		Where("course_tag = ?", courseTag).
		Order("timestamp DESC").
		Find(&posts).Error
	return posts, err
}

// CourseTags returns the distinct course tags present in the cache.
func (s *PostStore) CourseTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Distinct("course_tag").
		Where("course_tag <> ''").
		Order("course_tag").
		Pluck("course_tag", &tags).Error
	return tags, err
}

// Delete removes the post row by id.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id).Error
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// ReplaceAll swaps the entire post table for the given set in one
// transaction (full resync).
func (s *PostStore) ReplaceAll(ctx context.Context, posts []*models.Post) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if len(posts) == 0 {
			return nil
		}
		return tx.Create(posts).Error
	})
	if err == nil {
		s.notifier.broadcast()
	}
	return err
}

// ObserveAll returns a live sequence of the full post list. The initial
// result is delivered immediately; subsequent results follow every cache
// write until ctx is cancelled. Slow consumers only ever see the latest
// snapshot.
func (s *PostStore) ObserveAll(ctx context.Context) <-chan []*models.Post {
	return s.observe(ctx, s.All)
}

// ObserveByUser returns a live sequence of userID's posts.
func (s *PostStore) ObserveByUser(ctx context.Context, userID string) <-chan []*models.Post {
	return s.observe(ctx, func(ctx context.Context) ([]*models.Post, error) {
		return s.ByUser(ctx, userID)
	})
}

// ObserveByCourse returns a live sequence of posts tagged courseTag.
func (s *PostStore) ObserveByCourse(ctx context.Context, courseTag string) <-chan []*models.Post {
	return s.observe(ctx, func(ctx context.Context) ([]*models.Post, error) {
		return s.ByCourse(ctx, courseTag)
	})
}

func (s *PostStore) observe(ctx context.Context, fetch func(context.Context) ([]*models.Post, error)) <-chan []*models.Post {
	out := make(chan []*models.Post, 1)
	signal, unsubscribe := s.notifier.subscribe()

	go func() {
		defer unsubscribe()
		defer close(out)

		emit := func() {
			posts, err := fetch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					observability.GlobalLogger.Error("live query failed", "error", err)
				}
				return
			}
			// keep only the latest snapshot for slow consumers
			select {
			case out <- posts:
			default:
				select {
				case <-out:
				default:
				}
				select {
				case out <- posts:
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
