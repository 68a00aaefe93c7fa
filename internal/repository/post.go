// Package repository implements the sync coordinators: one per entity
// family, each the single authority for keeping that entity consistent
// between the local cache and the remote document store.
//
// The policy throughout: the cache is written first and is what the UI
// reads; the remote store is written when the network monitor reports
// online; a failed remote write never silently diverges the two without
// either a rollback (likes) or a surfaced error (create/update/delete).
package repository

import (
	"context"
	"errors"

	"studygram/internal/localstore"
	"studygram/internal/models"
	"studygram/internal/netmon"
	"studygram/internal/observability"
	"studygram/internal/prefs"
	"studygram/internal/remote"

	"gorm.io/gorm"
)

// PostRepository defines the sync-coordinating interface for posts.
type PostRepository interface {
	ObserveAll(ctx context.Context) <-chan []*models.Post
	ObserveByUser(ctx context.Context, userID string) <-chan []*models.Post
	ObserveByCourse(ctx context.Context, courseTag string) <-chan []*models.Post
	GetByID(ctx context.Context, id string) (*models.Post, error)
	CourseTags(ctx context.Context) ([]string, error)

	CreateLocalOnly(ctx context.Context, post *models.Post) (*models.Post, error)
	SyncPostToRemote(ctx context.Context, post *models.Post) error
	CreatePost(ctx context.Context, post *models.Post) error
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, postID, userID string) error

	SyncPosts(ctx context.Context) error
	RefreshPosts(ctx context.Context) error
}

// postRepository implements PostRepository
type postRepository struct {
	posts  *localstore.PostStore
	remote remote.Client
	net    netmon.Monitor
	prefs  *prefs.Store
	logger *observability.RepoLogger
}

// NewPostRepository creates a new post sync coordinator.
func NewPostRepository(posts *localstore.PostStore, rc remote.Client, net netmon.Monitor, pf *prefs.Store) PostRepository {
	return &postRepository{
		posts:  posts,
		remote: rc,
		net:    net,
		prefs:  pf,
		logger: observability.NewRepoLogger("posts"),
	}
}

// ObserveAll streams the cached post list; it never touches the network.
func (r *postRepository) ObserveAll(ctx context.Context) <-chan []*models.Post {
	return r.posts.ObserveAll(ctx)
}

func (r *postRepository) ObserveByUser(ctx context.Context, userID string) <-chan []*models.Post {
	return r.posts.ObserveByUser(ctx, userID)
}

func (r *postRepository) ObserveByCourse(ctx context.Context, courseTag string) <-chan []*models.Post {
	return r.posts.ObserveByCourse(ctx, courseTag)
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := r.posts.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("post", id)
	}
	if err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	return post, nil
}

func (r *postRepository) CourseTags(ctx context.Context) ([]string, error) {
	return r.posts.CourseTags(ctx)
}

// CreateLocalOnly is the fast path the UI waits on: stamp an id if the
// post has none (a pure remote-side allocation, no document write) and
// upsert into the cache. The remote push happens later, detached.
func (r *postRepository) CreateLocalOnly(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post.ID == "" {
		post.ID = r.remote.GeneratePostID()
	}
	now := models.NowMillis()
	if post.Timestamp == 0 {
		post.Timestamp = now
	}
	if post.LastUpdated == 0 {
		post.LastUpdated = now
	}
	if err := r.posts.Upsert(ctx, post); err != nil {
		r.logger.LogError(ctx, err, "create_local_only")
		return nil, models.NewRemoteOperationFailedError(err)
	}
	r.logger.LogOp(ctx, "create_local_only", map[string]interface{}{"post_id": post.ID})
	return post, nil
}

// SyncPostToRemote pushes the full document. It fails fast when offline
// and never mutates the cache.
func (r *postRepository) SyncPostToRemote(ctx context.Context, post *models.Post) error {
	if !r.net.IsAvailable() {
		return models.NewNetworkUnavailableError(nil)
	}
	if err := r.remote.SavePost(ctx, post); err != nil {
		observability.RemotePushesTotal.WithLabelValues("posts", observability.ResultError).Inc()
		return err
	}
	observability.RemotePushesTotal.WithLabelValues("posts", observability.ResultOK).Inc()
	return nil
}

// CreatePost inserts locally, then pushes remotely when online. A failed
// remote push surfaces as an error even though the local copy persists;
// there is no automatic requeue, the caller decides whether to retry.
func (r *postRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if _, err := r.CreateLocalOnly(ctx, post); err != nil {
		return err
	}
	if !r.net.IsAvailable() {
		// Offline: post saved locally, will sync on a later pull/push.
		return nil
	}
	return r.SyncPostToRemote(ctx, post)
}

// UpdatePost upserts locally with an advanced mutation cursor, then issues
// a partial remote update for the mutable fields when online. An offline
// update is not queued: the next incremental pull can overwrite it with
// the older remote version.
func (r *postRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.LastUpdated = models.NowMillis()
	if err := r.posts.Upsert(ctx, post); err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewRemoteOperationFailedError(err)
	}
	if !r.net.IsAvailable() {
		return nil
	}
	fields := map[string]interface{}{
		"title":           post.Title,
		"content":         post.Content,
		"courseTag":       post.CourseTag,
		"difficultyLevel": post.DifficultyLevel,
		"imageUrl":        post.ImageURL,
	}
	if err := r.remote.UpdatePost(ctx, post.ID, fields); err != nil {
		observability.RemotePushesTotal.WithLabelValues("posts", observability.ResultError).Inc()
		return err
	}
	observability.RemotePushesTotal.WithLabelValues("posts", observability.ResultOK).Inc()
	return nil
}

// DeletePost is online-only: without an outbox there is no safe way to
// delete-then-reconcile later, so the remote delete must be acknowledged
// before the cache row is removed.
func (r *postRepository) DeletePost(ctx context.Context, id string) error {
	if !r.net.IsAvailable() {
		return models.NewOfflineDeleteRejectedError("posts")
	}
	if err := r.remote.DeletePost(ctx, id); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return err
	}
	if err := r.posts.Delete(ctx, id); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}
	r.logger.LogOp(ctx, "delete", map[string]interface{}{"post_id": id})
	return nil
}

// LikePost toggles userID's like on the post. The new state is applied to
// the cache immediately so the UI reflects it with no perceptible delay;
// if the matching remote write fails the cache row is rolled back to the
// pre-toggle snapshot. When offline the optimistic state stands until the
// next successful sync.
//
// Note: nothing serializes two concurrent toggles on the same post id;
// the read-modify-write here can lose an update under that race.
func (r *postRepository) LikePost(ctx context.Context, postID, userID string) error {
	post, err := r.posts.GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("post", postID)
	}
	if err != nil {
		return models.NewRemoteOperationFailedError(err)
	}

	snapshot := *post
	liked := post.IsLikedBy(userID)

	updated := *post
	updated.LastUpdated = models.NowMillis()
	if liked {
		kept := make([]string, 0, len(post.LikedByList()))
		for _, id := range post.LikedByList() {
			if id != userID {
				kept = append(kept, id)
			}
		}
		updated.SetLikedByList(kept)
		updated.Likes = post.Likes - 1
	} else {
		updated.SetLikedByList(append(post.LikedByList(), userID))
		updated.Likes = post.Likes + 1
	}

	if err := r.posts.Upsert(ctx, &updated); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}

	if !r.net.IsAvailable() {
		// Optimistic state stands uncorrected until the next sync.
		return nil
	}

	var remoteErr error
	if liked {
		remoteErr = r.remote.UnlikePost(ctx, postID, userID)
	} else {
		remoteErr = r.remote.LikePost(ctx, postID, userID)
	}
	if remoteErr != nil {
		// Revert the cache row to its pre-toggle state.
		if rbErr := r.posts.Upsert(ctx, &snapshot); rbErr != nil {
			r.logger.LogError(ctx, rbErr, "like_rollback")
		}
		observability.OptimisticRollbacksTotal.WithLabelValues("posts").Inc()
		return remoteErr
	}
	return nil
}

// SyncPosts performs the incremental pull: cursor zero means full fetch,
// otherwise only documents with lastUpdated beyond the cursor. Pulled rows
// unconditionally replace cache rows with the same id (last-writer-wins),
// including un-synced offline edits.
func (r *postRepository) SyncPosts(ctx context.Context) error {
	if !r.net.IsAvailable() {
		observability.SyncPullsTotal.WithLabelValues("posts", "incremental", observability.ResultError).Inc()
		return models.NewNetworkUnavailableError(nil)
	}

	cursor := r.prefs.LastSyncTimestamp()
	var (
		pulled []*models.Post
		err    error
	)
	if cursor == 0 {
		pulled, err = r.remote.AllPosts(ctx)
	} else {
		pulled, err = r.remote.PostsUpdatedAfter(ctx, cursor)
	}
	if err != nil {
		observability.SyncPullsTotal.WithLabelValues("posts", "incremental", observability.ResultError).Inc()
		return err
	}

	if len(pulled) > 0 {
		if err := r.posts.UpsertAll(ctx, pulled); err != nil {
			observability.SyncPullsTotal.WithLabelValues("posts", "incremental", observability.ResultError).Inc()
			return models.NewRemoteOperationFailedError(err)
		}
		if err := r.advanceCursor(pulled); err != nil {
			return models.NewRemoteOperationFailedError(err)
		}
	}

	observability.SyncPullsTotal.WithLabelValues("posts", "incremental", observability.ResultOK).Inc()
	r.logger.LogOp(ctx, "sync", map[string]interface{}{"pulled": len(pulled), "cursor": cursor})
	return nil
}

// RefreshPosts is the manual pull-to-refresh: fetch everything, replace
// the whole post table, reset the cursor to the newest lastUpdated seen.
func (r *postRepository) RefreshPosts(ctx context.Context) error {
	if !r.net.IsAvailable() {
		observability.SyncPullsTotal.WithLabelValues("posts", "full", observability.ResultError).Inc()
		return models.NewNetworkUnavailableError(nil)
	}

	pulled, err := r.remote.AllPosts(ctx)
	if err != nil {
		observability.SyncPullsTotal.WithLabelValues("posts", "full", observability.ResultError).Inc()
		r.logger.LogError(ctx, err, "refresh")
		return err
	}

	if err := r.posts.ReplaceAll(ctx, pulled); err != nil {
		observability.SyncPullsTotal.WithLabelValues("posts", "full", observability.ResultError).Inc()
		return models.NewRemoteOperationFailedError(err)
	}
	if len(pulled) > 0 {
		if err := r.advanceCursor(pulled); err != nil {
			return models.NewRemoteOperationFailedError(err)
		}
	}

	observability.SyncPullsTotal.WithLabelValues("posts", "full", observability.ResultOK).Inc()
	return nil
}

func (r *postRepository) advanceCursor(pulled []*models.Post) error {
	max := int64(0)
	for _, p := range pulled {
		if p.LastUpdated > max {
			max = p.LastUpdated
		}
	}
	if max == 0 {
		max = models.NowMillis()
	}
	if err := r.prefs.SetLastSyncTimestamp(max); err != nil {
		return err
	}
	observability.SyncCursorTimestamp.Set(float64(max))
	return nil
}
