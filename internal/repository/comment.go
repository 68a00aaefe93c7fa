package repository

import (
	"context"
	"errors"

	"studygram/internal/localstore"
	"studygram/internal/models"
	"studygram/internal/netmon"
	"studygram/internal/observability"
	"studygram/internal/remote"

	"gorm.io/gorm"
)

// CommentRepository coordinates comments between the cache and the remote
// store. Comments are remote-first: the remote write must succeed before
// the cache changes, so a failed remote write leaves the cache untouched.
type CommentRepository interface {
	ObserveByPost(ctx context.Context, postID string) <-chan []*models.Comment
	AddComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, postID, commentID string) error
	SyncComments(ctx context.Context, postID string) error
}

type commentRepository struct {
	comments *localstore.CommentStore
	posts    *localstore.PostStore
	remote   remote.Client
	net      netmon.Monitor
	logger   *observability.RepoLogger
}

// NewCommentRepository creates a new comment sync coordinator.
func NewCommentRepository(comments *localstore.CommentStore, posts *localstore.PostStore, rc remote.Client, net netmon.Monitor) CommentRepository {
	return &commentRepository{
		comments: comments,
		posts:    posts,
		remote:   rc,
		net:      net,
		logger:   observability.NewRepoLogger("comments"),
	}
}

func (r *commentRepository) ObserveByPost(ctx context.Context, postID string) <-chan []*models.Comment {
	return r.comments.ObserveByPost(ctx, postID)
}

// AddComment validates, writes the comment remotely (which also bumps the
// parent's commentsCount server-side), and only then mirrors the comment
// and the bumped count into the cache.
func (r *commentRepository) AddComment(ctx context.Context, comment *models.Comment) error {
	if comment.PostID == "" {
		return models.NewValidationError("postId", "must not be empty")
	}
	if comment.Content == "" {
		return models.NewValidationError("content", "must not be empty")
	}
	if !r.net.IsAvailable() {
		return models.NewNetworkUnavailableError(nil)
	}

	if comment.ID == "" {
		comment.ID = r.remote.GenerateCommentID()
	}
	if comment.Timestamp == 0 {
		comment.Timestamp = models.NowMillis()
	}

	if err := r.remote.SaveComment(ctx, comment); err != nil {
		observability.RemotePushesTotal.WithLabelValues("comments", observability.ResultError).Inc()
		r.logger.LogError(ctx, err, "add")
		return err
	}
	observability.RemotePushesTotal.WithLabelValues("comments", observability.ResultOK).Inc()

	if err := r.comments.Insert(ctx, comment); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}
	if err := r.bumpParentCount(ctx, comment.PostID, 1); err != nil {
		// The remote write already landed; the count will self-correct on
		// the next pull of the parent post.
		r.logger.LogSwallowed(ctx, err, "add_count")
	}
	r.logger.LogOp(ctx, "add", map[string]interface{}{"post_id": comment.PostID, "comment_id": comment.ID})
	return nil
}

// DeleteComment is online-only and remote-first, mirroring AddComment.
func (r *commentRepository) DeleteComment(ctx context.Context, postID, commentID string) error {
	if !r.net.IsAvailable() {
		return models.NewOfflineDeleteRejectedError("comments")
	}
	if err := r.remote.DeleteComment(ctx, postID, commentID); err != nil {
		r.logger.LogError(ctx, err, "delete")
		return err
	}
	if err := r.comments.Delete(ctx, commentID); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}
	if err := r.bumpParentCount(ctx, postID, -1); err != nil {
		r.logger.LogSwallowed(ctx, err, "delete_count")
	}
	return nil
}

// SyncComments replaces postID's cached comment subtree with the remote
// truth. There is no per-comment cursor; comment sets are small enough to
// pull whole.
func (r *commentRepository) SyncComments(ctx context.Context, postID string) error {
	if !r.net.IsAvailable() {
		observability.SyncPullsTotal.WithLabelValues("comments", "full", observability.ResultError).Inc()
		return models.NewNetworkUnavailableError(nil)
	}
	pulled, err := r.remote.Comments(ctx, postID)
	if err != nil {
		observability.SyncPullsTotal.WithLabelValues("comments", "full", observability.ResultError).Inc()
		return err
	}
	if err := r.comments.ReplaceForPost(ctx, postID, pulled); err != nil {
		observability.SyncPullsTotal.WithLabelValues("comments", "full", observability.ResultError).Inc()
		return models.NewRemoteOperationFailedError(err)
	}
	observability.SyncPullsTotal.WithLabelValues("comments", "full", observability.ResultOK).Inc()
	return nil
}

// bumpParentCount adjusts the cached parent post's commentsCount by delta,
// clamped at zero, and advances its mutation cursor. A missing parent row
// is not an error: the post may simply not be cached yet.
func (r *commentRepository) bumpParentCount(ctx context.Context, postID string, delta int) error {
	post, err := r.posts.GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	post.CommentsCount += delta
	if post.CommentsCount < 0 {
		post.CommentsCount = 0
	}
	post.LastUpdated = models.NowMillis()
	return r.posts.Upsert(ctx, post)
}
