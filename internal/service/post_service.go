// Package service holds the use-case layer on top of the sync
// coordinators: input validation, session checks, and the handoff to the
// detached upload pipeline.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"studygram/internal/models"
	"studygram/internal/observability"
	"studygram/internal/repository"
)

// UploadDispatcher schedules a detached upload job for a created post.
type UploadDispatcher interface {
	Dispatch(post *models.Post, rawImage []byte)
}

// CreatePostInput carries the user-supplied fields of a new post. Image
// is the raw bytes as picked, optional.
type CreatePostInput struct {
	Title      string
	Content    string
	CourseTag  string
	Difficulty string
	Image      []byte
}

// PostService is the create-post use case.
type PostService interface {
	CreatePost(ctx context.Context, input CreatePostInput) (*models.Post, error)
}

type postService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	auth     repository.AuthRepository
	uploads  UploadDispatcher
	settle   time.Duration
}

// NewPostService creates the create-post use case. settle is the artificial
// delay between the local insert and returning to the caller, giving the
// cache write time to propagate to open live queries before the UI
// navigates away.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, auth repository.AuthRepository, uploads UploadDispatcher, settle time.Duration) PostService {
	return &postService{
		posts:   posts,
		users:   users,
		auth:    auth,
		uploads: uploads,
		settle:  settle,
	}
}

// CreatePost validates, inserts the post locally, and returns success as
// soon as the cache write lands. The image upload and the remote push run
// detached; their failures never reach this caller.
func (s *postService) CreatePost(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	uid := s.auth.CurrentUserID()
	if uid == "" {
		return nil, models.NewAuthRequiredError("sign in to create posts")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, models.NewValidationError("title", "must not be empty")
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, models.NewValidationError("content", "must not be empty")
	}

	post := &models.Post{
		UserID:          uid,
		Title:           strings.TrimSpace(input.Title),
		Content:         input.Content,
		CourseTag:       strings.TrimSpace(input.CourseTag),
		DifficultyLevel: string(models.ParseDifficulty(input.Difficulty)),
	}
	s.fillAuthor(ctx, post, uid)

	created, err := s.posts.CreateLocalOnly(ctx, post)
	if err != nil {
		return nil, err
	}

	if s.settle > 0 {
		select {
		case <-time.After(s.settle):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.uploads.Dispatch(created, input.Image)
	return created, nil
}

// fillAuthor denormalizes the author's display fields onto the post, as
// the feed renders rows without joining the user table. A missing profile
// is not an error; the fields stay empty until the next profile sync.
func (s *postService) fillAuthor(ctx context.Context, post *models.Post, uid string) {
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.GlobalLogger.Warn("author profile unavailable", "user_id", uid, "error", err)
		}
		return
	}
	post.AuthorName = user.Username
	post.AuthorImageURL = user.ProfileImageURL
}
