package seed

import (
	"context"
	"fmt"

	"studygram/internal/models"
	"studygram/internal/observability"
	"studygram/internal/remote"

	"github.com/brianvoe/gofakeit/v6"
)

// Options controls the seed volume.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	LikeProbability float64
}

// DefaultOptions is a small but interconnected data set.
func DefaultOptions() Options {
	return Options{
		Users:           8,
		PostsPerUser:    4,
		CommentsPerPost: 3,
		LikeProbability: 0.4,
	}
}

// Run writes a full demo data set through the typed remote client: users,
// posts, comments, and a random scattering of likes. Likes go through the
// same atomic path the sync core uses, so counts and sets stay in step.
func Run(ctx context.Context, client remote.Client, opts Options) error {
	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user := NewUser()
		if err := client.SaveUser(ctx, user); err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
		users = append(users, user)
	}

	var posts []*models.Post
	for _, author := range users {
		for i := 0; i < opts.PostsPerUser; i++ {
			post := NewPost(author)
			if err := client.SavePost(ctx, post); err != nil {
				return fmt.Errorf("failed to seed post: %w", err)
			}
			posts = append(posts, post)
		}
	}

	comments := 0
	likes := 0
	for _, post := range posts {
		for i := 0; i < opts.CommentsPerPost; i++ {
			commenter := users[gofakeit.Number(0, len(users)-1)]
			if err := client.SaveComment(ctx, NewComment(post, commenter)); err != nil {
				return fmt.Errorf("failed to seed comment: %w", err)
			}
			comments++
		}
		for _, user := range users {
			if user.ID == post.UserID || !gofakeit.Bool() {
				continue
			}
			if gofakeit.Float64Range(0, 1) >= opts.LikeProbability {
				continue
			}
			if err := client.LikePost(ctx, post.ID, user.ID); err != nil {
				return fmt.Errorf("failed to seed like: %w", err)
			}
			likes++
		}
	}

	observability.GlobalLogger.Info("seed complete",
		"users", len(users), "posts", len(posts), "comments", comments, "likes", likes)
	return nil
}
