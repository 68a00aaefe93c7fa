package repository

import (
	"context"
	"path/filepath"
	"testing"

	"studygram/internal/auth"
	"studygram/internal/localstore"
	"studygram/internal/models"
	"studygram/internal/netmon"
	"studygram/internal/prefs"

	"github.com/stretchr/testify/require"
)

// fakeAuth is a canned authentication service.
type fakeAuth struct {
	uid         string
	failSignIn  error
	failSignUp  error
	failSignOut error
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password, username string) (*auth.Identity, error) {
	if f.failSignUp != nil {
		return nil, f.failSignUp
	}
	return &auth.Identity{UID: f.uid}, nil
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (*auth.Identity, error) {
	if f.failSignIn != nil {
		return nil, f.failSignIn
	}
	return &auth.Identity{UID: f.uid}, nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	return f.failSignOut
}

type fixture struct {
	posts    *localstore.PostStore
	comments *localstore.CommentStore
	users    *localstore.UserStore
	remote   *fakeRemote
	net      *netmon.Manual
	prefs    *prefs.Store
	authSvc  *fakeAuth

	postRepo    PostRepository
	commentRepo CommentRepository
	userRepo    UserRepository
	authRepo    AuthRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	db, err := localstore.Open(filepath.Join(dir, "cache.db"))
	require.NoError(t, err)
	pf, err := prefs.Open(filepath.Join(dir, "prefs.json"))
	require.NoError(t, err)

	f := &fixture{
		posts:    localstore.NewPostStore(db),
		comments: localstore.NewCommentStore(db),
		users:    localstore.NewUserStore(db),
		remote:   newFakeRemote(),
		net:      netmon.NewManual(true),
		prefs:    pf,
		authSvc:  &fakeAuth{uid: "user-1"},
	}
	f.postRepo = NewPostRepository(f.posts, f.remote, f.net, f.prefs)
	f.commentRepo = NewCommentRepository(f.comments, f.posts, f.remote, f.net)
	f.userRepo = NewUserRepository(f.users, f.remote, f.net)
	f.authRepo = NewAuthRepository(f.authSvc, f.users, f.remote, f.net, f.prefs)
	return f
}

func testPost(id, userID string, lastUpdated int64) *models.Post {
	return &models.Post{
		ID:              id,
		UserID:          userID,
		AuthorName:      "Dana",
		Title:           "Integration by parts",
		Content:         "worked example",
		CourseTag:       "MATH201",
		DifficultyLevel: string(models.DifficultyMedium),
		Timestamp:       lastUpdated,
		LastUpdated:     lastUpdated,
	}
}
