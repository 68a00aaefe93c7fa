package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"studygram/internal/models"
)

// fakeRemote is an in-memory stand-in for the remote document store with
// per-operation failure injection. It mirrors the real client's semantics:
// mutations stamp lastUpdated, like/comment writes keep the counters in
// step with their sets.
type fakeRemote struct {
	mu     sync.Mutex
	nextID int

	users    map[string]*models.User
	posts    map[string]*models.Post
	comments map[string]*models.Comment

	failSavePost      error
	failUpdatePost    error
	failDeletePost    error
	failLike          error
	failUnlike        error
	failSaveComment   error
	failDeleteComment error
	failGetUser       error
	failUpdateUser    error
	failAllPosts      error

	savePostCalls     int
	allPostsCalls     int
	updatedAfterCalls int
	lastUpdatedAfter  int64
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		users:    make(map[string]*models.User),
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
	}
}

func (f *fakeRemote) GeneratePostID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("post-%04d", f.nextID)
}

func (f *fakeRemote) GenerateCommentID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return fmt.Sprintf("comment-%04d", f.nextID)
}

func (f *fakeRemote) SaveUser(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	cp.LastUpdated = models.NowMillis()
	f.users[cp.ID] = &cp
	return nil
}

func (f *fakeRemote) GetUser(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGetUser != nil {
		return nil, f.failGetUser
	}
	user, ok := f.users[id]
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	cp := *user
	return &cp, nil
}

func (f *fakeRemote) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdateUser != nil {
		return f.failUpdateUser
	}
	user, ok := f.users[id]
	if !ok {
		return models.NewNotFoundError("user", id)
	}
	if v, ok := fields["username"].(string); ok {
		user.Username = v
	}
	if v, ok := fields["profileImageUrl"].(string); ok {
		user.ProfileImageURL = v
	}
	if v, ok := fields["yearOfStudy"].(string); ok {
		user.YearOfStudy = v
	}
	if v, ok := fields["degree"].(string); ok {
		user.Degree = v
	}
	user.LastUpdated = models.NowMillis()
	return nil
}

func (f *fakeRemote) SavePost(ctx context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savePostCalls++
	if f.failSavePost != nil {
		return f.failSavePost
	}
	cp := *post
	cp.LastUpdated = models.NowMillis()
	f.posts[cp.ID] = &cp
	return nil
}

func (f *fakeRemote) GetPost(ctx context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, models.NewNotFoundError("post", id)
	}
	cp := *post
	return &cp, nil
}

func (f *fakeRemote) AllPosts(ctx context.Context) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allPostsCalls++
	if f.failAllPosts != nil {
		return nil, f.failAllPosts
	}
	out := make([]*models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (f *fakeRemote) PostsUpdatedAfter(ctx context.Context, ts int64) ([]*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedAfterCalls++
	f.lastUpdatedAfter = ts
	var out []*models.Post
	for _, p := range f.posts {
		if p.LastUpdated > ts {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (f *fakeRemote) UpdatePost(ctx context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdatePost != nil {
		return f.failUpdatePost
	}
	post, ok := f.posts[id]
	if !ok {
		return models.NewNotFoundError("post", id)
	}
	if v, ok := fields["title"].(string); ok {
		post.Title = v
	}
	if v, ok := fields["content"].(string); ok {
		post.Content = v
	}
	if v, ok := fields["courseTag"].(string); ok {
		post.CourseTag = v
	}
	if v, ok := fields["difficultyLevel"].(string); ok {
		post.DifficultyLevel = v
	}
	if v, ok := fields["imageUrl"].(string); ok {
		post.ImageURL = v
	}
	post.LastUpdated = models.NowMillis()
	return nil
}

func (f *fakeRemote) DeletePost(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeletePost != nil {
		return f.failDeletePost
	}
	delete(f.posts, id)
	return nil
}

func (f *fakeRemote) LikePost(ctx context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLike != nil {
		return f.failLike
	}
	post, ok := f.posts[postID]
	if !ok {
		return models.NewNotFoundError("post", postID)
	}
	if !post.IsLikedBy(userID) {
		post.SetLikedByList(append(post.LikedByList(), userID))
		post.Likes++
	}
	post.LastUpdated = models.NowMillis()
	return nil
}

func (f *fakeRemote) UnlikePost(ctx context.Context, postID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUnlike != nil {
		return f.failUnlike
	}
	post, ok := f.posts[postID]
	if !ok {
		return models.NewNotFoundError("post", postID)
	}
	if post.IsLikedBy(userID) {
		kept := make([]string, 0, len(post.LikedByList()))
		for _, id := range post.LikedByList() {
			if id != userID {
				kept = append(kept, id)
			}
		}
		post.SetLikedByList(kept)
		post.Likes--
	}
	post.LastUpdated = models.NowMillis()
	return nil
}

func (f *fakeRemote) SaveComment(ctx context.Context, comment *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSaveComment != nil {
		return f.failSaveComment
	}
	cp := *comment
	f.comments[cp.ID] = &cp
	if post, ok := f.posts[cp.PostID]; ok {
		post.CommentsCount++
		post.LastUpdated = models.NowMillis()
	}
	return nil
}

func (f *fakeRemote) Comments(ctx context.Context, postID string) ([]*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (f *fakeRemote) DeleteComment(ctx context.Context, postID, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDeleteComment != nil {
		return f.failDeleteComment
	}
	delete(f.comments, commentID)
	if post, ok := f.posts[postID]; ok {
		post.CommentsCount--
		post.LastUpdated = models.NowMillis()
	}
	return nil
}

func (f *fakeRemote) post(id string) *models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil
	}
	cp := *post
	return &cp
}

func (f *fakeRemote) putPost(post *models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *post
	f.posts[cp.ID] = &cp
}
