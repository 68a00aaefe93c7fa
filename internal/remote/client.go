package remote

import (
	"context"

	"studygram/internal/models"
)

// Client is the typed remote surface the sync coordinators call. It speaks
// in domain models and typed errors; the generic Store underneath speaks in
// documents.
type Client interface {
	GeneratePostID() string
	GenerateCommentID() string

	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error

	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	AllPosts(ctx context.Context) ([]*models.Post, error)
	PostsUpdatedAfter(ctx context.Context, ts int64) ([]*models.Post, error)
	UpdatePost(ctx context.Context, id string, fields map[string]interface{}) error
	DeletePost(ctx context.Context, id string) error
	LikePost(ctx context.Context, postID, userID string) error
	UnlikePost(ctx context.Context, postID, userID string) error

	SaveComment(ctx context.Context, comment *models.Comment) error
	Comments(ctx context.Context, postID string) ([]*models.Comment, error)
	DeleteComment(ctx context.Context, postID, commentID string) error
}

// postDoc is the wire form of a post: likedBy travels as an array, while
// the cache row keeps it comma-joined.
type postDoc struct {
	ID              string   `bson:"_id"`
	UserID          string   `bson:"userId"`
	AuthorName      string   `bson:"authorName"`
	AuthorImageURL  string   `bson:"authorImageUrl"`
	Title           string   `bson:"title"`
	Content         string   `bson:"content"`
	CourseTag       string   `bson:"courseTag"`
	DifficultyLevel string   `bson:"difficultyLevel"`
	ImageURL        string   `bson:"imageUrl"`
	Likes           int      `bson:"likes"`
	LikedBy         []string `bson:"likedBy"`
	CommentsCount   int      `bson:"commentsCount"`
	Timestamp       int64    `bson:"timestamp"`
	LastUpdated     int64    `bson:"lastUpdated"`
}

func toPostDoc(p *models.Post) *postDoc {
	return &postDoc{
		ID:              p.ID,
		UserID:          p.UserID,
		AuthorName:      p.AuthorName,
		AuthorImageURL:  p.AuthorImageURL,
		Title:           p.Title,
		Content:         p.Content,
		CourseTag:       p.CourseTag,
		DifficultyLevel: p.DifficultyLevel,
		ImageURL:        p.ImageURL,
		Likes:           p.Likes,
		LikedBy:         p.LikedByList(),
		CommentsCount:   p.CommentsCount,
		Timestamp:       p.Timestamp,
		LastUpdated:     p.LastUpdated,
	}
}

func fromPostDoc(d *postDoc) *models.Post {
	p := &models.Post{
		ID:              d.ID,
		UserID:          d.UserID,
		AuthorName:      d.AuthorName,
		AuthorImageURL:  d.AuthorImageURL,
		Title:           d.Title,
		Content:         d.Content,
		CourseTag:       d.CourseTag,
		DifficultyLevel: d.DifficultyLevel,
		ImageURL:        d.ImageURL,
		Likes:           d.Likes,
		CommentsCount:   d.CommentsCount,
		Timestamp:       d.Timestamp,
		LastUpdated:     d.LastUpdated,
	}
	p.SetLikedByList(d.LikedBy)
	return p
}

type client struct {
	store Store
}

// NewClient wraps a Store in the typed Client surface.
func NewClient(store Store) Client {
	return &client{store: store}
}

func (c *client) GeneratePostID() string    { return c.store.GenerateID() }
func (c *client) GenerateCommentID() string { return c.store.GenerateID() }

func (c *client) SaveUser(ctx context.Context, user *models.User) error {
	stamped := *user
	stamped.LastUpdated = models.NowMillis()
	return wrapErr(c.store.Set(ctx, UsersCollection, user.ID, &stamped))
}

func (c *client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := c.store.Get(ctx, UsersCollection, id, &user); err != nil {
		return nil, wrapErr(err)
	}
	return &user, nil
}

func (c *client) UpdateUser(ctx context.Context, id string, fields map[string]interface{}) error {
	stamped := withLastUpdated(fields)
	err := c.store.Update(ctx, UsersCollection, id, stamped)
	return wrapErr(err)
}

func (c *client) SavePost(ctx context.Context, post *models.Post) error {
	doc := toPostDoc(post)
	doc.LastUpdated = models.NowMillis()
	return wrapErr(c.store.Set(ctx, PostsCollection, post.ID, doc))
}

func (c *client) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var doc postDoc
	if err := c.store.Get(ctx, PostsCollection, id, &doc); err != nil {
		return nil, wrapErr(err)
	}
	return fromPostDoc(&doc), nil
}

func (c *client) AllPosts(ctx context.Context) ([]*models.Post, error) {
	var docs []postDoc
	q := Query{OrderBy: FieldTimestamp, Desc: true}
	if err := c.store.Find(ctx, PostsCollection, q, &docs); err != nil {
		return nil, wrapErr(err)
	}
	return fromPostDocs(docs), nil
}

func (c *client) PostsUpdatedAfter(ctx context.Context, ts int64) ([]*models.Post, error) {
	var docs []postDoc
	q := Query{Gt: map[string]interface{}{FieldLastUpdated: ts}}
	if err := c.store.Find(ctx, PostsCollection, q, &docs); err != nil {
		return nil, wrapErr(err)
	}
	return fromPostDocs(docs), nil
}

func (c *client) UpdatePost(ctx context.Context, id string, fields map[string]interface{}) error {
	stamped := withLastUpdated(fields)
	err := c.store.Update(ctx, PostsCollection, id, stamped)
	return wrapErr(err)
}

func (c *client) DeletePost(ctx context.Context, id string) error {
	return wrapErr(c.store.Delete(ctx, PostsCollection, id))
}

// LikePost applies the like server-side: likedBy gains userID, likes gains
// one, lastUpdated advances so incremental pulls pick the change up.
func (c *client) LikePost(ctx context.Context, postID, userID string) error {
	if err := c.store.AtomicSetAdd(ctx, PostsCollection, postID, FieldLikedBy, userID); err != nil {
		return wrapErr(err)
	}
	if err := c.store.AtomicIncrement(ctx, PostsCollection, postID, FieldLikes, 1); err != nil {
		return wrapErr(err)
	}
	return wrapErr(c.store.Update(ctx, PostsCollection, postID, map[string]interface{}{FieldLastUpdated: models.NowMillis()}))
}

// UnlikePost is the inverse of LikePost.
func (c *client) UnlikePost(ctx context.Context, postID, userID string) error {
	if err := c.store.AtomicSetRemove(ctx, PostsCollection, postID, FieldLikedBy, userID); err != nil {
		return wrapErr(err)
	}
	if err := c.store.AtomicIncrement(ctx, PostsCollection, postID, FieldLikes, -1); err != nil {
		return wrapErr(err)
	}
	return wrapErr(c.store.Update(ctx, PostsCollection, postID, map[string]interface{}{FieldLastUpdated: models.NowMillis()}))
}

// SaveComment writes the comment document and bumps the parent post's
// commentsCount server-side.
func (c *client) SaveComment(ctx context.Context, comment *models.Comment) error {
	if err := c.store.Set(ctx, CommentsCollection, comment.ID, comment); err != nil {
		return wrapErr(err)
	}
	if err := c.store.AtomicIncrement(ctx, PostsCollection, comment.PostID, FieldComments, 1); err != nil {
		return wrapErr(err)
	}
	return wrapErr(c.store.Update(ctx, PostsCollection, comment.PostID, map[string]interface{}{FieldLastUpdated: models.NowMillis()}))
}

func (c *client) Comments(ctx context.Context, postID string) ([]*models.Comment, error) {
	var comments []*models.Comment
	q := Query{
		Eq:      map[string]interface{}{FieldPostID: postID},
		OrderBy: FieldTimestamp,
		Desc:    true,
	}
	if err := c.store.Find(ctx, CommentsCollection, q, &comments); err != nil {
		return nil, wrapErr(err)
	}
	return comments, nil
}

// DeleteComment removes the comment document and decrements the parent
// post's commentsCount server-side.
func (c *client) DeleteComment(ctx context.Context, postID, commentID string) error {
	if err := c.store.Delete(ctx, CommentsCollection, commentID); err != nil {
		return wrapErr(err)
	}
	if err := c.store.AtomicIncrement(ctx, PostsCollection, postID, FieldComments, -1); err != nil {
		return wrapErr(err)
	}
	return wrapErr(c.store.Update(ctx, PostsCollection, postID, map[string]interface{}{FieldLastUpdated: models.NowMillis()}))
}

func fromPostDocs(docs []postDoc) []*models.Post {
	posts := make([]*models.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, fromPostDoc(&docs[i]))
	}
	return posts
}

// withLastUpdated copies fields and stamps the mutation cursor, so every
// partial update is visible to incremental pulls.
func withLastUpdated(fields map[string]interface{}) map[string]interface{} {
	stamped := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		stamped[k] = v
	}
	stamped[FieldLastUpdated] = models.NowMillis()
	return stamped
}
