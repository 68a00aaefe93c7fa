// Package remote implements the client for the cloud document store, the
// durability and sharing authority for all entities. Every operation here
// crosses the network and may fail; offline policy lives one layer up in
// the repositories.
package remote

import (
	"context"
	"errors"
)

// Collection names in the remote document store.
const (
	UsersCollection    = "users"
	PostsCollection    = "posts"
	CommentsCollection = "comments"
)

// Document field names shared between queries and partial updates.
const (
	FieldLastUpdated = "lastUpdated"
	FieldTimestamp   = "timestamp"
	FieldLikes       = "likes"
	FieldLikedBy     = "likedBy"
	FieldComments    = "commentsCount"
	FieldPostID      = "postId"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Query describes a filtered, ordered collection read.
type Query struct {
	// Eq filters on field equality.
	Eq map[string]interface{}
	// Gt filters on field strictly-greater-than.
	Gt map[string]interface{}
	// OrderBy names the sort field; empty means unspecified order.
	OrderBy string
	// Desc sorts descending when true.
	Desc bool
}

// Store is the typed CRUD surface of the remote document store. All
// operations are synchronous wrappers over network calls and honor ctx.
type Store interface {
	// GenerateID allocates a new document id without writing anything.
	GenerateID() string
	// Set performs a full-document write.
	Set(ctx context.Context, collection, id string, doc interface{}) error
	// Get decodes the document with the given id into out.
	Get(ctx context.Context, collection, id string, out interface{}) error
	// Update applies a partial $set-style update to the named fields.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	// Delete removes the document.
	Delete(ctx context.Context, collection, id string) error
	// Find decodes all documents matching q into out (a *[]T).
	Find(ctx context.Context, collection string, q Query, out interface{}) error
	// AtomicIncrement adds delta to a numeric field server-side.
	AtomicIncrement(ctx context.Context, collection, id, field string, delta int64) error
	// AtomicSetAdd unions value into an array field server-side.
	AtomicSetAdd(ctx context.Context, collection, id, field string, value interface{}) error
	// AtomicSetRemove removes value from an array field server-side.
	AtomicSetRemove(ctx context.Context, collection, id, field string, value interface{}) error
}
