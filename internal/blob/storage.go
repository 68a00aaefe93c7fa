// Package blob abstracts the blob storage service holding post and profile
// images. The sync core only needs upload-for-url and delete-by-url.
package blob

import "context"

// Storage is the external blob storage collaborator.
type Storage interface {
	// Upload stores data under the owner's namespace and returns a durable
	// URL for it.
	Upload(ctx context.Context, ownerID, name string, data []byte) (string, error)
	// Delete removes the object addressed by url.
	Delete(ctx context.Context, url string) error
}
