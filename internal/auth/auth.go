// Package auth declares the external authentication service collaborator.
// Token handling and credential storage live behind this interface; the
// sync core only consumes the opaque identity it returns.
package auth

import "context"

// Identity is the opaque authenticated principal.
type Identity struct {
	UID string
}

// Service is the remote authentication collaborator. All operations
// require network; there is no offline authentication.
type Service interface {
	SignUp(ctx context.Context, email, password, username string) (*Identity, error)
	SignIn(ctx context.Context, email, password string) (*Identity, error)
	SignOut(ctx context.Context) error
}
