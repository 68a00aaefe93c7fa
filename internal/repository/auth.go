package repository

import (
	"context"
	"errors"
	"strings"

	"studygram/internal/auth"
	"studygram/internal/localstore"
	"studygram/internal/models"
	"studygram/internal/netmon"
	"studygram/internal/observability"
	"studygram/internal/prefs"
	"studygram/internal/remote"

	"gorm.io/gorm"
)

// AuthRepository coordinates sign-in state between the authentication
// service, the remote user documents, the cache, and the preference store.
// Credential operations are online-only; only the signed-in id persists
// across restarts.
type AuthRepository interface {
	SignUp(ctx context.Context, email, password, username string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
	CurrentUserID() string
}

type authRepository struct {
	authSvc auth.Service
	users   *localstore.UserStore
	remote  remote.Client
	net     netmon.Monitor
	prefs   *prefs.Store
	logger  *observability.RepoLogger
}

// NewAuthRepository creates a new authentication coordinator.
func NewAuthRepository(authSvc auth.Service, users *localstore.UserStore, rc remote.Client, net netmon.Monitor, pf *prefs.Store) AuthRepository {
	return &authRepository{
		authSvc: authSvc,
		users:   users,
		remote:  rc,
		net:     net,
		prefs:   pf,
		logger:  observability.NewRepoLogger("auth"),
	}
}

// SignUp registers the credentials, creates the user document remotely,
// mirrors it into the cache and records the session.
func (r *authRepository) SignUp(ctx context.Context, email, password, username string) (*models.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, models.NewValidationError("username", "must not be empty")
	}
	if !r.net.IsAvailable() {
		return nil, models.NewNetworkUnavailableError(nil)
	}

	identity, err := r.authSvc.SignUp(ctx, email, password, username)
	if err != nil {
		r.logger.LogError(ctx, err, "sign_up")
		return nil, err
	}

	now := models.NowMillis()
	user := &models.User{
		ID:          identity.UID,
		Email:       email,
		Username:    username,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := r.remote.SaveUser(ctx, user); err != nil {
		return nil, err
	}
	if err := r.users.Upsert(ctx, user); err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	if err := r.prefs.SetUserID(user.ID); err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	r.logger.LogOp(ctx, "sign_up", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// SignIn authenticates and hydrates the profile. Authentication itself
// must succeed remotely; the profile fetch afterwards is best-effort and
// degrades to the cached row, then to a minimal record, rather than
// failing the whole sign-in.
func (r *authRepository) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if !r.net.IsAvailable() {
		return nil, models.NewNetworkUnavailableError(nil)
	}

	identity, err := r.authSvc.SignIn(ctx, email, password)
	if err != nil {
		r.logger.LogError(ctx, err, "sign_in")
		return nil, err
	}

	user, err := r.remote.GetUser(ctx, identity.UID)
	if err != nil {
		r.logger.LogSwallowed(ctx, err, "sign_in_profile")
		user = r.fallbackUser(ctx, identity.UID, email)
	}

	if err := r.users.Upsert(ctx, user); err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	if err := r.prefs.SetUserID(user.ID); err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	r.logger.LogOp(ctx, "sign_in", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// SignOut ends the session and purges account records from the cache.
// Posts and comments stay cached for offline reading.
func (r *authRepository) SignOut(ctx context.Context) error {
	if err := r.authSvc.SignOut(ctx); err != nil {
		r.logger.LogError(ctx, err, "sign_out")
		return err
	}
	if err := r.prefs.Clear(); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}
	if err := r.users.DeleteAll(ctx); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}
	r.logger.LogOp(ctx, "sign_out", nil)
	return nil
}

// CurrentUserID returns the signed-in user id, empty when signed out.
func (r *authRepository) CurrentUserID() string {
	return r.prefs.UserID()
}

// fallbackUser recovers a usable profile when the remote document cannot
// be fetched: prefer the cached row, otherwise synthesize a minimal one
// from the identity.
func (r *authRepository) fallbackUser(ctx context.Context, uid, email string) *models.User {
	cached, err := r.users.GetByID(ctx, uid)
	if err == nil {
		return cached
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.LogSwallowed(ctx, err, "sign_in_cache")
	}
	now := models.NowMillis()
	return &models.User{
		ID:          uid,
		Email:       email,
		Username:    usernameFromEmail(email),
		CreatedAt:   now,
		LastUpdated: now,
	}
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") {
		return models.NewValidationError("email", "must be a valid address")
	}
	if len(password) < 6 {
		return models.NewValidationError("password", "must be at least 6 characters")
	}
	return nil
}

func usernameFromEmail(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}
