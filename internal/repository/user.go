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

// UserRepository coordinates user profile records between the cache and
// the remote store.
type UserRepository interface {
	Observe(ctx context.Context, id string) <-chan *models.User
	GetByID(ctx context.Context, id string) (*models.User, error)
	SyncUser(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error
}

type userRepository struct {
	users  *localstore.UserStore
	remote remote.Client
	net    netmon.Monitor
	logger *observability.RepoLogger
}

// NewUserRepository creates a new user sync coordinator.
func NewUserRepository(users *localstore.UserStore, rc remote.Client, net netmon.Monitor) UserRepository {
	return &userRepository{
		users:  users,
		remote: rc,
		net:    net,
		logger: observability.NewRepoLogger("users"),
	}
}

func (r *userRepository) Observe(ctx context.Context, id string) <-chan *models.User {
	return r.users.Observe(ctx, id)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.users.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	return user, nil
}

// SyncUser pulls the remote profile into the cache.
func (r *userRepository) SyncUser(ctx context.Context, id string) error {
	if !r.net.IsAvailable() {
		observability.SyncPullsTotal.WithLabelValues("users", "full", observability.ResultError).Inc()
		return models.NewNetworkUnavailableError(nil)
	}
	user, err := r.remote.GetUser(ctx, id)
	if err != nil {
		observability.SyncPullsTotal.WithLabelValues("users", "full", observability.ResultError).Inc()
		return err
	}
	if err := r.users.Upsert(ctx, user); err != nil {
		observability.SyncPullsTotal.WithLabelValues("users", "full", observability.ResultError).Inc()
		return models.NewRemoteOperationFailedError(err)
	}
	observability.SyncPullsTotal.WithLabelValues("users", "full", observability.ResultOK).Inc()
	return nil
}

// UpdateProfile merges the given fields into the cached row first so the
// UI reflects the edit immediately, then pushes a partial update remotely
// when online. A missing remote document is repaired by writing the merged
// record whole rather than failing the edit.
func (r *userRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	user, err := r.users.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError("user", id)
	}
	if err != nil {
		return models.NewRemoteOperationFailedError(err)
	}

	fields := applyProfileUpdate(user, update)
	user.LastUpdated = models.NowMillis()
	if err := r.users.Upsert(ctx, user); err != nil {
		return models.NewRemoteOperationFailedError(err)
	}
	if len(fields) == 0 {
		return nil
	}
	if !r.net.IsAvailable() {
		return nil
	}

	err = r.remote.UpdateUser(ctx, id, fields)
	if models.HasCode(err, models.CodeNotFound) {
		// Remote document missing (e.g. created before profiles existed):
		// write the merged record whole.
		err = r.remote.SaveUser(ctx, user)
	}
	if err != nil {
		observability.RemotePushesTotal.WithLabelValues("users", observability.ResultError).Inc()
		r.logger.LogError(ctx, err, "update_profile")
		return err
	}
	observability.RemotePushesTotal.WithLabelValues("users", observability.ResultOK).Inc()
	return nil
}

// applyProfileUpdate mutates user in place and returns the wire field map
// for the matching partial remote update.
func applyProfileUpdate(user *models.User, update models.ProfileUpdate) map[string]interface{} {
	fields := make(map[string]interface{})
	if update.Username != nil {
		user.Username = *update.Username
		fields["username"] = *update.Username
	}
	if update.ProfileImageURL != nil {
		user.ProfileImageURL = *update.ProfileImageURL
		fields["profileImageUrl"] = *update.ProfileImageURL
	}
	if update.YearOfStudy != nil {
		user.YearOfStudy = *update.YearOfStudy
		fields["yearOfStudy"] = *update.YearOfStudy
	}
	if update.Degree != nil {
		user.Degree = *update.Degree
		fields["degree"] = *update.Degree
	}
	return fields
}
