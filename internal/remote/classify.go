package remote

import (
	"errors"

	"studygram/internal/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// wrapErr maps raw store errors onto the typed error surface. Connectivity
// failures collapse into NETWORK_UNAVAILABLE; missing documents become
// NOT_FOUND; anything else is a remote operation failure carrying its cause.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return &models.AppError{Code: models.CodeNotFound, Message: "document not found", Err: err}
	}
	if isNetworkError(err) {
		return models.NewNetworkUnavailableError(err)
	}
	return models.NewRemoteOperationFailedError(err)
}

func isNetworkError(err error) bool {
	if mongo.IsTimeout(err) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("NetworkError") {
		return true
	}
	var selErr mongo.ServerError
	if errors.As(err, &selErr) {
		return false
	}
	return models.IsNetworkError(err)
}
