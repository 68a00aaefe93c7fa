package auth

import (
	"context"
	"errors"

	"studygram/internal/models"
	"studygram/internal/remote"

	"golang.org/x/crypto/bcrypt"
)

// CredentialsCollection holds credential documents, separate from user
// profiles: profile pulls never see password hashes.
const CredentialsCollection = "credentials"

type credentialDoc struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	PasswordHash []byte `bson:"passwordHash"`
	Username     string `bson:"username"`
	CreatedAt    int64  `bson:"createdAt"`
}

// StoreService implements Service on top of the remote document store,
// hashing passwords with bcrypt. Sessions are process-local; SignOut only
// signals intent so callers can clear their own state.
type StoreService struct {
	store remote.Store
}

// NewStoreService creates a credential service over the given store.
func NewStoreService(store remote.Store) *StoreService {
	return &StoreService{store: store}
}

func (s *StoreService) SignUp(ctx context.Context, email, password, username string) (*Identity, error) {
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError("email", "already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewRemoteOperationFailedError(err)
	}
	doc := &credentialDoc{
		ID:           s.store.GenerateID(),
		Email:        email,
		PasswordHash: hash,
		Username:     username,
		CreatedAt:    models.NowMillis(),
	}
	if err := s.store.Set(ctx, CredentialsCollection, doc.ID, doc); err != nil {
		return nil, models.WrapRemoteError(err)
	}
	return &Identity{UID: doc.ID}, nil
}

func (s *StoreService) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	doc, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.NewAuthRequiredError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(doc.PasswordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, models.NewAuthRequiredError("invalid email or password")
		}
		return nil, models.NewRemoteOperationFailedError(err)
	}
	return &Identity{UID: doc.ID}, nil
}

func (s *StoreService) SignOut(ctx context.Context) error {
	return nil
}

func (s *StoreService) findByEmail(ctx context.Context, email string) (*credentialDoc, error) {
	var docs []credentialDoc
	q := remote.Query{Eq: map[string]interface{}{"email": email}}
	if err := s.store.Find(ctx, CredentialsCollection, q, &docs); err != nil {
		return nil, models.WrapRemoteError(err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}
