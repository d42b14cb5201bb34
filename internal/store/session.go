package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashureev/nia-console/internal/domain"
)

// LoadSession reads the persisted session. It returns ok=false when the
// session is absent, partial or malformed.
func LoadSession(ctx context.Context, repo Repository) (*domain.Session, bool, error) {
	token, hasToken, err := repo.Get(ctx, KeyAuthToken)
	if err != nil {
		return nil, false, err
	}
	userJSON, hasUser, err := repo.Get(ctx, KeyCurrentUser)
	if err != nil {
		return nil, false, err
	}
	if !hasToken || !hasUser {
		return nil, false, nil
	}

	var parent domain.Parent
	if err := json.Unmarshal([]byte(userJSON), &parent); err != nil {
		return nil, false, nil
	}
	session := &domain.Session{Token: token, Parent: parent}
	if !session.Valid() {
		return nil, false, nil
	}
	return session, true, nil
}

// SaveSession persists token and identity together.
func SaveSession(ctx context.Context, repo Repository, session *domain.Session) error {
	userJSON, err := json.Marshal(session.Parent)
	if err != nil {
		return fmt.Errorf("encode parent: %w", err)
	}
	return repo.SetMany(ctx, map[string]string{
		KeyAuthToken:   session.Token,
		KeyCurrentUser: string(userJSON),
	})
}

// ClearSession removes token and identity together.
func ClearSession(ctx context.Context, repo Repository) error {
	return repo.Delete(ctx, KeyAuthToken, KeyCurrentUser)
}
