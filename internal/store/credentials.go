package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Credential is the persisted sign-in: the bearer token and the user
// profile exactly as the backend returned it.
type Credential struct {
	Token string
	User  json.RawMessage
}

// LoadCredential returns the stored credential, or ok=false when none is saved.
func (s *LocalStore) LoadCredential(ctx context.Context) (Credential, bool, error) {
	token, err := s.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return Credential{}, false, nil
	}
	if err != nil {
		return Credential{}, false, err
	}

	cred := Credential{Token: token}
	user, err := s.Get(ctx, KeyUser)
	switch {
	case err == nil:
		cred.User = json.RawMessage(user)
	case !errors.Is(err, ErrNotFound):
		return Credential{}, false, err
	}
	return cred, token != "", nil
}

// SaveCredential persists token and user.
func (s *LocalStore) SaveCredential(ctx context.Context, c Credential) error {
	if c.Token == "" {
		return fmt.Errorf("refusing to save empty token")
	}
	if err := s.Set(ctx, KeyToken, c.Token); err != nil {
		return err
	}
	if len(c.User) == 0 {
		return s.Delete(ctx, KeyUser)
	}
	return s.Set(ctx, KeyUser, string(c.User))
}

// ClearCredential removes the stored token and user.
func (s *LocalStore) ClearCredential(ctx context.Context) error {
	return s.Delete(ctx, KeyToken, KeyUser)
}

// Theme returns the saved theme preference, "" when unset.
func (s *LocalStore) Theme(ctx context.Context) (string, error) {
	v, err := s.Get(ctx, KeyTheme)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetTheme saves the theme preference.
func (s *LocalStore) SetTheme(ctx context.Context, theme string) error {
	return s.Set(ctx, KeyTheme, theme)
}
