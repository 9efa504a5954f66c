package services

import (
	"context"
	"fmt"

	"eclub/internal/domain"
	"eclub/internal/repos"
	"eclub/internal/store"

	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	Users *repos.UserRepo
	// State, when set, lets CarrySession move guest state to a new session id.
	State *repos.StateRepo
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

// DeleteAccount removes the user behind sid together with their saved state.
func (s *AuthService) DeleteAccount(sid string) error {
	u, err := s.Users.SessionUser(sid)
	if err != nil {
		return err
	}
	return s.Users.DeleteUserCascade(u.ID)
}

// CarrySession re-keys the session-scoped containers of oldSID under newSID,
// so a cart built before signing in survives the fresh session id.
func (s *AuthService) CarrySession(ctx context.Context, oldSID, newSID string) error {
	if s.State == nil || oldSID == "" || oldSID == newSID {
		return nil
	}
	for _, ns := range []string{store.NSCart, store.NSWishlist, store.NSPaymentDraft} {
		if err := s.State.Move(ctx, oldSID, newSID, ns); err != nil {
			return fmt.Errorf("carry %s state: %w", ns, err)
		}
	}
	return nil
}
