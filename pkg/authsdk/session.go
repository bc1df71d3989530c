package authsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// refreshSkew refreshes a little before the access token actually expires.
const refreshSkew = 30 * time.Second

// Session holds a token pair and refreshes it on demand. It is safe for
// concurrent use.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	username     string
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *SDKClient, pair *TokenPair) *Session {
	return &Session{
		client:       client,
		username:     pair.Username,
		accessToken:  pair.AccessToken,
		refreshToken: pair.RefreshToken,
		expiresAt:    pair.ExpiresAt.Add(-refreshSkew),
	}
}

// getValidToken returns the access token, refreshing it first if it is
// about to expire.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}
	if s.refreshToken == "" {
		return "", errors.New("authsdk: access token expired and no refresh token available")
	}

	pair, err := s.client.Refresh(ctx, s.username, s.refreshToken)
	if err != nil {
		return "", err
	}
	s.accessToken = pair.AccessToken
	s.refreshToken = pair.RefreshToken
	s.expiresAt = pair.ExpiresAt.Add(-refreshSkew)

	return s.accessToken, nil
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Me returns the principal the server resolved for this session.
func (s *Session) Me(ctx context.Context) (*PrincipalResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/v1/me", nil, nil)
	if err != nil {
		return nil, err
	}

	var p PrincipalResponse
	if err := decodeJSON(resp, &p, http.StatusOK); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetUser reads a directory entry. The server requires the ADMIN role.
func (s *Session) GetUser(ctx context.Context, username string) (*UserResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(username), nil, nil)
	if err != nil {
		return nil, err
	}

	var u UserResponse
	if err := decodeJSON(resp, &u, http.StatusOK); err != nil {
		return nil, err
	}
	return &u, nil
}
