package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// SDKClient calls the unauthenticated endpoints and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Signin exchanges a username and password for a token pair.
func (c *SDKClient) Signin(ctx context.Context, username, password string) (*TokenPair, error) {
	body, err := json.Marshal(SigninRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/signin", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := decodeJSON(resp, &pair, http.StatusOK); err != nil {
		return nil, err
	}
	return &pair, nil
}

// Refresh trades a refresh token for a new pair.
func (c *SDKClient) Refresh(ctx context.Context, username, refreshToken string) (*TokenPair, error) {
	if username == "" || refreshToken == "" {
		return nil, fmt.Errorf("authsdk: username and refresh token are required")
	}

	resp, err := c.doRequest(ctx, http.MethodPut, "/auth/refresh/"+url.PathEscape(username), nil, map[string]string{
		"Authorization": jwtx.BearerPrefix + refreshToken,
	})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := decodeJSON(resp, &pair, http.StatusOK); err != nil {
		return nil, err
	}
	return &pair, nil
}

// AuthenticateWithPassword signs in and wraps the pair in a Session.
func (c *SDKClient) AuthenticateWithPassword(ctx context.Context, username, password string) (*Session, error) {
	pair, err := c.Signin(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, pair), nil
}

// NewSessionFromTokens resumes a session from a previously issued pair.
func (c *SDKClient) NewSessionFromTokens(pair TokenPair) *Session {
	return newSession(c, &pair)
}
