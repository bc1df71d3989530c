package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/tabauth/internal/auth/service"
	"github.com/aussiebroadwan/tabauth/pkg/authsdk"
	"github.com/aussiebroadwan/tabauth/pkg/cryptox"
	"github.com/aussiebroadwan/tabauth/pkg/httpx"
	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
	"github.com/aussiebroadwan/tabauth/pkg/slogx"
)

// maxSigninBody caps the signin request body.
const maxSigninBody = 64 << 10

// Result labels for the signin and refresh counters.
const (
	resultSuccess        = "success"
	resultInvalidRequest = "invalid_request"
	resultBadCredentials = "bad_credentials"
	resultInvalidGrant   = "invalid_grant"
	resultError          = "error"
)

// Authenticator is the part of service.AuthService the handlers call.
type Authenticator interface {
	Signin(ctx context.Context, username, password string) (jwtx.TokenPair, error)
	RefreshToken(ctx context.Context, username, refreshToken string) (jwtx.TokenPair, error)
}

var _ Authenticator = (*service.AuthService)(nil)

// ResultRecorder counts signin and refresh results.
type ResultRecorder interface {
	ObserveSignin(result string)
	ObserveRefresh(result string)
}

// SigninHandler serves POST /auth/signin.
type SigninHandler struct {
	Auth    Authenticator
	Results ResultRecorder
}

func (h *SigninHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.SigninRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSigninBody))
	if err := dec.Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		h.Results.ObserveSignin(resultInvalidRequest)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.Auth.Signin(r.Context(), req.Username, req.Password)
	if err != nil {
		// Signin already collapses every failure into ErrBadCredentials.
		h.Results.ObserveSignin(resultBadCredentials)
		authsdk.ErrBadCredentials.WriteError(w)
		return
	}

	h.Results.ObserveSignin(resultSuccess)
	httpx.WriteJSON(w, http.StatusOK, pair)
}

// RefreshHandler serves PUT /auth/refresh/{username}. The refresh token
// travels in the Authorization header, with or without the Bearer prefix.
type RefreshHandler struct {
	Auth    Authenticator
	Results ResultRecorder
}

func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	username := r.PathValue("username")
	token := r.Header.Get("Authorization")
	if username == "" || token == "" {
		h.Results.ObserveRefresh(resultInvalidRequest)
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.Auth.RefreshToken(r.Context(), username, token)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserNotFound), jwtx.KindOf(err) != jwtx.KindUnknown:
		log.Info("refresh rejected",
			"username", username,
			"kind", jwtx.KindOf(err).String(),
			"token_fp", cryptox.FingerprintToken(token),
			"err", err,
		)
		h.Results.ObserveRefresh(resultInvalidGrant)
		authsdk.ErrInvalidGrant.WriteError(w)
		return
	default:
		log.Error("refresh failed", "username", username, "err", err)
		h.Results.ObserveRefresh(resultError)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	h.Results.ObserveRefresh(resultSuccess)
	httpx.WriteJSON(w, http.StatusOK, pair)
}
