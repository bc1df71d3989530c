package authsdk

import (
	"time"

	"github.com/aussiebroadwan/tabauth/pkg/jwtx"
)

// SigninRequest is the body of POST /auth/signin.
type SigninRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is returned by signin and refresh.
type TokenPair = jwtx.TokenPair

// PrincipalResponse is returned by GET /api/v1/me.
type PrincipalResponse struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
}

// UserResponse is a read-only directory entry, from GET /api/v1/users/{username}.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HealthResponse is returned by /livez and /readyz; only readyz sets Checks.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports each readiness dependency as "ok" or "error".
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}
