package jwtx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerPrefix is the Authorization scheme prefix, including the space.
const BearerPrefix = "Bearer "

// DefaultIssuer is used for the "iss" claim when neither the request origin
// nor a configured issuer is available.
const DefaultIssuer = "tabauth"

// TokenPair is what signin and refresh hand back to the caller. CreatedAt
// and ExpiresAt are whole seconds, matching the "iat" and "exp" claims.
type TokenPair struct {
	Username      string    `json:"username"`
	Authenticated bool      `json:"authenticated"`
	CreatedAt     time.Time `json:"created"`
	ExpiresAt     time.Time `json:"expiration"`
	AccessToken   string    `json:"accessToken"`
	RefreshToken  string    `json:"refreshToken"`
}

// ProviderOptions configures a Provider. Zero values fall back to defaults.
type ProviderOptions struct {
	// AccessTTL is the access token lifetime. Refresh tokens live
	// RefreshTTLMultiplier times longer.
	AccessTTL time.Duration

	// Issuer is used when the context carries no request origin.
	Issuer string

	// Now is the clock, mostly overridden by tests.
	Now func() time.Time
}

// Provider issues and verifies HS256 tokens. It holds no mutable state and
// is safe for concurrent use.
type Provider struct {
	keys      KeyMaterial
	accessTTL time.Duration
	issuer    string
	now       func() time.Time
	parser    *jwt.Parser
}

// NewProvider creates a Provider over already-derived key material.
func NewProvider(keys KeyMaterial, opts ProviderOptions) (*Provider, error) {
	if keys.IsZero() {
		return nil, ErrEmptySecret
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTokenTTL
	}
	if opts.Issuer == "" {
		opts.Issuer = DefaultIssuer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Provider{
		keys:      keys,
		accessTTL: opts.AccessTTL,
		issuer:    opts.Issuer,
		now:       opts.Now,
		// Expiry is checked by Claims.ValidateExpiry against our own clock,
		// so the library's claim validation is turned off. Strict decoding
		// rejects signatures whose trailing padding bits were tampered with.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{keys.Algorithm()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// AccessTTL returns the configured access token lifetime.
func (p *Provider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the refresh token lifetime.
func (p *Provider) RefreshTTL() time.Duration { return RefreshTTLMultiplier * p.accessTTL }

// Issue mints an access and refresh token for username.
func (p *Provider) Issue(ctx context.Context, username string, roles []string) (TokenPair, error) {
	now := p.now().Truncate(time.Second)

	access := NewAccessClaims(username, roles, p.issuerFor(ctx), p.accessTTL, now)
	accessToken, err := p.sign(access)
	if err != nil {
		return TokenPair{}, fmt.Errorf("jwtx: sign access token: %w", err)
	}

	refresh := NewRefreshClaims(username, roles, p.accessTTL, now)
	refreshToken, err := p.sign(refresh)
	if err != nil {
		return TokenPair{}, fmt.Errorf("jwtx: sign refresh token: %w", err)
	}

	return TokenPair{
		Username:      username,
		Authenticated: true,
		CreatedAt:     now,
		ExpiresAt:     now.Add(p.accessTTL),
		AccessToken:   accessToken,
		RefreshToken:  refreshToken,
	}, nil
}

// Verify checks the signature and expiry of token and returns its claims.
// Failures wrap one of ErrMalformedToken, ErrBadSignature or ErrExpiredToken.
func (p *Provider) Verify(token string) (Claims, error) {
	claims := &Claims{}
	parsed, err := p.parser.ParseWithClaims(token, claims, p.keyFunc)
	if err != nil {
		return Claims{}, classify(parsed, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrBadSignature
	}

	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrMalformedToken)
	}
	if err := claims.ValidateExpiry(p.now()); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}

// Refresh verifies a refresh token, optionally prefixed with "Bearer ", and
// issues a new pair from the subject and roles it carries. Credentials and
// issuer are not re-checked.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	raw := strings.TrimPrefix(refreshToken, BearerPrefix)

	claims, err := p.Verify(raw)
	if err != nil {
		return TokenPair{}, err
	}

	return p.Issue(ctx, claims.Subject, claims.Roles)
}

// ResolveFromHeader extracts the token from an Authorization header value.
// It only accepts the "Bearer " scheme.
func ResolveFromHeader(header string) (string, bool) {
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := header[len(BearerPrefix):]
	if token == "" {
		return "", false
	}
	return token, true
}

func (p *Provider) sign(c Claims) (string, error) {
	return jwt.NewWithClaims(p.keys.method, c).SignedString(p.keys.key())
}

func (p *Provider) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return p.keys.key(), nil
}

func (p *Provider) issuerFor(ctx context.Context) string {
	if iss, ok := IssuerFromContext(ctx); ok {
		return iss
	}
	return p.issuer
}

// classify maps parser errors onto our error kinds. token.Method is only
// set once the header and payload decoded cleanly, so a malformed error
// after that point came from the signature segment.
func classify(token *jwt.Token, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed) && token != nil && token.Method != nil:
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable) && token != nil && token.Method != nil:
		return fmt.Errorf("%w: %w", ErrBadSignature, err)
	default:
		return fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
}

type issuerCtxKey struct{}

// WithIssuer stores the issuer (normally the request origin) for Issue.
func WithIssuer(ctx context.Context, issuer string) context.Context {
	if issuer == "" {
		return ctx
	}
	return context.WithValue(ctx, issuerCtxKey{}, issuer)
}

// IssuerFromContext returns the issuer stored by WithIssuer.
func IssuerFromContext(ctx context.Context) (string, bool) {
	iss, ok := ctx.Value(issuerCtxKey{}).(string)
	return iss, ok && iss != ""
}
