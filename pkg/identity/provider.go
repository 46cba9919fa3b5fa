package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/observability"
)

// SessionRoleUpdater writes the role claim carried by an identity's session
type SessionRoleUpdater interface {
	UpdateSessionRole(ctx context.Context, identityID string, role auth.Role) error
}

// Provider resolves the identity behind a request and updates its role claim
type Provider interface {
	SessionRoleUpdater
	CurrentIdentity(r *http.Request) (*auth.Identity, error)
}

// Config configures the OIDC provider
type Config struct {
	IssuerURL     string        `yaml:"issuer_url"`
	ClientID      string        `yaml:"client_id"`
	ClientSecret  string        `yaml:"client_secret"`
	RedirectURL   string        `yaml:"redirect_url"`
	Scopes        []string      `yaml:"scopes"`
	SessionCookie string        `yaml:"session_cookie"`
	SecureCookies bool          `yaml:"secure_cookies"`
	SessionTTL    time.Duration `yaml:"session_ttl"`
	PostLoginURL  string        `yaml:"post_login_url"`
	SignInURL     string        `yaml:"sign_in_url"`
}

// Validate validates the OIDC configuration
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required")
	}
	if c.IssuerURL == "" {
		return fmt.Errorf("issuer_url is required")
	}
	if c.RedirectURL == "" {
		return fmt.Errorf("redirect_url is required")
	}
	if !slices.Contains(c.Scopes, oidc.ScopeOpenID) {
		return fmt.Errorf("'openid' scope is required for OIDC")
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.SessionCookie == "" {
		c.SessionCookie = "garage_session"
	}
	if c.PostLoginURL == "" {
		c.PostLoginURL = "/garage"
	}
	if c.SignInURL == "" {
		c.SignInURL = "/garage/sign-in"
	}
	return c
}

// OIDCProvider implements Provider with OpenID Connect and Redis-backed sessions
type OIDCProvider struct {
	cfg          Config
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
	sessions     *RedisSessionStore
	logger       *observability.Logger
}

// NewOIDCProvider discovers the issuer and creates the provider
func NewOIDCProvider(ctx context.Context, cfg Config, sessions *RedisSessionStore, logger *observability.Logger) (*OIDCProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OIDC config: %w", err)
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return newOIDCProvider(cfg, verifier, provider.Endpoint(), sessions, logger), nil
}

func newOIDCProvider(cfg Config, verifier *oidc.IDTokenVerifier, endpoint oauth2.Endpoint, sessions *RedisSessionStore, logger *observability.Logger) *OIDCProvider {
	cfg = cfg.withDefaults()
	return &OIDCProvider{
		cfg:      cfg,
		verifier: verifier,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
		sessions: sessions,
		logger:   logger,
	}
}

// SignInURL is where signed-out users are sent
func (p *OIDCProvider) SignInURL() string {
	return p.cfg.SignInURL
}

// CurrentIdentity returns the identity behind r. A bearer ID token takes
// precedence over the session cookie. A request with neither, or with an
// expired session, yields (nil, nil).
func (p *OIDCProvider) CurrentIdentity(r *http.Request) (*auth.Identity, error) {
	if raw, ok := bearerToken(r); ok {
		return p.IdentityFromIDToken(r.Context(), raw)
	}

	cookie, err := r.Cookie(p.cfg.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	session, err := p.sessions.GetSession(r.Context(), cookie.Value)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	identity := session.Identity
	return &identity, nil
}

// UpdateSessionRole stores the role claim for identityID
func (p *OIDCProvider) UpdateSessionRole(ctx context.Context, identityID string, role auth.Role) error {
	return p.sessions.UpdateSessionRole(ctx, identityID, role)
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// IdentityFromIDToken verifies a raw ID token and maps its claims
func (p *OIDCProvider) IdentityFromIDToken(ctx context.Context, raw string) (*auth.Identity, error) {
	token, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: failed to parse claims: %w", ErrInvalidToken, err)
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: missing email claim", ErrInvalidToken)
	}
	if !claims.EmailVerified {
		return nil, fmt.Errorf("%w: email %s is not verified", ErrInvalidToken, claims.Email)
	}

	name := claims.Name
	if name == "" {
		name = auth.DisplayName(claims.GivenName, claims.FamilyName)
	}
	if name == "" {
		name = claims.Email
	}

	return &auth.Identity{
		ID:            token.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		DisplayName:   name,
		AvatarURL:     claims.Picture,
	}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
