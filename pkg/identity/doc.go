// Package identity connects the console to its external identity provider.
//
// OIDCProvider performs the OpenID Connect login flow (go-oidc + x/oauth2),
// keeps browser sessions in Redis and resolves the identity of each request.
// It also stores the role claim the provider exposes on the session, which
// the provisioning workflow updates when an invitation is accepted.
//
//	sessions := identity.NewRedisSessionStore(redisClient, 24*time.Hour)
//	provider, err := identity.NewOIDCProvider(ctx, cfg, sessions, logger)
//	id, err := provider.CurrentIdentity(r)
package identity
