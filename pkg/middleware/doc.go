// Package middleware provides HTTP middleware for identity resolution, garage
// scoping, and rate limiting.
//
// # Middleware Components
//
// IdentityMiddleware: signed-in identity from the identity provider
//
//	router.Use(middleware.NewIdentityMiddleware(provider, logger, false).Handler)
//	// Bearer ID token first, then the session cookie
//
// GarageScopeMiddleware: garage from the {garage_id} route variable
//
//	api.Use(middleware.GarageScopeMiddleware(store, logger))
//	// 404 when the garage does not exist
//
// RateLimitMiddleware: Redis-backed fixed-window rate limiting
//
//	limiter := middleware.NewRateLimitMiddleware(redisClient,
//		middleware.PerIdentityRateLimitConfig(), middleware.DefaultRateLimitConfig(), logger)
//	router.Use(limiter.Handler)
//
// # Rate Limiting
//
// Anonymous: 100 req/min per client address
// Signed in: 1000 req/min per identity
//
// Redis failures let requests through.
//
// # Related Packages
//
//   - pkg/identity: identity provider
//   - pkg/rbac: permission checking
package middleware
