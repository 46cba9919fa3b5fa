// Package api provides the HTTP API of the garage console.
//
// The API is built on gorilla/mux and organized into handler groups, each a
// RouteRegistrar:
//
//   - LandingHandlers: the /garage landing page, which accepts pending
//     invitations and redirects visitors to their garage, and the first
//     step of the create-a-garage flow
//   - GarageHandlers: garage details, goal, logo, sub-accounts, team
//     invitations and the activity log under /api/v1/garages/{garage_id}
//   - BillingHandlers: plans and the subscription of a garage
//   - AuthHandlers: the identity provider's browser sign-in flow
//
// # Usage
//
//	server := api.NewServer(identityMiddleware.Handler, rateLimiter.Handler)
//	server.RegisterRoutes(
//		api.NewAuthHandlers(provider),
//		api.NewLandingHandlers(provisioner, provider.SignInURL(), logger),
//		api.NewGarageHandlers(garageService, activity, store, logger),
//		api.NewBillingHandlers(billingService, garageService.Checker(), store, logger),
//	)
//	http.ListenAndServe(":8080", server)
//
// # Errors
//
// Service errors map onto status codes: not authenticated 401, permission
// denied or plan limit 403, not found 404, conflict 409, validation 400 and
// storage unavailable 503. Anything else is a 500. Store causes are logged
// and never sent to clients; bodies carry only the coarse operation error:
//
//	{"error": "could not create garage", "request_id": "..."}
package api
