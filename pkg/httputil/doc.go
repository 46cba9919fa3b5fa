// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, garage)
//	httputil.WriteCreated(w, subAccount)
//	httputil.WriteBadRequest(w, "company_email is required")
//
// Error bodies carry the request id set by RequestIDMiddleware:
//
//	{"error": "garage not found", "request_id": "6f1c..."}
//
// # Request Parsing
//
//	var req GoalRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	garageID, ok := httputil.ParsePathStringOrError(w, r, "garage_id")
//	limit, err := httputil.ParseQueryInt(r, "limit", 50)
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(10<<20),
//	)
//
// # Related Packages
//
//   - pkg/middleware: identity and garage scope middleware
package httputil
