// Package billing provides subscription plans and per-garage subscriptions.
//
// # Subscription Plans
//
// Starter (free):
//   - Included: 3 sub-accounts, 2 team members
//
// Basic ($49/month):
//   - Included: 10 sub-accounts, 10 team members
//
// Unlimited Saas ($199/month):
//   - Unlimited sub-accounts and team members
//
// A garage created with a plan starts on a trialing subscription. Plan
// changes keep the current status unless the subscription was canceled.
//
// # Usage Example
//
//	plan, err := billing.ParsePlan(r.URL.Query().Get("plan"))
//	if err != nil {
//		return err
//	}
//	sub, err := service.ChangePlan(ctx, garageID, *plan)
//
// # Related Packages
//
//   - pkg/garages: starts the trial when a garage is created
package billing
