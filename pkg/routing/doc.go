// Package routing decides where a visitor of the garage landing page goes
// after their garage membership has been resolved.
//
//	res := provisioner.ResolveGarageForIdentity(ctx, identity)
//	dest := routing.Decide(res, res.User, routing.ParamsFromQuery(r.URL.Query()))
//
// Sub-account members go to /subaccount. Owners and admins go to their
// garage, its billing page when a plan was picked, or back to the page
// named in an OAuth state of the form "<path>__<garageId>". Visitors
// without a garage get the create-a-garage form.
package routing
