package routing

import (
	"net/url"
	"strings"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/provisioning"
)

// Kind is what the caller should do with a Destination
type Kind string

const (
	// KindRedirect sends the browser to Location
	KindRedirect Kind = "redirect"
	// KindUnauthorized renders a "not authorised" page
	KindUnauthorized Kind = "unauthorized"
	// KindCreateGarage renders the create-a-garage form
	KindCreateGarage Kind = "create_garage"
)

// DefaultSignInPath is where signed-out visitors are sent
const DefaultSignInPath = "/garage/sign-in"

// stateSeparator joins the path and garage id inside the OAuth state parameter
const stateSeparator = "__"

// Params are the query parameters of the garage landing page
type Params struct {
	Plan  string
	State string
	Code  string
	// Email prefills the create-a-garage form
	Email string
	// SignInPath overrides DefaultSignInPath
	SignInPath string
}

// ParamsFromQuery reads Params from a landing page query string
func ParamsFromQuery(q url.Values) Params {
	return Params{
		Plan:  q.Get("plan"),
		State: q.Get("state"),
		Code:  q.Get("code"),
	}
}

// Destination is the outcome of Decide
type Destination struct {
	Kind     Kind   `json:"kind"`
	Location string `json:"location,omitempty"`
	// CompanyEmail is set for KindCreateGarage
	CompanyEmail string `json:"company_email,omitempty"`
	Reason       string `json:"reason,omitempty"`
}

// Decide maps a garage resolution to where the visitor goes next. It never
// provisions or writes anything.
func Decide(res provisioning.Resolution, user *auth.User, p Params) Destination {
	if garageID, ok := res.GarageID(); ok {
		return decideMember(garageID, user, p)
	}

	if res.Outcome == provisioning.OutcomeSignInRequired {
		signIn := p.SignInPath
		if signIn == "" {
			signIn = DefaultSignInPath
		}
		return Destination{Kind: KindRedirect, Location: signIn}
	}

	// failed provisioning falls through to the create form, as does no garage
	email := p.Email
	if email == "" && user != nil {
		email = user.Email
	}
	return Destination{Kind: KindCreateGarage, CompanyEmail: email}
}

func decideMember(garageID string, user *auth.User, p Params) Destination {
	if user == nil {
		return unauthorized("no user for identity")
	}

	switch {
	case user.Role.IsSubAccountRole():
		return Destination{Kind: KindRedirect, Location: "/subaccount"}

	case user.Role.IsGarageRole():
		base := "/garage/" + url.PathEscape(garageID)
		if p.Plan != "" {
			return Destination{Kind: KindRedirect, Location: base + "/billing?" + url.Values{"plan": {p.Plan}}.Encode()}
		}
		if p.State != "" {
			statePath, stateGarageID, _ := strings.Cut(p.State, stateSeparator)
			if stateGarageID == "" {
				return unauthorized("state carries no garage id")
			}
			location := "/garage/" + url.PathEscape(stateGarageID) + "/" + strings.TrimLeft(statePath, "/")
			return Destination{Kind: KindRedirect, Location: location + "?" + url.Values{"code": {p.Code}}.Encode()}
		}
		return Destination{Kind: KindRedirect, Location: base}
	}

	return unauthorized("role " + string(user.Role) + " has no landing page")
}

func unauthorized(reason string) Destination {
	return Destination{Kind: KindUnauthorized, Reason: reason}
}

// State builds the OAuth state value that brings an owner back to path
// inside garageID
func State(path, garageID string) string {
	return strings.TrimLeft(path, "/") + stateSeparator + garageID
}
