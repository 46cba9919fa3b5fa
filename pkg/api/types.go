package api

import (
	"time"

	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
)

// UpsertGarageRequest is the garage details form. Plan is optional.
type UpsertGarageRequest struct {
	Name             string `json:"name"`
	CompanyEmail     string `json:"company_email"`
	CompanyPhone     string `json:"company_phone"`
	Address          string `json:"address"`
	City             string `json:"city"`
	ZipCode          string `json:"zip_code"`
	State            string `json:"state"`
	Country          string `json:"country"`
	WhiteLabel       bool   `json:"white_label"`
	GarageLogo       string `json:"garage_logo"`
	Goal             int    `json:"goal"`
	ConnectAccountID string `json:"connect_account_id"`
	Plan             string `json:"plan,omitempty"`
}

func (req UpsertGarageRequest) garage(id string) *domain.Garage {
	return &domain.Garage{
		ID:               id,
		Name:             req.Name,
		CompanyEmail:     req.CompanyEmail,
		CompanyPhone:     req.CompanyPhone,
		Address:          req.Address,
		City:             req.City,
		ZipCode:          req.ZipCode,
		State:            req.State,
		Country:          req.Country,
		WhiteLabel:       req.WhiteLabel,
		GarageLogo:       req.GarageLogo,
		Goal:             req.Goal,
		ConnectAccountID: req.ConnectAccountID,
	}
}

// UpdateGoalRequest sets the sub-account goal of a garage
type UpdateGoalRequest struct {
	Goal int `json:"goal"`
}

// UpdateFieldRequest sets a single garage field
type UpdateFieldRequest struct {
	Value any `json:"value"`
}

// CreateSubAccountRequest is the sub-account details form
type CreateSubAccountRequest struct {
	Name           string `json:"name"`
	CompanyEmail   string `json:"company_email"`
	CompanyPhone   string `json:"company_phone"`
	Address        string `json:"address"`
	City           string `json:"city"`
	ZipCode        string `json:"zip_code"`
	State          string `json:"state"`
	Country        string `json:"country"`
	SubAccountLogo string `json:"sub_account_logo"`
	Goal           int    `json:"goal"`
}

func (req CreateSubAccountRequest) subAccount(garageID string) *domain.SubAccount {
	return &domain.SubAccount{
		GarageID:       garageID,
		Name:           req.Name,
		CompanyEmail:   req.CompanyEmail,
		CompanyPhone:   req.CompanyPhone,
		Address:        req.Address,
		City:           req.City,
		ZipCode:        req.ZipCode,
		State:          req.State,
		Country:        req.Country,
		SubAccountLogo: req.SubAccountLogo,
		Goal:           req.Goal,
	}
}

// SendInvitationRequest invites an email to a garage. An empty role means
// the default sub-account role.
type SendInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// InitUserRequest starts the create-a-garage flow
type InitUserRequest struct {
	Role string `json:"role"`
}

// ChangePlanRequest moves a garage to another plan
type ChangePlanRequest struct {
	Plan string `json:"plan"`
}

// SubscriptionResponse is a subscription with its pricing
type SubscriptionResponse struct {
	*domain.Subscription
	Pricing     *billing.PlanPricing `json:"pricing,omitempty"`
	TrialEndsAt *time.Time           `json:"trial_ends_at,omitempty"`
}

func newSubscriptionResponse(sub *domain.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{Subscription: sub}
	if pricing, ok := billing.Pricing(sub); ok {
		resp.Pricing = &pricing
	}
	if sub.Status == domain.SubscriptionTrialing {
		ends := billing.TrialEndsAt(sub.CreatedAt)
		resp.TrialEndsAt = &ends
	}
	return resp
}
