package domain

import "time"

// SidebarOption is a navigation entry owned by either a garage or a sub-account
type SidebarOption struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	Link         string    `json:"link"`
	GarageID     *string   `json:"garage_id,omitempty"`
	SubAccountID *string   `json:"sub_account_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GarageSidebar returns the navigation seeded for a newly created garage.
// IDs and timestamps are left for the store to fill.
func GarageSidebar(garageID string) []*SidebarOption {
	base := "/garage/" + garageID
	entries := []struct{ name, icon, link string }{
		{"Dashboard", "category", base},
		{"Launchpad", "clipboardIcon", base + "/launchpad"},
		{"Billing", "payment", base + "/billing"},
		{"Settings", "settings", base + "/settings"},
		{"Sub Accounts", "person", base + "/all-subaccounts"},
		{"Team", "shield", base + "/team"},
	}

	opts := make([]*SidebarOption, 0, len(entries))
	for _, e := range entries {
		id := garageID
		opts = append(opts, &SidebarOption{Name: e.name, Icon: e.icon, Link: e.link, GarageID: &id})
	}
	return opts
}

// SubAccountSidebar returns the navigation seeded for a newly created sub-account
func SubAccountSidebar(subAccountID string) []*SidebarOption {
	base := "/subaccount/" + subAccountID
	entries := []struct{ name, icon, link string }{
		{"Launchpad", "clipboardIcon", base + "/launchpad"},
		{"Settings", "settings", base + "/settings"},
		{"Funnels", "pipelines", base + "/funnels"},
		{"Media", "database", base + "/media"},
		{"Automations", "chip", base + "/automations"},
		{"Pipelines", "flag", base + "/pipelines"},
		{"Contacts", "person", base + "/contacts"},
		{"Dashboard", "category", base},
	}

	opts := make([]*SidebarOption, 0, len(entries))
	for _, e := range entries {
		id := subAccountID
		opts = append(opts, &SidebarOption{Name: e.name, Icon: e.icon, Link: e.link, SubAccountID: &id})
	}
	return opts
}
