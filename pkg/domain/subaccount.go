package domain

import "time"

// SubAccount is a unit of work inside a garage
type SubAccount struct {
	ID             string    `json:"id"`
	GarageID       string    `json:"garage_id"`
	Name           string    `json:"name"`
	CompanyEmail   string    `json:"company_email"`
	CompanyPhone   string    `json:"company_phone"`
	Address        string    `json:"address"`
	City           string    `json:"city"`
	ZipCode        string    `json:"zip_code"`
	State          string    `json:"state"`
	Country        string    `json:"country"`
	SubAccountLogo string    `json:"sub_account_logo"`
	Goal           int       `json:"goal"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	SidebarOptions []*SidebarOption `json:"sidebar_options,omitempty"`
}
