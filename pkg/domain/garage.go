package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultGoal is the sub-account goal a new garage starts with
const DefaultGoal = 5

// Garage is a tenant of the console
type Garage struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	CompanyEmail     string    `json:"company_email"`
	CompanyPhone     string    `json:"company_phone"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	ZipCode          string    `json:"zip_code"`
	State            string    `json:"state"`
	Country          string    `json:"country"`
	WhiteLabel       bool      `json:"white_label"`
	GarageLogo       string    `json:"garage_logo"`
	Goal             int       `json:"goal"`
	ConnectAccountID string    `json:"connect_account_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	SidebarOptions []*SidebarOption `json:"sidebar_options,omitempty"`
	SubAccounts    []*SubAccount    `json:"sub_accounts,omitempty"`
}

// GarageUpdate is a partial update of a garage's mutable fields.
// Nil fields are left untouched.
type GarageUpdate struct {
	Name             *string `json:"name,omitempty"`
	CompanyEmail     *string `json:"company_email,omitempty"`
	CompanyPhone     *string `json:"company_phone,omitempty"`
	Address          *string `json:"address,omitempty"`
	City             *string `json:"city,omitempty"`
	ZipCode          *string `json:"zip_code,omitempty"`
	State            *string `json:"state,omitempty"`
	Country          *string `json:"country,omitempty"`
	WhiteLabel       *bool   `json:"white_label,omitempty"`
	GarageLogo       *string `json:"garage_logo,omitempty"`
	Goal             *int    `json:"goal,omitempty"`
	ConnectAccountID *string `json:"connect_account_id,omitempty"`
}

// MutableGarageFields lists the field names accepted by GarageUpdate.Set
var MutableGarageFields = []string{
	"name", "company_email", "company_phone", "address", "city", "zip_code",
	"state", "country", "white_label", "garage_logo", "goal", "connect_account_id",
}

// IsEmpty reports whether the update changes nothing
func (u GarageUpdate) IsEmpty() bool {
	return u.Name == nil && u.CompanyEmail == nil && u.CompanyPhone == nil &&
		u.Address == nil && u.City == nil && u.ZipCode == nil && u.State == nil &&
		u.Country == nil && u.WhiteLabel == nil && u.GarageLogo == nil &&
		u.Goal == nil && u.ConnectAccountID == nil
}

// Set assigns a single field by its column name. Unknown fields and values
// of the wrong type are rejected with ErrUnknownField or ErrInvalidValue.
func (u *GarageUpdate) Set(field string, value any) error {
	field = strings.ToLower(strings.TrimSpace(field))
	switch field {
	case "white_label":
		b, err := toBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		u.WhiteLabel = &b
		return nil
	case "goal":
		n, err := toInt(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		u.Goal = &n
		return nil
	}

	s, ok := value.(string)
	if !ok {
		if _, known := stringField(u, field); known {
			return fmt.Errorf("%w: %s: expected string, got %T", ErrInvalidValue, field, value)
		}
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	ptr, known := stringField(u, field)
	if !known {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	*ptr = &s
	return nil
}

func stringField(u *GarageUpdate, field string) (**string, bool) {
	switch field {
	case "name":
		return &u.Name, true
	case "company_email":
		return &u.CompanyEmail, true
	case "company_phone":
		return &u.CompanyPhone, true
	case "address":
		return &u.Address, true
	case "city":
		return &u.City, true
	case "zip_code":
		return &u.ZipCode, true
	case "state":
		return &u.State, true
	case "country":
		return &u.Country, true
	case "garage_logo":
		return &u.GarageLogo, true
	case "connect_account_id":
		return &u.ConnectAccountID, true
	}
	return nil, false
}

// Apply copies the non-nil fields of u onto g
func (u GarageUpdate) Apply(g *Garage) {
	if u.Name != nil {
		g.Name = *u.Name
	}
	if u.CompanyEmail != nil {
		g.CompanyEmail = *u.CompanyEmail
	}
	if u.CompanyPhone != nil {
		g.CompanyPhone = *u.CompanyPhone
	}
	if u.Address != nil {
		g.Address = *u.Address
	}
	if u.City != nil {
		g.City = *u.City
	}
	if u.ZipCode != nil {
		g.ZipCode = *u.ZipCode
	}
	if u.State != nil {
		g.State = *u.State
	}
	if u.Country != nil {
		g.Country = *u.Country
	}
	if u.WhiteLabel != nil {
		g.WhiteLabel = *u.WhiteLabel
	}
	if u.GarageLogo != nil {
		g.GarageLogo = *u.GarageLogo
	}
	if u.Goal != nil {
		g.Goal = *u.Goal
	}
	if u.ConnectAccountID != nil {
		g.ConnectAccountID = *u.ConnectAccountID
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}
