package model

import (
	"fmt"
	"strings"
)

// Property is a single listing. The whole site works on one flat collection
// of these.
type Property struct {
	ID           int    `json:"id"`
	Location     string `json:"location"`
	Address      string `json:"address"`
	Beds         int    `json:"beds"`
	Baths        int    `json:"baths"`
	Rent         int    `json:"rent"`
	Deposit      int    `json:"deposit"`
	Contract     string `json:"contract"`
	Availability string `json:"availability"`
	Description  string `json:"description"`
	Images       string `json:"images"`
}

// Display fallbacks for blank fields.
const (
	DefaultContract     = "3 to 5 Years"
	DefaultAvailability = "Available Now!"
	DefaultDescription  = "Contact us for more details."
)

// Normalize fills fields that have a fixed default when left empty.
func (p *Property) Normalize() {
	p.Location = strings.TrimSpace(p.Location)
	p.Address = strings.TrimSpace(p.Address)
	p.Images = strings.TrimSpace(p.Images)
	if strings.TrimSpace(p.Contract) == "" {
		p.Contract = DefaultContract
	}
}

// Validate checks the fields an admin form can get wrong.
func (p *Property) Validate() error {
	if strings.TrimSpace(p.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrInvalid)
	}
	if p.Beds < 0 || p.Baths < 0 {
		return fmt.Errorf("%w: beds and baths must not be negative", ErrInvalid)
	}
	if p.Rent < 0 || p.Deposit < 0 {
		return fmt.Errorf("%w: rent and deposit must not be negative", ErrInvalid)
	}
	return nil
}

// Patch is a partial update. Nil fields are left untouched by Apply.
type Patch struct {
	Location     *string `json:"location,omitempty"`
	Address      *string `json:"address,omitempty"`
	Beds         *int    `json:"beds,omitempty"`
	Baths        *int    `json:"baths,omitempty"`
	Rent         *int    `json:"rent,omitempty"`
	Deposit      *int    `json:"deposit,omitempty"`
	Contract     *string `json:"contract,omitempty"`
	Availability *string `json:"availability,omitempty"`
	Description  *string `json:"description,omitempty"`
	Images       *string `json:"images,omitempty"`
}

// Apply returns p with the supplied patch fields merged in. The ID is never
// changed.
func (patch Patch) Apply(p Property) Property {
	setString(&p.Location, patch.Location)
	setString(&p.Address, patch.Address)
	setInt(&p.Beds, patch.Beds)
	setInt(&p.Baths, patch.Baths)
	setInt(&p.Rent, patch.Rent)
	setInt(&p.Deposit, patch.Deposit)
	setString(&p.Contract, patch.Contract)
	setString(&p.Availability, patch.Availability)
	setString(&p.Description, patch.Description)
	setString(&p.Images, patch.Images)
	return p
}

// Empty reports whether the patch would change nothing.
func (patch Patch) Empty() bool {
	return patch == Patch{}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
