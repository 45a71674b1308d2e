// Package model defines the core domain models used throughout the application.
package model

import "time"

// LeadStatus tracks where a lead sits in the sales pipeline.
type LeadStatus string

// Lead status constants.
const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusNurturing LeadStatus = "nurturing"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// LeadStatuses lists every pipeline stage in funnel order.
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusNurturing,
	LeadStatusQualified,
	LeadStatusConverted,
	LeadStatusLost,
}

// Valid reports whether s is a known status.
func (s LeadStatus) Valid() bool {
	for _, known := range LeadStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// DefaultLeadSource is recorded when a submission does not name its source.
const DefaultLeadSource = "website_form"

// Lead is a prospective customer captured from an inbound submission.
type Lead struct {
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty"`
	LastContactAt   *time.Time `json:"last_contact_at,omitempty"`
	ConversionDate  *time.Time `json:"conversion_date,omitempty"`
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone,omitempty"`
	Company         string     `json:"company,omitempty"`
	Role            string     `json:"role,omitempty"`
	Location        string     `json:"location,omitempty"`
	Message         string     `json:"message,omitempty"`
	Source          string     `json:"source"`
	Status          LeadStatus `json:"status"`
}

// LeadUpdate carries the contact fields an operator may correct after intake.
// Nil fields are left untouched.
type LeadUpdate struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone    *string `json:"phone,omitempty"`
	Company  *string `json:"company,omitempty"`
	Role     *string `json:"role,omitempty"`
	Location *string `json:"location,omitempty"`
	Message  *string `json:"message,omitempty"`
}

// Apply copies the non-nil fields onto lead.
func (u LeadUpdate) Apply(lead *Lead) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&lead.Name, u.Name)
	set(&lead.Email, u.Email)
	set(&lead.Phone, u.Phone)
	set(&lead.Company, u.Company)
	set(&lead.Role, u.Role)
	set(&lead.Location, u.Location)
	set(&lead.Message, u.Message)
}

// LeadDetails is a lead together with everything recorded against it.
type LeadDetails struct {
	Lead        Lead              `json:"lead"`
	Products    []ProductInterest `json:"products"`
	Activities  []Activity        `json:"activities"`
	Assignments []Assignment      `json:"assignments"`
}

// LeadSubmission is the raw intake payload from a form or API client.
type LeadSubmission struct {
	Name     string           `json:"name" validate:"required,min=2,max=255"`
	Email    string           `json:"email" validate:"required,email"`
	Phone    string           `json:"phone,omitempty" validate:"max=32"`
	Company  string           `json:"company,omitempty" validate:"max=255"`
	Role     string           `json:"role,omitempty" validate:"max=100"`
	Location string           `json:"location,omitempty" validate:"max=255"`
	Message  string           `json:"message,omitempty"`
	Source   string           `json:"source,omitempty" validate:"max=100"`
	Products []ProductRequest `json:"product_interests" validate:"dive"`
}

// ProductRequest is one product line of a submission.
type ProductRequest struct {
	Category string   `json:"category" validate:"required,max=100"`
	Product  string   `json:"product" validate:"required,max=255"`
	Quantity Quantity `json:"quantity"`
	Notes    string   `json:"notes,omitempty"`
}
