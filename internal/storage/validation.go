package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidLead       = errors.New("invalid lead")
	ErrInvalidProduct    = errors.New("invalid product interest")
	ErrInvalidActivity   = errors.New("invalid activity")
	ErrInvalidAssignment = errors.New("invalid assignment")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateLead(lead *model.Lead) error {
	if lead == nil {
		return fmt.Errorf("%w: lead", ErrNilParameter)
	}
	switch {
	case lead.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidLead)
	case strings.TrimSpace(lead.Name) == "":
		return fmt.Errorf("%w: missing name", ErrInvalidLead)
	case strings.TrimSpace(lead.Email) == "":
		return fmt.Errorf("%w: missing email", ErrInvalidLead)
	case !lead.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidLead, lead.Status)
	case lead.CreatedAt.IsZero():
		return fmt.Errorf("%w: missing created_at", ErrInvalidLead)
	}
	return nil
}

func validateProducts(products []model.ProductInterest) error {
	for i, p := range products {
		switch {
		case p.ID == "":
			return fmt.Errorf("product at index %d: %w: missing ID", i, ErrInvalidProduct)
		case p.LeadID == "":
			return fmt.Errorf("product at index %d: %w: missing lead ID", i, ErrInvalidProduct)
		case strings.TrimSpace(p.Product) == "":
			return fmt.Errorf("product at index %d: %w: missing product", i, ErrInvalidProduct)
		}
	}
	return nil
}

func validateActivity(a *model.Activity) error {
	if a == nil {
		return fmt.Errorf("%w: activity", ErrNilParameter)
	}
	switch {
	case a.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidActivity)
	case a.LeadID == "":
		return fmt.Errorf("%w: missing lead ID", ErrInvalidActivity)
	case a.Type == "":
		return fmt.Errorf("%w: missing type", ErrInvalidActivity)
	case a.Status == "":
		return fmt.Errorf("%w: missing status", ErrInvalidActivity)
	case a.ActorType == "":
		return fmt.Errorf("%w: missing actor type", ErrInvalidActivity)
	}
	if a.Metadata != nil && a.Metadata.ActivityType() != a.Type {
		return fmt.Errorf("%w: %s metadata on %s activity", ErrInvalidActivity, a.Metadata.ActivityType(), a.Type)
	}
	return nil
}

func validateAssignment(a *model.Assignment) error {
	if a == nil {
		return fmt.Errorf("%w: assignment", ErrNilParameter)
	}
	switch {
	case a.ID == "":
		return fmt.Errorf("%w: missing ID", ErrInvalidAssignment)
	case a.LeadID == "":
		return fmt.Errorf("%w: missing lead ID", ErrInvalidAssignment)
	case a.OwnerID == "":
		return fmt.Errorf("%w: missing owner", ErrInvalidAssignment)
	case a.SLADeadline.Before(a.AssignedAt):
		return fmt.Errorf("%w: deadline before assignment", ErrInvalidAssignment)
	}
	return nil
}
