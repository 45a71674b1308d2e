package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/leadflow/internal/common"
	"github.com/Veraticus/leadflow/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// normalize trims a copy of the submission, validates it and rewrites a valid
// phone number in E.164 form. Numbers that parse but are not valid for any region
// are kept as typed.
func (e *Engine) normalize(sub model.LeadSubmission) (model.LeadSubmission, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Company = strings.TrimSpace(sub.Company)
	sub.Role = strings.TrimSpace(sub.Role)
	sub.Location = strings.TrimSpace(sub.Location)
	sub.Source = strings.TrimSpace(sub.Source)
	if sub.Source == "" {
		sub.Source = model.DefaultLeadSource
	}
	sub.Products = append([]model.ProductRequest(nil), sub.Products...)
	for i := range sub.Products {
		sub.Products[i].Category = strings.TrimSpace(sub.Products[i].Category)
		sub.Products[i].Product = strings.TrimSpace(sub.Products[i].Product)
	}

	if err := e.validate.Struct(sub); err != nil {
		return sub, invalidSubmission(err)
	}

	if sub.Phone != "" {
		num, err := libphonenumber.Parse(sub.Phone, e.phoneRegion)
		if err != nil {
			return sub, fmt.Errorf("%w: phone %q: %w", common.ErrInvalidSubmission, sub.Phone, err)
		}
		if libphonenumber.IsValidNumber(num) {
			sub.Phone = libphonenumber.Format(num, libphonenumber.E164)
		} else {
			e.logger.Warn("Keeping unrecognized phone number as submitted", "phone", sub.Phone)
		}
	}

	return sub, nil
}

func (e *Engine) validateUpdate(u model.LeadUpdate) error {
	if u.Name != nil && len(strings.TrimSpace(*u.Name)) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", common.ErrInvalidSubmission)
	}
	if err := e.validate.Struct(u); err != nil {
		return invalidSubmission(err)
	}
	return nil
}

func invalidSubmission(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidSubmission, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidSubmission, strings.Join(fields, "; "))
}
