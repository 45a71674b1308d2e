// Package leads provides test infrastructure for seeding leads. It offers a
// fluent API over a fixed set of named prospects so tests can ask for
// "the architect" instead of spelling out every field.
//
// Example usage:
//
//	db := testutil.SetupTestDBWithBuilder(t, func(b leads.Builder) leads.Builder {
//		return b.WithBasicLeads()
//	})
//	architect := db.Leads.MustFind(t, leads.LeadArchitect)
package leads

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
	"github.com/Veraticus/leadflow/internal/service"
)

// Builder provides a fluent interface for seeding test leads.
type Builder interface {
	// WithLead adds a single named lead.
	WithLead(name LeadName) Builder

	// WithLeads adds several named leads.
	WithLeads(names ...LeadName) Builder

	// WithBasicLeads adds one lead of each buyer type.
	WithBasicLeads() Builder

	// WithFixture adds the leads of a predefined fixture.
	WithFixture(fixture Fixture) Builder

	// WithStatus overrides the pipeline status of a lead already added.
	WithStatus(name LeadName, status model.LeadStatus) Builder

	// Build stores the leads and their products and returns them in name order.
	Build(ctx context.Context, storage service.Storage) (Leads, error)
}

// LeadName is the strongly-typed name of a canned test prospect.
type LeadName string

// String returns the lead's display name.
func (n LeadName) String() string {
	return string(n)
}

// Canned prospects.
const (
	LeadArchitect   LeadName = "Dana Whitfield"
	LeadHomeowner   LeadName = "Sam Rivera"
	LeadBuilder     LeadName = "Marcus Bell"
	LeadContractor  LeadName = "Priya Natarajan"
	LeadPartnership LeadName = "Elena Ruiz"
	LeadNoProducts  LeadName = "Jo Park"
)

// BaseTime is the creation time of every seeded lead.
var BaseTime = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// Seeded is a stored lead with its products.
type Seeded struct {
	Lead     model.Lead
	Products []model.ProductInterest
}

// Leads is the set of leads a builder stored.
type Leads []Seeded

// Find returns the seeded lead with the given name, or nil.
func (l Leads) Find(name LeadName) *Seeded {
	for i := range l {
		if l[i].Lead.Name == name.String() {
			return &l[i]
		}
	}
	return nil
}

// MustFind returns the seeded lead with the given name or fails the test.
func (l Leads) MustFind(t *testing.T, name LeadName) Seeded {
	t.Helper()
	s := l.Find(name)
	if s == nil {
		t.Fatalf("lead %q not found in test data", name)
	}
	return *s
}

// IDs returns the lead IDs in order.
func (l Leads) IDs() []string {
	ids := make([]string, len(l))
	for i, s := range l {
		ids[i] = s.Lead.ID
	}
	return ids
}

type leadBuilder struct {
	t        *testing.T
	leads    map[LeadName]struct{}
	statuses map[LeadName]model.LeadStatus
}

// NewBuilder creates a lead builder for the given test.
func NewBuilder(t *testing.T) Builder {
	t.Helper()
	return &leadBuilder{
		t:        t,
		leads:    make(map[LeadName]struct{}),
		statuses: make(map[LeadName]model.LeadStatus),
	}
}

func (b *leadBuilder) WithLead(name LeadName) Builder {
	b.leads[name] = struct{}{}
	return b
}

func (b *leadBuilder) WithLeads(names ...LeadName) Builder {
	for _, name := range names {
		b.leads[name] = struct{}{}
	}
	return b
}

func (b *leadBuilder) WithBasicLeads() Builder {
	return b.WithLeads(LeadArchitect, LeadHomeowner, LeadBuilder, LeadContractor)
}

func (b *leadBuilder) WithFixture(fixture Fixture) Builder {
	return b.WithLeads(fixture.Leads()...)
}

func (b *leadBuilder) WithStatus(name LeadName, status model.LeadStatus) Builder {
	b.statuses[name] = status
	return b
}

func (b *leadBuilder) Build(ctx context.Context, storage service.Storage) (Leads, error) {
	b.t.Helper()

	names := make([]LeadName, 0, len(b.leads))
	for name := range b.leads {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	result := make(Leads, 0, len(names))
	for i, name := range names {
		sub, ok := Submission(name)
		if !ok {
			return nil, fmt.Errorf("no canned submission for lead %q", name)
		}

		created := BaseTime.Add(time.Duration(i) * time.Minute)
		lead := model.Lead{
			ID:        fmt.Sprintf("lead-%02d", i+1),
			Name:      sub.Name,
			Email:     sub.Email,
			Phone:     sub.Phone,
			Company:   sub.Company,
			Role:      sub.Role,
			Location:  sub.Location,
			Message:   sub.Message,
			Source:    model.DefaultLeadSource,
			Status:    model.LeadStatusNew,
			CreatedAt: created,
			UpdatedAt: created,
		}
		if status, ok := b.statuses[name]; ok {
			lead.Status = status
		}
		if err := storage.CreateLead(ctx, &lead); err != nil {
			return nil, fmt.Errorf("failed to create lead %q: %w", name, err)
		}

		products := make([]model.ProductInterest, 0, len(sub.Products))
		for j, p := range sub.Products {
			products = append(products, model.ProductInterest{
				ID:        fmt.Sprintf("%s-p%d", lead.ID, j+1),
				LeadID:    lead.ID,
				Category:  p.Category,
				Product:   p.Product,
				Quantity:  p.Quantity,
				Notes:     p.Notes,
				CreatedAt: created,
			})
		}
		if err := storage.CreateProducts(ctx, products); err != nil {
			return nil, fmt.Errorf("failed to create products for %q: %w", name, err)
		}

		result = append(result, Seeded{Lead: lead, Products: products})
	}

	return result, nil
}
