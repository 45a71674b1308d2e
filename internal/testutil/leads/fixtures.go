package leads

import "github.com/Veraticus/leadflow/internal/model"

var submissions = map[LeadName]model.LeadSubmission{
	LeadArchitect: {
		Name:     LeadArchitect.String(),
		Email:    "dana@whitfield-studio.example",
		Phone:    "+1 415 555 0134",
		Company:  "Whitfield Studio",
		Role:     "Architect",
		Location: "San Francisco, CA",
		Message:  "Need urgent quote for 5000 sq ft luxury project",
		Products: []model.ProductRequest{
			{Category: "Flooring", Product: "Wide Plank Oak", Quantity: model.TextQuantity("5000")},
		},
	},
	LeadHomeowner: {
		Name:     LeadHomeowner.String(),
		Email:    "sam.rivera@example.com",
		Role:     "Home Owner",
		Location: "Austin, TX",
		Message:  "Just browsing options for my kitchen remodel",
		Products: []model.ProductRequest{
			{Category: "Tile", Product: "Subway Tile", Quantity: model.TextQuantity("a few boxes")},
		},
	},
	LeadBuilder: {
		Name:     LeadBuilder.String(),
		Email:    "marcus@bellbuild.example",
		Company:  "Bell Build Co",
		Role:     "Builder",
		Location: "Denver, CO",
		Message:  "Pricing for twelve townhomes",
		Products: []model.ProductRequest{
			{Category: "Windows", Product: "Double Hung Window", Quantity: model.NumericQuantity(60)},
			{Category: "Doors", Product: "Fiberglass Entry Door", Quantity: model.NumericQuantity(12)},
		},
	},
	LeadContractor: {
		Name:     LeadContractor.String(),
		Email:    "priya@natarajan-renovations.example",
		Role:     "Contractor",
		Location: "Portland, OR",
		Message:  "Looking for a supplier for an upcoming job",
		Products: []model.ProductRequest{
			{Category: "Decking", Product: "Composite Decking", Quantity: model.NumericQuantity(40)},
		},
	},
	LeadPartnership: {
		Name:     LeadPartnership.String(),
		Email:    "elena@ruiz-design.example",
		Company:  "Ruiz Design Group",
		Role:     "Interior Designer",
		Location: "Miami, FL",
		Message:  "Interested in a partnership to carry your line in our showroom",
	},
	LeadNoProducts: {
		Name:    LeadNoProducts.String(),
		Email:   "jo.park@example.com",
		Message: "Do you ship to Canada?",
	},
}

// Submission returns the intake payload behind a canned lead. The returned
// value is a copy and may be modified.
func Submission(name LeadName) (model.LeadSubmission, bool) {
	sub, ok := submissions[name]
	if !ok {
		return model.LeadSubmission{}, false
	}
	sub.Products = append([]model.ProductRequest(nil), sub.Products...)
	return sub, true
}

// Fixture is a predefined set of leads for a test scenario.
type Fixture interface {
	Name() string
	Description() string
	Leads() []LeadName
}

type fixture struct {
	name        string
	description string
	leads       []LeadName
}

func (f *fixture) Name() string        { return f.name }
func (f *fixture) Description() string { return f.description }
func (f *fixture) Leads() []LeadName   { return f.leads }

// Predefined fixtures.
var (
	// FixtureApprovalQueue holds leads that trip at least one approval trigger.
	FixtureApprovalQueue = &fixture{
		name:        "ApprovalQueue",
		description: "Professional buyers with quantities over the approval threshold",
		leads:       []LeadName{LeadArchitect, LeadBuilder},
	}

	// FixtureFullPipeline holds every canned lead.
	FixtureFullPipeline = &fixture{
		name:        "FullPipeline",
		description: "One lead of every kind, including one with no products",
		leads: []LeadName{
			LeadArchitect,
			LeadHomeowner,
			LeadBuilder,
			LeadContractor,
			LeadPartnership,
			LeadNoProducts,
		},
	}
)
