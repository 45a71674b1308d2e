package sheets

// Tab is one worksheet's worth of values, header rows first.
type Tab struct {
	Title      string
	Rows       [][]any
	FrozenRows int64
}

// Tab titles in the exported spreadsheet.
const (
	TabSummary = "Summary"
	TabLeads   = "Leads"
	TabFunnel  = "Funnel"
)

var leadHeader = []any{
	"Created", "Name", "Email", "Phone", "Company", "Role", "Status",
	"Priority", "Lead Type", "Rule", "Method", "Owner", "Next Follow-up", "Products",
}
