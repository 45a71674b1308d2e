package email

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/leadflow/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	r.now = func() time.Time { return time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC) }
	return r
}

func TestRenderer_Names(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, []string{
		TemplateAcknowledgement,
		TemplateFollowUpReminder,
		TemplateImmediateResponse,
		TemplateNurtureDay0,
		TemplateNurtureDay3,
	}, r.Names())
}

func TestRenderer_Render(t *testing.T) {
	r := newTestRenderer(t)
	params := service.EmailParams{
		Name:         "Priya",
		Products:     []string{"Marble Hex", "Slate"},
		Action:       "call",
		ScheduledFor: "2025-01-02 10:00",
	}

	tests := []struct {
		name        string
		template    string
		wantSubject string
		wantBody    []string
	}{
		{
			name:        "acknowledgement lists products",
			template:    TemplateAcknowledgement,
			wantSubject: "Thank you for your inquiry, Priya!",
			wantBody:    []string{"Dear Priya", "<strong>Marble Hex</strong>", "<strong>Slate</strong>", "&copy; 2025"},
		},
		{
			name:        "priority response",
			template:    TemplateImmediateResponse,
			wantSubject: "Priority Response: Your Quote Request - Priya",
			wantBody:    []string{"HIGH PRIORITY", "Marble Hex"},
		},
		{
			name:        "nurture day 0",
			template:    TemplateNurtureDay0,
			wantSubject: "Welcome! Here's what you need to know - Priya",
			wantBody:    []string{"Hi Priya"},
		},
		{
			name:        "nurture day 3",
			template:    TemplateNurtureDay3,
			wantSubject: "Still interested? Here's a special offer - Priya",
			wantBody:    []string{"WELCOME10"},
		},
		{
			name:        "follow-up reminder",
			template:    TemplateFollowUpReminder,
			wantSubject: "Follow-up Reminder: Priya - call",
			wantBody:    []string{"Action Required:</strong> call", "2025-01-02 10:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.template, params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSubject, out.Subject)
			for _, want := range tt.wantBody {
				assert.Contains(t, out.HTML, want)
			}
		})
	}
}

func TestRenderer_EscapesBodyNotSubject(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(TemplateAcknowledgement, service.EmailParams{Name: "O'Brien <Ltd>"})
	require.NoError(t, err)
	assert.Equal(t, "Thank you for your inquiry, O'Brien <Ltd>!", out.Subject)
	assert.NotContains(t, out.HTML, "<Ltd>")
	assert.Contains(t, out.HTML, "&lt;Ltd&gt;")
}

func TestRenderer_NoProducts(t *testing.T) {
	r := newTestRenderer(t)

	out, err := r.Render(TemplateAcknowledgement, service.EmailParams{Name: "Sam"})
	require.NoError(t, err)
	assert.False(t, strings.Contains(out.HTML, `class="product-list"`))
}

func TestRenderer_UnknownTemplate(t *testing.T) {
	r := newTestRenderer(t)
	_, err := r.Render("welcome_back", service.EmailParams{})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
