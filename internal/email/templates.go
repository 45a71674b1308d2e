// Package email renders the lead communication templates and delivers them
// through a pluggable transport.
package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"sort"
	texttemplate "text/template"
	"time"

	"github.com/Veraticus/leadflow/internal/service"
)

// ErrUnknownTemplate is returned when a template name is not registered.
var ErrUnknownTemplate = errors.New("unknown email template")

// Template names.
const (
	TemplateAcknowledgement   = "acknowledgement"
	TemplateImmediateResponse = "immediate_response_high_priority"
	TemplateNurtureDay0       = "nurture_day_0"
	TemplateNurtureDay3       = "nurture_day_3"
	TemplateFollowUpReminder  = "follow_up_reminder"
)

// Rendered is a subject and HTML body ready to send.
type Rendered struct {
	Subject string
	HTML    string
}

type emailTemplate struct {
	subject *texttemplate.Template
	body    *template.Template
}

type templateData struct {
	service.EmailParams
	Year int
}

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #2563eb; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #ffffff; padding: 30px; border: 1px solid #e5e7eb; }
        .product-list { background-color: #f3f4f6; padding: 15px; border-radius: 5px; margin: 20px 0; }
        .footer { background-color: #f9fafb; padding: 20px; text-align: center; font-size: 12px; color: #6b7280; }
    </style>
</head>
<body>
<div class="container">
{{template "content" .}}
<div class="footer"><p>&copy; {{.Year}} Lead Automation System. All rights reserved.</p></div>
</div>
</body>
</html>`

const productList = `{{define "products"}}{{if .Products}}<ul class="product-list">{{range .Products}}<li><strong>{{.}}</strong></li>{{end}}</ul>{{end}}{{end}}`

var templateSources = map[string]struct{ subject, content string }{
	TemplateAcknowledgement: {
		subject: `Thank you for your inquiry, {{.Name}}!`,
		content: `<div class="header"><h2>Thank you for contacting us!</h2></div>
<div class="content">
<p>Dear {{.Name}},</p>
<p>We've received your inquiry and appreciate your interest in our products. Our team is reviewing your request.</p>
<h3>Products You're Interested In:</h3>
{{template "products" .}}
<p><strong>What happens next?</strong> Our team will review your requirements, prepare a customized quote, and you'll hear from us within 24 hours.</p>
<p>Best regards,<br><strong>The Sales Team</strong></p>
</div>`,
	},
	TemplateImmediateResponse: {
		subject: `Priority Response: Your Quote Request - {{.Name}}`,
		content: `<div class="header"><h2>Priority Request Received</h2><p>Your inquiry has been marked as HIGH PRIORITY</p></div>
<div class="content">
<p>Dear {{.Name}},</p>
<p>Thank you for your urgent inquiry. We have <strong>prioritized your request</strong> for immediate attention.</p>
<p>Our senior sales representative will contact you within the next <strong>1 hour</strong>.</p>
<h3>Products Requested:</h3>
{{template "products" .}}
<p>Best regards,<br><strong>Priority Sales Team</strong></p>
</div>`,
	},
	TemplateNurtureDay0: {
		subject: `Welcome! Here's what you need to know - {{.Name}}`,
		content: `<div class="header"><h2>Welcome to Our Community!</h2></div>
<div class="content">
<p>Hi {{.Name}},</p>
<p>Thank you for your interest in our products. We're excited to help you find the perfect solution for your project!</p>
<ul>
<li><strong>Premium Quality</strong> - Industry-leading materials</li>
<li><strong>Expert Support</strong> - 10+ years of experience</li>
<li><strong>Fast Delivery</strong> - On-time, every time</li>
</ul>
<p>Best regards,<br><strong>The Sales Team</strong></p>
</div>`,
	},
	TemplateNurtureDay3: {
		subject: `Still interested? Here's a special offer - {{.Name}}`,
		content: `<div class="header"><h2>We Haven't Forgotten About You!</h2></div>
<div class="content">
<p>Hi {{.Name}},</p>
<p>We noticed you were interested in our products a few days ago. We'd love to help you move forward with your project!</p>
<p style="font-size: 24px; font-weight: bold;">10% OFF your first order with code WELCOME10</p>
<p>Best regards,<br><strong>The Sales Team</strong></p>
</div>`,
	},
	TemplateFollowUpReminder: {
		subject: `Follow-up Reminder: {{.Name}} - {{.Action}}`,
		content: `<div class="header"><h2>Follow-up Reminder</h2></div>
<div class="content">
<p><strong>Lead:</strong> {{.Name}}</p>
<p><strong>Action Required:</strong> {{.Action}}</p>
<p><strong>Scheduled For:</strong> {{.ScheduledFor}}</p>
<p>Please complete the required action ({{.Action}}) and update the lead status.</p>
</div>`,
	},
}

// Renderer turns a template name and parameters into a subject and body.
// Subjects are plain text; bodies are HTML-escaped.
type Renderer struct {
	templates map[string]emailTemplate
	now       func() time.Time
}

// NewRenderer parses the built-in templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]emailTemplate, len(templateSources)), now: time.Now}
	for name, src := range templateSources {
		subject, err := texttemplate.New(name + ".subject").Parse(src.subject)
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", name, err)
		}
		body, err := template.New(name).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if _, err := body.Parse(productList); err != nil {
			return nil, fmt.Errorf("parse product list: %w", err)
		}
		if _, err := body.New("content").Parse(src.content); err != nil {
			return nil, fmt.Errorf("parse %s body: %w", name, err)
		}
		r.templates[name] = emailTemplate{subject: subject, body: body}
	}
	return r, nil
}

// Names returns the registered template names in sorted order.
func (r *Renderer) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render executes the named template.
func (r *Renderer) Render(name string, params service.EmailParams) (Rendered, error) {
	t, ok := r.templates[name]
	if !ok {
		return Rendered{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	data := templateData{EmailParams: params, Year: r.now().Year()}

	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return Rendered{}, fmt.Errorf("render %s body: %w", name, err)
	}

	return Rendered{Subject: subject.String(), HTML: body.String()}, nil
}
