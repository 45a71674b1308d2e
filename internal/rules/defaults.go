package rules

import (
	"sort"

	"github.com/Veraticus/leadflow/internal/model"
)

// Email template names referenced by the built-in rules.
const (
	TemplateAcknowledgement   = "acknowledgement"
	TemplateImmediateResponse = "immediate_response_high_priority"
	TemplateNurtureDay0       = "nurture_day_0"
	TemplateNurtureDay3       = "nurture_day_3"
	TemplateFollowUpReminder  = "follow_up_reminder"
)

func defaultPrecedence() []Precedence {
	return []Precedence{
		{Rule: model.RuleArchitectVIP, When: model.RuleCriteria{LeadType: model.LeadTypeArchitect, Priority: model.PriorityHigh}},
		{Rule: model.RuleBuilderBulk, When: model.RuleCriteria{LeadType: model.LeadTypeBuilder, Priority: model.PriorityHigh}},
		{Rule: model.RulePartnershipInquiry, When: model.RuleCriteria{Intent: model.IntentPartnership}},
		{Rule: model.RuleHotLead, When: model.RuleCriteria{Priority: model.PriorityHigh, Intent: model.IntentQuoteRequest}},
		{Rule: model.RuleWarmLead, When: model.RuleCriteria{Priority: model.PriorityMedium}},
		{Rule: model.RuleColdLead, When: model.RuleCriteria{Priority: model.PriorityLow}},
	}
}

func defaultRules() []model.AutomationRule {
	return []model.AutomationRule{
		{
			Name:        model.RuleHotLead,
			Description: "High-priority leads requiring immediate attention",
			Criteria:    model.RuleCriteria{Priority: model.PriorityHigh, Intent: model.IntentQuoteRequest},
			Actions: []model.Action{
				model.SendEmailAction{Template: TemplateImmediateResponse, Delay: model.Minutes(0), Description: "Send priority response email immediately"},
				model.CreateFollowUpAction{Action: model.FollowUpCall, DueIn: model.Hours(1), Message: "Call high-priority lead immediately - urgent quote request", Description: "Schedule call within 1 hour"},
				model.CreateAssignmentAction{SLAHours: 1, Owner: "senior_sales", Description: "Assign to senior sales with 1-hour SLA"},
				model.CreateApprovalAction{ApprovalType: "high_value_lead", RequiresManager: true, Description: "Create approval for manager review"},
			},
		},
		{
			Name:        model.RuleWarmLead,
			Description: "Medium-priority leads with specific interest",
			Criteria:    model.RuleCriteria{Priority: model.PriorityMedium},
			Actions: []model.Action{
				model.SendEmailAction{Template: TemplateAcknowledgement, Delay: model.Minutes(0), Description: "Send acknowledgement email immediately"},
				model.SendEmailAction{Template: TemplateNurtureDay0, Delay: model.Hours(2), Description: "Send welcome nurture email after 2 hours"},
				model.CreateFollowUpAction{Action: model.FollowUpEmail, DueIn: model.Days(3), Message: "Send nurture day 3 email with special offer", Description: "Schedule nurture email for day 3"},
				model.CreateAssignmentAction{SLAHours: 24, Owner: "sales_team", Description: "Assign to sales team with 24-hour SLA"},
			},
		},
		{
			Name:        model.RuleColdLead,
			Description: "Low-priority leads browsing or gathering information",
			Criteria:    model.RuleCriteria{Priority: model.PriorityLow, Intent: model.IntentInformation},
			Actions: []model.Action{
				model.SendEmailAction{Template: TemplateNurtureDay0, Delay: model.Minutes(0), Description: "Send welcome email with resources"},
				model.CreateFollowUpAction{Action: model.FollowUpEmail, DueIn: model.Days(7), Message: "Send nurture day 7 email - check if still interested", Description: "Schedule long-term nurture email"},
				model.CreateAssignmentAction{SLAHours: 72, Owner: "marketing_team", Description: "Assign to marketing team with 72-hour SLA"},
			},
		},
		{
			Name:        model.RuleArchitectVIP,
			Description: "VIP treatment for architects (high-value professional buyers)",
			Criteria:    model.RuleCriteria{LeadType: model.LeadTypeArchitect, Priority: model.PriorityHigh},
			Actions: []model.Action{
				model.SendEmailAction{Template: TemplateImmediateResponse, Delay: model.Minutes(0), Description: "Send VIP priority response"},
				model.CreateFollowUpAction{Action: model.FollowUpCall, DueIn: model.Minutes(30), Message: "URGENT: Priority call to architect - VIP lead", Description: "Schedule immediate call within 30 minutes"},
				model.CreateApprovalAction{ApprovalType: "architect_vip", RequiresManager: true, Description: "Create VIP approval for manager"},
				model.CreateAssignmentAction{SLAHours: 1, Owner: "senior_sales", Description: "Assign to senior sales immediately"},
				model.NotifySalesAction{Channel: "slack", Message: "VIP Architect Lead Received - Immediate Action Required", Description: "Send Slack notification to sales team"},
			},
		},
		{
			Name:        model.RuleBuilderBulk,
			Description: "Builders with bulk orders or large projects",
			Criteria:    model.RuleCriteria{LeadType: model.LeadTypeBuilder, Priority: model.PriorityHigh},
			Actions: []model.Action{
				model.SendEmailAction{Template: TemplateImmediateResponse, Delay: model.Minutes(0), Description: "Send priority response for bulk order"},
				model.CreateFollowUpAction{Action: model.FollowUpCall, DueIn: model.Hours(2), Message: "Call builder for bulk pricing discussion", Description: "Schedule call within 2 hours"},
				model.CreateAssignmentAction{SLAHours: 2, Owner: "senior_sales", Description: "Assign to senior sales for bulk pricing"},
				model.CreateApprovalAction{ApprovalType: "bulk_order", RequiresManager: true, Description: "Create approval for bulk pricing"},
			},
		},
		{
			Name:        model.RulePartnershipInquiry,
			Description: "Partnership or dealer inquiries",
			Criteria:    model.RuleCriteria{Intent: model.IntentPartnership},
			Actions: []model.Action{
				model.SendEmailAction{Template: TemplateAcknowledgement, Delay: model.Minutes(0), Description: "Send acknowledgement for partnership inquiry"},
				model.CreateFollowUpAction{Action: model.FollowUpCall, DueIn: model.Hours(24), Message: "Call regarding partnership/dealer inquiry", Description: "Schedule partnership discussion call"},
				model.CreateAssignmentAction{SLAHours: 48, Owner: "business_development", Description: "Assign to business development team"},
				model.CreateApprovalAction{ApprovalType: "partnership", RequiresManager: true, Description: "Create approval for partnership review"},
			},
		},
	}
}

func sortedNames(rules map[model.RuleName]model.AutomationRule) []model.RuleName {
	names := make([]model.RuleName, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
