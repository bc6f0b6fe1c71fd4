package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadSource identifies which site surface produced a lead.
type LeadSource string

const (
	LeadSourceContact     LeadSource = "contact"
	LeadSourceCustomBuild LeadSource = "custom-build"
	LeadSourceInvestor    LeadSource = "investor"
	LeadSourceAIAgent     LeadSource = "ai-agent"
)

// LeadStatus represents the sales pipeline position of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusClosed    LeadStatus = "closed"
)

// LeadPriority represents follow-up urgency.
type LeadPriority string

const (
	LeadPriorityLow    LeadPriority = "low"
	LeadPriorityMedium LeadPriority = "medium"
	LeadPriorityHigh   LeadPriority = "high"
	LeadPriorityUrgent LeadPriority = "urgent"
)

// Lead is a durable contact record. Name and phone are optional; email is
// required for materialization from a conversation.
type Lead struct {
	ID        uuid.UUID              `json:"id"`
	Name      *string                `json:"name,omitempty"`
	Email     string                 `json:"email"`
	Phone     *string                `json:"phone,omitempty"`
	Source    LeadSource             `json:"source"`
	Status    LeadStatus             `json:"status"`
	Priority  LeadPriority           `json:"priority"`
	FormData  map[string]interface{} `json:"form_data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewLead creates a lead in the initial pipeline state.
func NewLead(email string, source LeadSource, priority LeadPriority) *Lead {
	now := time.Now().UTC()
	return &Lead{
		ID:        uuid.New(),
		Email:     email,
		Source:    source,
		Status:    LeadStatusNew,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidLeadStatus reports whether s is a known pipeline status.
func ValidLeadStatus(s LeadStatus) bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusClosed:
		return true
	}
	return false
}

// ValidLeadPriority reports whether p is a known priority.
func ValidLeadPriority(p LeadPriority) bool {
	switch p {
	case LeadPriorityLow, LeadPriorityMedium, LeadPriorityHigh, LeadPriorityUrgent:
		return true
	}
	return false
}

// ValidLeadSource reports whether s is a known source tag.
func ValidLeadSource(s LeadSource) bool {
	switch s {
	case LeadSourceContact, LeadSourceCustomBuild, LeadSourceInvestor, LeadSourceAIAgent:
		return true
	}
	return false
}

// LeadListFilter defines optional filters for listing leads.
type LeadListFilter struct {
	Status   *LeadStatus
	Source   *LeadSource
	Priority *LeadPriority
}
