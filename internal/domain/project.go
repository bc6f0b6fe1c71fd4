package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectCategory distinguishes the kinds of offerings the site lists.
type ProjectCategory string

const (
	ProjectCategoryTemplate   ProjectCategory = "template"
	ProjectCategoryInvestment ProjectCategory = "investment"
	ProjectCategoryCustom     ProjectCategory = "custom"
)

// Project is a marketing-site listing: a digital product, template, or
// investment opportunity. Owned by the admin CRUD layer; the chat
// orchestrator only reads visible projects for recommendation context.
type Project struct {
	ID                uuid.UUID       `json:"id"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	Category          ProjectCategory `json:"category"`
	Industry          string          `json:"industry,omitempty"`
	PriceOneTime      *float64        `json:"price_one_time,omitempty"`
	PriceSubscription *float64        `json:"price_subscription,omitempty"`
	InvestmentAmount  *float64        `json:"investment_amount,omitempty"`
	Visible           bool            `json:"visible"`
	ContentSections   []string        `json:"content_sections,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// NewProject creates a hidden project; visibility is an explicit admin action.
func NewProject(title, description string, category ProjectCategory) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// InSection reports whether the project is tagged for a content section.
func (p *Project) InSection(section string) bool {
	for _, s := range p.ContentSections {
		if s == section {
			return true
		}
	}
	return false
}

// ProjectListFilter defines optional filters for listing projects.
type ProjectListFilter struct {
	Category    *ProjectCategory
	VisibleOnly bool
	Section     string
}
