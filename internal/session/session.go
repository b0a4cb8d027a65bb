// Package session holds the short-lived per-user planning state that lives
// between requests: the draft plan, the restriction tags picked so far, the
// menus selected on the summary page and the currently active plan.
package session

import (
	"context"

	"github.com/google/uuid"
)

// Draft is the working-session document for one user. It is a plain value
// object; callers pass it into the core services explicitly rather than the
// services reading ambient state.
type Draft struct {
	Days        int    `json:"days"`
	TotalBudget int    `json:"total_budget"`
	StartDate   string `json:"start_date"`
	Title       string `json:"title"`

	Allergies    []string `json:"allergies"`
	Dislikes     []string `json:"dislikes"`
	Religions    []string `json:"religions"`
	ExtraAllergy string   `json:"extra_allergy"`
	ExtraDislike string   `json:"extra_dislike"`

	SelectedItems []SelectedItem `json:"selected_items"`
	ActivePlanID  *uuid.UUID     `json:"active_plan_id,omitempty"`
}

// SelectedItem is one menu choice made on the summary page, tagged with a
// day offset inside the plan and a meal label.
type SelectedItem struct {
	MenuID    uuid.UUID `json:"menu_id"`
	DayOffset int       `json:"day_offset"`
	Date      string    `json:"date,omitempty"`
	Meal      string    `json:"meal"`
}

// DefaultDailyBudget is the per-day allowance implied by the draft, used to
// seed lazily created DailyBudget rows.
func (d *Draft) DefaultDailyBudget() int {
	if d == nil {
		return 0
	}
	days := d.Days
	if days < 1 {
		days = 1
	}
	if d.TotalBudget <= 0 {
		return 0
	}
	return d.TotalBudget / days
}

// Store persists working sessions keyed by owner. Get returns (nil, nil)
// when no session exists.
type Store interface {
	Get(ctx context.Context, owner uuid.UUID) (*Draft, error)
	Put(ctx context.Context, owner uuid.UUID, draft *Draft) error
	Clear(ctx context.Context, owner uuid.UUID) error
}
