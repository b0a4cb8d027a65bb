package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/models"
	"github.com/mealmatchy/backend/internal/session"
)

// MaxPlanDays caps the planning horizon. Durations are otherwise arbitrary;
// anything below one day is clamped up to one.
const MaxPlanDays = 31

// DraftPlan is the caller-supplied plan shape: a bounded period and the
// total budget to spread across it.
type DraftPlan struct {
	StartDate   time.Time `json:"start_date"`
	Days        int       `json:"days"`
	TotalBudget int       `json:"total_budget"`
	Title       string    `json:"title"`
}

// clampDays normalizes the duration into [1, MaxPlanDays].
func (d DraftPlan) clampDays() int {
	days := d.Days
	if days < 1 {
		days = 1
	}
	if days > MaxPlanDays {
		days = MaxPlanDays
	}
	return days
}

// DailyBudget is the per-day allowance derived from the total budget.
func (d DraftPlan) DailyBudget() int {
	if d.TotalBudget <= 0 {
		return 0
	}
	return d.TotalBudget / d.clampDays()
}

// PlanService coordinates the plan-save lifecycle: a draft is validated
// against the per-day budget ceiling, then persisted atomically, replacing
// any previous plan for the same period.
type PlanService struct {
	db       *gorm.DB
	sessions session.Store
}

func NewPlanService(db *gorm.DB, sessions session.Store) *PlanService {
	return &PlanService{db: db, sessions: sessions}
}

// StartDraft resets the working session for a fresh plan, keeping any
// restriction tags picked earlier.
func (s *PlanService) StartDraft(ctx context.Context, owner uuid.UUID, plan DraftPlan) (*session.Draft, error) {
	draft, err := s.sessions.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		draft = &session.Draft{}
	}
	draft.Days = plan.clampDays()
	draft.TotalBudget = plan.TotalBudget
	draft.StartDate = models.DateOnly(plan.StartDate).Format(time.DateOnly)
	draft.Title = plan.Title
	draft.SelectedItems = nil
	draft.ActivePlanID = nil
	if err := s.sessions.Put(ctx, owner, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// SetRestrictions stores the diet-page choices into the working session.
func (s *PlanService) SetRestrictions(ctx context.Context, owner uuid.UUID, profile RestrictionProfile) (*session.Draft, error) {
	draft, err := s.sessions.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		draft = &session.Draft{Days: 1}
	}
	draft.Allergies = profile.Allergies
	draft.Dislikes = profile.Dislikes
	draft.Religions = profile.Religions
	draft.ExtraAllergy = profile.ExtraAllergy
	draft.ExtraDislike = profile.ExtraDislike
	if err := s.sessions.Put(ctx, owner, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// ParseSelections decodes the selection payload from the summary page.
// Malformed input degrades to an empty selection; the save path then fails
// the must-select-something precondition with a clear message instead of
// crashing.
func ParseSelections(raw []byte) []session.SelectedItem {
	if len(raw) == 0 {
		return nil
	}
	var items []session.SelectedItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// resolvedItem is a selection whose menu reference and effective date have
// been settled.
type resolvedItem struct {
	menu models.Menu
	date time.Time
	meal string
}

// resolveItems settles each selection against the catalog. Missing menu IDs
// are skipped rather than failing the whole save. Dates are clamped into
// the plan period.
func (s *PlanService) resolveItems(ctx context.Context, start time.Time, days int, items []session.SelectedItem) ([]resolvedItem, error) {
	end := start.AddDate(0, 0, days-1)
	resolved := make([]resolvedItem, 0, len(items))
	for _, item := range items {
		var menu models.Menu
		err := s.db.WithContext(ctx).First(&menu, "id = ?", item.MenuID).Error
		if err == gorm.ErrRecordNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}

		date := start
		if item.Date != "" {
			if parsed, perr := time.Parse(time.DateOnly, item.Date); perr == nil {
				date = models.DateOnly(parsed)
			}
		} else {
			date = start.AddDate(0, 0, item.DayOffset)
		}
		if date.Before(start) {
			date = start
		}
		if date.After(end) {
			date = end
		}

		resolved = append(resolved, resolvedItem{menu: menu, date: date, meal: item.Meal})
	}
	return resolved, nil
}

// SavePlan validates the draft and persists it atomically. Re-saving the
// same (owner, start date, days) period replaces the previous plan and all
// rows under it, so spending is never double-counted.
func (s *PlanService) SavePlan(ctx context.Context, owner uuid.UUID, plan DraftPlan, items []session.SelectedItem) (*models.MealPlan, error) {
	start := models.DateOnly(plan.StartDate)
	days := plan.clampDays()
	dailyBudget := plan.DailyBudget()

	resolved, err := s.resolveItems(ctx, start, days, items)
	if err != nil {
		return nil, err
	}
	if len(resolved) == 0 {
		return nil, validationf("menus", "select at least one menu before saving")
	}

	// Validate every day's selection against the ceiling before any write.
	sums := make(map[string]int)
	for _, item := range resolved {
		sums[item.date.Format(time.DateOnly)] += item.menu.Price
	}
	if dailyBudget > 0 {
		for d := start; !d.After(start.AddDate(0, 0, days-1)); d = d.AddDate(0, 0, 1) {
			key := d.Format(time.DateOnly)
			if sum := sums[key]; sum > dailyBudget {
				return nil, validationf("budget", "selections for %s exceed the daily budget by %d", key, sum-dailyBudget)
			}
		}
	}

	saved := models.MealPlan{
		UserID:       owner,
		StartDate:    start,
		Days:         days,
		BudgetPerDay: dailyBudget,
		Title:        plan.Title,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Idempotent replace: any prior plan for the identical period goes
		// away first, cascading its budget and spend rows.
		var stale []models.MealPlan
		if err := tx.Where("user_id = ? AND start_date = ? AND days = ?", owner, start, days).
			Find(&stale).Error; err != nil {
			return err
		}
		for _, old := range stale {
			if err := deletePlanRows(tx, old.ID); err != nil {
				return err
			}
		}

		if err := tx.Create(&saved).Error; err != nil {
			return translateDBError(err)
		}

		for i := 0; i < days; i++ {
			budget := models.DailyBudget{
				UserID: owner,
				Date:   start.AddDate(0, 0, i),
				Amount: dailyBudget,
				PlanID: &saved.ID,
			}
			if err := tx.Create(&budget).Error; err != nil {
				return translateDBError(err)
			}
		}

		for _, item := range resolved {
			spend := models.BudgetSpend{
				UserID: owner,
				Date:   item.date,
				Amount: item.menu.Price,
				MenuID: &item.menu.ID,
				Note:   item.meal,
				PlanID: &saved.ID,
			}
			if err := tx.Create(&spend).Error; err != nil {
				return translateDBError(err)
			}
			meal := models.MealItem{
				UserID:   owner,
				PlanID:   saved.ID,
				MenuID:   item.menu.ID,
				Date:     item.date,
				MealType: item.meal,
			}
			if err := tx.Create(&meal).Error; err != nil {
				return translateDBError(err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.markActive(ctx, owner, plan, &saved, items)
	return &saved, nil
}

// deletePlanRows removes a plan and everything hanging off it.
func deletePlanRows(tx *gorm.DB, planID uuid.UUID) error {
	if err := tx.Where("plan_id = ?", planID).Delete(&models.BudgetSpend{}).Error; err != nil {
		return err
	}
	if err := tx.Where("plan_id = ?", planID).Delete(&models.DailyBudget{}).Error; err != nil {
		return err
	}
	if err := tx.Where("plan_id = ?", planID).Delete(&models.MealItem{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.MealPlan{}, "id = ?", planID).Error
}

// markActive records the saved plan in the working session so subsequent
// ledger reads scope to it. Best-effort: the plan itself is already
// persisted.
func (s *PlanService) markActive(ctx context.Context, owner uuid.UUID, plan DraftPlan, saved *models.MealPlan, items []session.SelectedItem) {
	draft, err := s.sessions.Get(ctx, owner)
	if err != nil {
		return
	}
	if draft == nil {
		draft = &session.Draft{}
	}
	draft.Days = saved.Days
	draft.TotalBudget = plan.TotalBudget
	draft.StartDate = saved.StartDate.Format(time.DateOnly)
	draft.Title = saved.Title
	draft.SelectedItems = items
	draft.ActivePlanID = &saved.ID
	_ = s.sessions.Put(ctx, owner, draft)
}

// ActivePlan resolves the session's active plan for the owner, or the most
// recently created plan when the session does not name one.
func (s *PlanService) ActivePlan(ctx context.Context, owner uuid.UUID) (*models.MealPlan, error) {
	draft, err := s.sessions.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if draft != nil && draft.ActivePlanID != nil {
		var plan models.MealPlan
		if err := s.db.WithContext(ctx).
			First(&plan, "id = ? AND user_id = ?", *draft.ActivePlanID, owner).Error; err == nil {
			return &plan, nil
		}
	}
	var plan models.MealPlan
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", owner).Order("created_at desc").First(&plan).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &plan, nil
}
