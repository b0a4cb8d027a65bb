package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/models"
	"github.com/mealmatchy/backend/internal/session"
)

// DessertThreshold is the buffer kept back before suggesting a discretionary
// dessert budget.
const DessertThreshold = 20

// MealLabels are the three fixed meal slots. A BudgetSpend whose note equals
// one of these counts that meal as done for its date.
var MealLabels = []string{"breakfast", "lunch", "dinner"}

// Day statuses used by the range summary.
const (
	DayStatusNone     = "none"
	DayStatusNoBudget = "no_budget"
	DayStatusOver     = "over"
	DayStatusUnder    = "under"
	DayStatusEqual    = "equal"
)

// LedgerService reconciles daily budgets against recorded spending.
type LedgerService struct {
	db       *gorm.DB
	sessions session.Store
}

func NewLedgerService(db *gorm.DB, sessions session.Store) *LedgerService {
	return &LedgerService{db: db, sessions: sessions}
}

// DaySummary is the reconciliation of one calendar day.
type DaySummary struct {
	Date         time.Time `json:"date"`
	BudgetAmount int       `json:"budget_amount"`
	SpentAmount  int       `json:"spent_amount"`
	RemainAmount int       `json:"remain_amount"`
	Advice       string    `json:"advice"`
	Over         bool      `json:"over"`
}

// DayRow is one row of a range summary.
type DayRow struct {
	DaySummary
	Status string `json:"status"`
}

// RangeSummary aggregates a date range inclusive.
type RangeSummary struct {
	Rows         []DayRow `json:"rows"`
	TotalBudget  int      `json:"total_budget"`
	TotalSpent   int      `json:"total_spent"`
	Remaining    int      `json:"remaining"`
	DailyAverage float64  `json:"daily_average"`
}

// MealStatus reports which meal slots have a recorded spend on a date.
type MealStatus struct {
	DoneLabels    []string `json:"done_labels"`
	MissingLabels []string `json:"missing_labels"`
	DoneCount     int      `json:"done_count"`
	Total         int      `json:"total"`
	IsComplete    bool     `json:"is_complete"`
}

// Badge is the short status text shown next to a day.
func (m *MealStatus) Badge() string {
	switch {
	case m.DoneCount == 0:
		return "not started"
	case m.DoneCount < m.Total:
		return fmt.Sprintf("missing %d", m.Total-m.DoneCount)
	default:
		return "complete"
	}
}

// MealGroup is the spends of one meal slot on a day.
type MealGroup struct {
	Label string               `json:"label"`
	Items []models.BudgetSpend `json:"items"`
}

// DayDetail is the day page payload: the summary plus spends bucketed by
// meal slot.
type DayDetail struct {
	DaySummary
	MealGroups []MealGroup          `json:"meal_groups"`
	Other      []models.BudgetSpend `json:"other_spends"`
	MealStatus *MealStatus          `json:"meal_status"`
}

// WeekStart returns the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	d := models.DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func planScope(q *gorm.DB, planID *uuid.UUID) *gorm.DB {
	if planID == nil {
		return q.Where("plan_id IS NULL")
	}
	return q.Where("plan_id = ?", *planID)
}

// GetOrCreateDailyBudget looks up the allowance row for (owner, date, plan).
// Historic duplicates are tolerated: the lowest-ID row wins. When no row
// exists one is created, seeded from the working session's default budget.
func (s *LedgerService) GetOrCreateDailyBudget(ctx context.Context, owner uuid.UUID, date time.Time, planID *uuid.UUID) (*models.DailyBudget, bool, error) {
	date = models.DateOnly(date)

	var existing models.DailyBudget
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", owner, date).
		Order("id asc")
	err := planScope(q, planID).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, false, err
	}

	budget := models.DailyBudget{
		UserID: owner,
		Date:   date,
		Amount: s.defaultBudget(ctx, owner),
		PlanID: planID,
	}
	if err := s.db.WithContext(ctx).Create(&budget).Error; err != nil {
		return nil, false, translateDBError(err)
	}
	return &budget, true, nil
}

// defaultBudget reads the session-held per-day default. A missing or broken
// session means 0, never an error.
func (s *LedgerService) defaultBudget(ctx context.Context, owner uuid.UUID) int {
	if s.sessions == nil {
		return 0
	}
	draft, err := s.sessions.Get(ctx, owner)
	if err != nil || draft == nil {
		return 0
	}
	return draft.DefaultDailyBudget()
}

// SetDailyBudget overwrites the allowance of one day.
func (s *LedgerService) SetDailyBudget(ctx context.Context, owner uuid.UUID, date time.Time, amount int) (*models.DailyBudget, error) {
	if amount < 0 {
		return nil, validationf("amount", "budget amount must not be negative, got %d", amount)
	}
	budget, _, err := s.GetOrCreateDailyBudget(ctx, owner, date, nil)
	if err != nil {
		return nil, err
	}
	budget.Amount = amount
	if err := s.db.WithContext(ctx).Model(budget).Update("amount", amount).Error; err != nil {
		return nil, err
	}
	return budget, nil
}

// SetWeek overwrites the allowance of 7 consecutive days starting at start.
// Days are independent; a failure partway leaves earlier days applied.
func (s *LedgerService) SetWeek(ctx context.Context, owner uuid.UUID, start time.Time, amount int) error {
	if amount <= 0 {
		return validationf("amount", "weekly budget amount must be positive, got %d", amount)
	}
	start = models.DateOnly(start)
	for i := 0; i < 7; i++ {
		if _, err := s.SetDailyBudget(ctx, owner, start.AddDate(0, 0, i), amount); err != nil {
			return err
		}
	}
	return nil
}

// spentOn sums the recorded spending for (owner, date) scoped to plan when
// planID is given; a nil plan sums across all plans, matching the weekly
// table view.
func (s *LedgerService) spentOn(ctx context.Context, owner uuid.UUID, date time.Time, planID *uuid.UUID) (int, error) {
	q := s.db.WithContext(ctx).Model(&models.BudgetSpend{}).
		Where("user_id = ? AND date = ?", owner, models.DateOnly(date))
	if planID != nil {
		q = q.Where("plan_id = ?", *planID)
	}
	var total int64
	if err := q.Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		return 0, err
	}
	return int(total), nil
}

// budgetOn returns the allowance for (owner, date) without creating a row.
// Duplicates resolve to the lowest-ID row; no row means 0.
func (s *LedgerService) budgetOn(ctx context.Context, owner uuid.UUID, date time.Time, planID *uuid.UUID) (int, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", owner, models.DateOnly(date)).
		Order("id asc")
	if planID != nil {
		q = q.Where("plan_id = ?", *planID)
	}
	var budget models.DailyBudget
	if err := q.First(&budget).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return budget.Amount, nil
}

// adviceFor derives the advice line from the day's remaining amount.
func adviceFor(remain int) (advice string, over bool) {
	switch {
	case remain < 0:
		return fmt.Sprintf("over budget by %d", -remain), true
	case remain > DessertThreshold:
		return fmt.Sprintf("%d left; up to %d for dessert, keeping %d in reserve",
			remain, remain-DessertThreshold, DessertThreshold), false
	case remain > 0:
		return fmt.Sprintf("%d left", remain), false
	default:
		return "", false
	}
}

// DaySummary reconciles one day's budget against its spending.
func (s *LedgerService) DaySummary(ctx context.Context, owner uuid.UUID, date time.Time, planID *uuid.UUID) (*DaySummary, error) {
	date = models.DateOnly(date)
	budget, err := s.budgetOn(ctx, owner, date, planID)
	if err != nil {
		return nil, err
	}
	spent, err := s.spentOn(ctx, owner, date, planID)
	if err != nil {
		return nil, err
	}
	remain := budget - spent
	advice, over := adviceFor(remain)
	return &DaySummary{
		Date:         date,
		BudgetAmount: budget,
		SpentAmount:  spent,
		RemainAmount: remain,
		Advice:       advice,
		Over:         over,
	}, nil
}

func dayStatus(budget, spent int) string {
	switch {
	case budget == 0 && spent == 0:
		return DayStatusNone
	case budget == 0:
		return DayStatusNoBudget
	case spent > budget:
		return DayStatusOver
	case spent < budget:
		return DayStatusUnder
	default:
		return DayStatusEqual
	}
}

// RangeSummary builds one row per calendar date in [start, end] inclusive.
func (s *LedgerService) RangeSummary(ctx context.Context, owner uuid.UUID, start, end time.Time, planID *uuid.UUID) (*RangeSummary, error) {
	start = models.DateOnly(start)
	end = models.DateOnly(end)

	summary := &RangeSummary{Rows: []DayRow{}}
	if end.Before(start) {
		return summary, nil
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day, err := s.DaySummary(ctx, owner, d, planID)
		if err != nil {
			return nil, err
		}
		summary.Rows = append(summary.Rows, DayRow{
			DaySummary: *day,
			Status:     dayStatus(day.BudgetAmount, day.SpentAmount),
		})
		summary.TotalBudget += day.BudgetAmount
		summary.TotalSpent += day.SpentAmount
	}
	summary.Remaining = summary.TotalBudget - summary.TotalSpent
	summary.DailyAverage = float64(summary.TotalBudget) / float64(len(summary.Rows))
	return summary, nil
}

// MatchScore measures how closely spending tracked the budget, 0..100.
// Under- and over-spending reduce the score symmetrically.
func MatchScore(totalBudget, totalSpent int) int {
	if totalBudget <= 0 {
		return 0
	}
	diff := totalBudget - totalSpent
	if diff < 0 {
		diff = -diff
	}
	score := 100 - int(math.Round(float64(diff)/float64(totalBudget)*100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// MealStatus reports which of the three meal slots carry at least one spend
// on the given date.
func (s *LedgerService) MealStatus(ctx context.Context, owner uuid.UUID, date time.Time, planID *uuid.UUID) (*MealStatus, error) {
	q := s.db.WithContext(ctx).Model(&models.BudgetSpend{}).
		Where("user_id = ? AND date = ? AND note IN ?", owner, models.DateOnly(date), MealLabels)
	if planID != nil {
		q = q.Where("plan_id = ?", *planID)
	}
	var notes []string
	if err := q.Distinct("note").Pluck("note", &notes).Error; err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(notes))
	for _, n := range notes {
		done[n] = true
	}

	status := &MealStatus{Total: len(MealLabels)}
	for _, label := range MealLabels {
		if done[label] {
			status.DoneLabels = append(status.DoneLabels, label)
		} else {
			status.MissingLabels = append(status.MissingLabels, label)
		}
	}
	status.DoneCount = len(status.DoneLabels)
	status.IsComplete = status.DoneCount == status.Total
	return status, nil
}

// DayDetail assembles the day page: summary, meal grouping and meal status.
func (s *LedgerService) DayDetail(ctx context.Context, owner uuid.UUID, date time.Time, planID *uuid.UUID) (*DayDetail, error) {
	summary, err := s.DaySummary(ctx, owner, date, planID)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", owner, models.DateOnly(date)).
		Order("created_at asc")
	if planID != nil {
		q = q.Where("plan_id = ?", *planID)
	}
	var spends []models.BudgetSpend
	if err := q.Find(&spends).Error; err != nil {
		return nil, err
	}

	grouped := make(map[string][]models.BudgetSpend, len(MealLabels))
	var other []models.BudgetSpend
	labels := make(map[string]bool, len(MealLabels))
	for _, l := range MealLabels {
		labels[l] = true
	}
	for _, sp := range spends {
		if labels[sp.Note] {
			grouped[sp.Note] = append(grouped[sp.Note], sp)
		} else {
			other = append(other, sp)
		}
	}

	detail := &DayDetail{DaySummary: *summary, Other: other}
	for _, label := range MealLabels {
		detail.MealGroups = append(detail.MealGroups, MealGroup{Label: label, Items: grouped[label]})
	}
	detail.MealStatus, err = s.MealStatus(ctx, owner, date, planID)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// RecordMenuSpend records eating a catalog menu on a date. The price comes
// from the menu record; the spend is linked to the session's active plan.
func (s *LedgerService) RecordMenuSpend(ctx context.Context, owner uuid.UUID, date time.Time, menuID uuid.UUID, meal string) (*models.BudgetSpend, error) {
	var menu models.Menu
	if err := s.db.WithContext(ctx).First(&menu, "id = ?", menuID).Error; err != nil {
		return nil, translateDBError(err)
	}
	if menu.Price <= 0 {
		return nil, validationf("amount", "menu %q has no positive price", menu.Name)
	}

	planID := s.activePlanID(ctx, owner)
	daily, _, err := s.GetOrCreateDailyBudget(ctx, owner, date, planID)
	if err != nil {
		return nil, err
	}

	// The note doubles as the meal-slot tag. Without a label the menu name
	// is stored instead: the spend still counts toward the day's totals but
	// never fills a breakfast/lunch/dinner slot.
	note := meal
	if note == "" {
		note = menu.Name
	}
	spend := models.BudgetSpend{
		UserID: owner,
		Date:   models.DateOnly(date),
		Amount: menu.Price,
		MenuID: &menu.ID,
		Note:   note,
		PlanID: daily.PlanID,
	}
	if err := s.db.WithContext(ctx).Create(&spend).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &spend, nil
}

// RecordSpend records an out-of-catalog expenditure.
func (s *LedgerService) RecordSpend(ctx context.Context, owner uuid.UUID, date time.Time, amount int, note string) (*models.BudgetSpend, error) {
	if amount <= 0 {
		return nil, validationf("amount", "spend amount must be positive, got %d", amount)
	}

	planID := s.activePlanID(ctx, owner)
	daily, _, err := s.GetOrCreateDailyBudget(ctx, owner, date, planID)
	if err != nil {
		return nil, err
	}

	if note == "" {
		note = "outside"
	}
	spend := models.BudgetSpend{
		UserID: owner,
		Date:   models.DateOnly(date),
		Amount: amount,
		Note:   note,
		PlanID: daily.PlanID,
	}
	if err := s.db.WithContext(ctx).Create(&spend).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &spend, nil
}

// DeleteSpend removes one spend owned by owner.
func (s *LedgerService) DeleteSpend(ctx context.Context, owner uuid.UUID, spendID uint) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", spendID, owner).
		Delete(&models.BudgetSpend{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// activePlanID resolves the session's active plan, verifying it still exists
// and belongs to owner. No session or a stale ID means nil.
func (s *LedgerService) activePlanID(ctx context.Context, owner uuid.UUID) *uuid.UUID {
	if s.sessions == nil {
		return nil
	}
	draft, err := s.sessions.Get(ctx, owner)
	if err != nil || draft == nil || draft.ActivePlanID == nil {
		return nil
	}
	var plan models.MealPlan
	if err := s.db.WithContext(ctx).
		First(&plan, "id = ? AND user_id = ?", *draft.ActivePlanID, owner).Error; err != nil {
		return nil
	}
	return &plan.ID
}
