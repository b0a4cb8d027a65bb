package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealmatchy/backend/internal/models"
	"github.com/mealmatchy/backend/internal/session"
	"github.com/mealmatchy/backend/internal/testhelpers"
)

func newLedger(t *testing.T) (*LedgerService, *models.User, session.Store) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	sessions := session.NewMemoryStore()
	return NewLedgerService(db, sessions), testhelpers.CreateTestUser(t, db), sessions
}

func TestAdviceFor(t *testing.T) {
	tests := []struct {
		name   string
		budget int
		spent  int
		advice string
		over   bool
	}{
		{"over budget", 100, 130, "over budget by 30", true},
		{"dessert margin", 100, 70, "30 left; up to 10 for dessert, keeping 20 in reserve", false},
		{"small remainder", 100, 85, "15 left", false},
		{"exactly at threshold", 100, 80, "20 left", false},
		{"exact match", 100, 100, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			advice, over := adviceFor(tt.budget - tt.spent)
			assert.Equal(t, tt.advice, advice)
			assert.Equal(t, tt.over, over)
		})
	}
}

func TestDaySummary(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)

	_, err := ledger.SetDailyBudget(ctx, user.ID, date, 100)
	require.NoError(t, err)
	_, err = ledger.RecordSpend(ctx, user.ID, date, 130, "lunch")
	require.NoError(t, err)

	summary, err := ledger.DaySummary(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.Equal(t, 100, summary.BudgetAmount)
	assert.Equal(t, 130, summary.SpentAmount)
	assert.Equal(t, -30, summary.RemainAmount)
	assert.Equal(t, "over budget by 30", summary.Advice)
	assert.True(t, summary.Over)
}

func TestSetDailyBudgetRejectsNegative(t *testing.T) {
	ledger, user, _ := newLedger(t)

	_, err := ledger.SetDailyBudget(context.Background(), user.ID, testhelpers.Date(2026, time.March, 2), -5)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestGetOrCreateDailyBudgetSeedsFromSession(t *testing.T) {
	ledger, user, sessions := newLedger(t)
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, user.ID, &session.Draft{Days: 7, TotalBudget: 700}))

	budget, created, err := ledger.GetOrCreateDailyBudget(ctx, user.ID, testhelpers.Date(2026, time.March, 2), nil)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 100, budget.Amount)

	// Second call finds the same row.
	again, created, err := ledger.GetOrCreateDailyBudget(ctx, user.ID, testhelpers.Date(2026, time.March, 2), nil)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, budget.ID, again.ID)
}

func TestGetOrCreateDailyBudgetLowestIDWins(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)

	// Simulate historic duplicates written before the unique index existed,
	// bypassing the service. The plan scopes differ so the index allows them;
	// the read path must still resolve deterministically.
	db := ledger.db
	first := models.DailyBudget{UserID: user.ID, Date: date, Amount: 50}
	require.NoError(t, db.Create(&first).Error)
	plan := models.MealPlan{UserID: user.ID, StartDate: date, Days: 1}
	require.NoError(t, db.Create(&plan).Error)
	second := models.DailyBudget{UserID: user.ID, Date: date, Amount: 999, PlanID: &plan.ID}
	require.NoError(t, db.Create(&second).Error)

	amount, err := ledger.budgetOn(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.Equal(t, 50, amount)
}

func TestSetWeek(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	start := testhelpers.Date(2026, time.March, 2) // a Monday

	require.NoError(t, ledger.SetWeek(ctx, user.ID, start, 150))

	for i := 0; i < 7; i++ {
		amount, err := ledger.budgetOn(ctx, user.ID, start.AddDate(0, 0, i), nil)
		require.NoError(t, err)
		assert.Equal(t, 150, amount)
	}

	err := ledger.SetWeek(ctx, user.ID, start, 0)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestWeekStart(t *testing.T) {
	// 2026-03-04 is a Wednesday.
	assert.Equal(t, testhelpers.Date(2026, time.March, 2), WeekStart(testhelpers.Date(2026, time.March, 4)))
	// Monday maps to itself.
	assert.Equal(t, testhelpers.Date(2026, time.March, 2), WeekStart(testhelpers.Date(2026, time.March, 2)))
	// Sunday belongs to the preceding Monday.
	assert.Equal(t, testhelpers.Date(2026, time.March, 2), WeekStart(testhelpers.Date(2026, time.March, 8)))
}

func TestRangeSummaryStatuses(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	start := testhelpers.Date(2026, time.March, 2)

	// Day 0: budget 100, spent 70 -> under.
	// Day 1: budget 100, spent 100 -> equal.
	// Day 2: budget 100, spent 130 -> over.
	// Day 3: no budget, spent 10 -> no_budget.
	// Day 4: untouched -> none.
	for i, amount := range []int{100, 100, 100} {
		_, err := ledger.SetDailyBudget(ctx, user.ID, start.AddDate(0, 0, i), amount)
		require.NoError(t, err)
	}
	for i, spent := range []int{70, 100, 130, 10} {
		if spent == 10 {
			// Day 3 must not inherit a budget row with a positive amount.
			_, err := ledger.RecordSpend(ctx, user.ID, start.AddDate(0, 0, i), spent, "snack")
			require.NoError(t, err)
			continue
		}
		_, err := ledger.RecordSpend(ctx, user.ID, start.AddDate(0, 0, i), spent, "lunch")
		require.NoError(t, err)
	}

	summary, err := ledger.RangeSummary(ctx, user.ID, start, start.AddDate(0, 0, 4), nil)
	require.NoError(t, err)
	require.Len(t, summary.Rows, 5)
	assert.Equal(t, DayStatusUnder, summary.Rows[0].Status)
	assert.Equal(t, DayStatusEqual, summary.Rows[1].Status)
	assert.Equal(t, DayStatusOver, summary.Rows[2].Status)
	assert.Equal(t, DayStatusNoBudget, summary.Rows[3].Status)
	assert.Equal(t, DayStatusNone, summary.Rows[4].Status)

	assert.Equal(t, 300, summary.TotalBudget)
	assert.Equal(t, 310, summary.TotalSpent)
	assert.Equal(t, -10, summary.Remaining)
	assert.InDelta(t, 60.0, summary.DailyAverage, 0.0001)
}

func TestRangeSummaryEmptyRange(t *testing.T) {
	ledger, user, _ := newLedger(t)

	summary, err := ledger.RangeSummary(context.Background(), user.ID,
		testhelpers.Date(2026, time.March, 5), testhelpers.Date(2026, time.March, 2), nil)
	require.NoError(t, err)
	assert.Empty(t, summary.Rows)
	assert.Equal(t, 0, summary.TotalBudget)
}

func TestMatchScore(t *testing.T) {
	assert.Equal(t, 100, MatchScore(100, 100))
	assert.Equal(t, 0, MatchScore(0, 50))
	assert.Equal(t, 0, MatchScore(-10, 50))
	assert.Equal(t, 70, MatchScore(100, 70))
	assert.Equal(t, 70, MatchScore(100, 130))
	assert.Equal(t, 0, MatchScore(100, 300))

	// Symmetry: equal deviation above and below scores the same.
	for _, d := range []int{1, 10, 50, 99} {
		assert.Equal(t, MatchScore(100, 100-d), MatchScore(100, 100+d))
	}
	// Monotonicity: a larger deviation never scores higher.
	prev := MatchScore(200, 200)
	for d := 1; d <= 200; d++ {
		cur := MatchScore(200, 200+d)
		assert.LessOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestMealStatus(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)

	status, err := ledger.MealStatus(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, status.DoneCount)
	assert.Equal(t, "not started", status.Badge())

	_, err = ledger.RecordSpend(ctx, user.ID, date, 40, "breakfast")
	require.NoError(t, err)
	_, err = ledger.RecordSpend(ctx, user.ID, date, 60, "lunch")
	require.NoError(t, err)
	// A second lunch spend must not double-count the slot.
	_, err = ledger.RecordSpend(ctx, user.ID, date, 20, "lunch")
	require.NoError(t, err)

	status, err = ledger.MealStatus(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, status.DoneCount)
	assert.Equal(t, []string{"breakfast", "lunch"}, status.DoneLabels)
	assert.Equal(t, []string{"dinner"}, status.MissingLabels)
	assert.Equal(t, "missing 1", status.Badge())
	assert.False(t, status.IsComplete)

	_, err = ledger.RecordSpend(ctx, user.ID, date, 80, "dinner")
	require.NoError(t, err)

	status, err = ledger.MealStatus(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.True(t, status.IsComplete)
	assert.Equal(t, "complete", status.Badge())
}

func TestDayDetailGroupsByMeal(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)

	_, err := ledger.RecordSpend(ctx, user.ID, date, 40, "breakfast")
	require.NoError(t, err)
	_, err = ledger.RecordSpend(ctx, user.ID, date, 15, "coffee")
	require.NoError(t, err)
	_, err = ledger.RecordSpend(ctx, user.ID, date, 10, "")
	require.NoError(t, err)

	detail, err := ledger.DayDetail(ctx, user.ID, date, nil)
	require.NoError(t, err)
	require.Len(t, detail.MealGroups, 3)
	assert.Equal(t, "breakfast", detail.MealGroups[0].Label)
	assert.Len(t, detail.MealGroups[0].Items, 1)
	assert.Empty(t, detail.MealGroups[1].Items)
	assert.Empty(t, detail.MealGroups[2].Items)
	require.Len(t, detail.Other, 2)
	// Empty notes default to "outside".
	notes := []string{detail.Other[0].Note, detail.Other[1].Note}
	assert.ElementsMatch(t, []string{"coffee", "outside"}, notes)
	assert.Equal(t, 65, detail.SpentAmount)
}

func TestRecordMenuSpend(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)
	menu := testhelpers.CreateTestMenu(t, ledger.db, "Chicken rice", 60)

	spend, err := ledger.RecordMenuSpend(ctx, user.ID, date, menu.ID, "lunch")
	require.NoError(t, err)
	assert.Equal(t, 60, spend.Amount)
	assert.Equal(t, "lunch", spend.Note)
	require.NotNil(t, spend.MenuID)
	assert.Equal(t, menu.ID, *spend.MenuID)

	// Without a meal label the note falls back to the menu name.
	spend, err = ledger.RecordMenuSpend(ctx, user.ID, date, menu.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Chicken rice", spend.Note)
}

// An unlabeled menu spend counts toward the day's totals but fills no meal
// slot, since the note doubles as the slot tag.
func TestRecordMenuSpendEmptyLabelFillsNoSlot(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)
	menu := testhelpers.CreateTestMenu(t, ledger.db, "Chicken rice", 60)

	_, err := ledger.RecordMenuSpend(ctx, user.ID, date, menu.ID, "")
	require.NoError(t, err)

	summary, err := ledger.DaySummary(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.Equal(t, 60, summary.SpentAmount)

	status, err := ledger.MealStatus(ctx, user.ID, date, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, status.DoneCount)
	assert.Equal(t, "not started", status.Badge())
}

func TestRecordMenuSpendUnknownMenu(t *testing.T) {
	ledger, user, _ := newLedger(t)

	_, err := ledger.RecordMenuSpend(context.Background(), user.ID,
		testhelpers.Date(2026, time.March, 2), uuid.New(), "lunch")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordMenuSpendZeroPrice(t *testing.T) {
	ledger, user, _ := newLedger(t)
	menu := testhelpers.CreateTestMenu(t, ledger.db, "Free sample", 0)

	_, err := ledger.RecordMenuSpend(context.Background(), user.ID,
		testhelpers.Date(2026, time.March, 2), menu.ID, "lunch")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestRecordSpendRejectsNonPositive(t *testing.T) {
	ledger, user, _ := newLedger(t)

	for _, amount := range []int{0, -10} {
		_, err := ledger.RecordSpend(context.Background(), user.ID,
			testhelpers.Date(2026, time.March, 2), amount, "lunch")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	}
}

func TestDeleteSpendOwnerScoped(t *testing.T) {
	ledger, user, _ := newLedger(t)
	ctx := context.Background()
	other := testhelpers.CreateTestUser(t, ledger.db)

	spend, err := ledger.RecordSpend(ctx, user.ID, testhelpers.Date(2026, time.March, 2), 50, "lunch")
	require.NoError(t, err)

	// Another user cannot delete it.
	assert.ErrorIs(t, ledger.DeleteSpend(ctx, other.ID, spend.ID), ErrNotFound)

	require.NoError(t, ledger.DeleteSpend(ctx, user.ID, spend.ID))
	assert.ErrorIs(t, ledger.DeleteSpend(ctx, user.ID, spend.ID), ErrNotFound)
}

func TestSpendLinksActivePlan(t *testing.T) {
	ledger, user, sessions := newLedger(t)
	ctx := context.Background()
	date := testhelpers.Date(2026, time.March, 2)

	plan := models.MealPlan{UserID: user.ID, StartDate: date, Days: 7}
	require.NoError(t, ledger.db.Create(&plan).Error)
	require.NoError(t, sessions.Put(ctx, user.ID, &session.Draft{ActivePlanID: &plan.ID}))

	spend, err := ledger.RecordSpend(ctx, user.ID, date, 50, "lunch")
	require.NoError(t, err)
	require.NotNil(t, spend.PlanID)
	assert.Equal(t, plan.ID, *spend.PlanID)
}
