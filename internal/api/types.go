package api

import (
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// dateLayout is the wire format for calendar dates. Times of day never cross
// the API boundary; the ledger reconciles whole days.
const dateLayout = "2006-01-02"

// RegisterValidators installs the custom binding rules used by the request
// types below. Call once at startup, before any request is bound.
func RegisterValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("dateformat", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := time.Parse(dateLayout, s)
			return err == nil
		})
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type StartPlanRequest struct {
	StartDate   string `json:"start_date" binding:"required,dateformat"`
	Days        int    `json:"days" binding:"required,min=1"`
	TotalBudget int    `json:"total_budget" binding:"required,min=1"`
	Title       string `json:"title"`
}

type DietRequest struct {
	BudgetCeiling *int     `json:"budget_ceiling"`
	Allergies     []string `json:"allergies"`
	Dislikes      []string `json:"dislikes"`
	Religions     []string `json:"religions"`
	ExtraAllergy  string   `json:"extra_allergy"`
	ExtraDislike  string   `json:"extra_dislike"`
}

type SetDayBudgetRequest struct {
	Date   string `json:"date" binding:"required,dateformat"`
	Amount int    `json:"amount" binding:"min=0"`
}

type SetWeekBudgetRequest struct {
	Start  string `json:"start" binding:"required,dateformat"`
	Amount int    `json:"amount" binding:"required,min=1"`
}

type SpendRequest struct {
	Date   string `json:"date" binding:"required,dateformat"`
	Amount int    `json:"amount" binding:"required,min=1"`
	Note   string `json:"note"`
}

type ConsumeMenuRequest struct {
	Date string `json:"date" binding:"required,dateformat"`
	Meal string `json:"meal"`
}

type IngredientRequest struct {
	Name         string `json:"name" binding:"required"`
	PricePerGram string `json:"price_per_gram"`
	Price        string `json:"price"`
	SizeGrams    string `json:"size_grams"`
}

type RecipeLineRequest struct {
	IngredientID  string `json:"ingredient_id" binding:"required,uuid"`
	QuantityGrams string `json:"quantity_grams" binding:"required"`
}

type RecipeRequest struct {
	Title         string              `json:"title" binding:"required"`
	Description   string              `json:"description"`
	Steps         string              `json:"steps"`
	Servings      int                 `json:"servings" binding:"min=0"`
	PrepMinutes   int                 `json:"prep_minutes" binding:"min=0"`
	CookMinutes   int                 `json:"cook_minutes" binding:"min=0"`
	StoveOverride string              `json:"stove_override" binding:"omitempty,oneof=gas electric induction"`
	Lines         []RecipeLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type CookingSettingsRequest struct {
	Mode                string `json:"mode" binding:"required,oneof=basic advanced"`
	SeasoningPerServing string `json:"seasoning_per_serving"`
	OverheadPerServing  string `json:"overhead_per_serving"`
	DefaultStove        string `json:"default_stove" binding:"omitempty,oneof=gas electric induction"`
	DefaultCookMinutes  int    `json:"default_cook_minutes" binding:"min=0"`
	ElectricityRate     string `json:"electricity_rate"`
	ElectricWattage     string `json:"electric_wattage"`
	InductionWattage    string `json:"induction_wattage"`
	GasCostPerHour      string `json:"gas_cost_per_hour"`
}
