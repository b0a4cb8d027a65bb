package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stove types used by the advanced cooking-cost model.
const (
	StoveGas       = "gas"
	StoveElectric  = "electric"
	StoveInduction = "induction"
)

// Cooking cost modes.
const (
	CostModeBasic    = "basic"
	CostModeAdvanced = "advanced"
)

// Ingredient is a raw ingredient with a known price. Either PricePerGram is
// set directly, or it is derived from (Price, SizeGrams).
type Ingredient struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string          `gorm:"size:100;not null;uniqueIndex" json:"name"`
	PricePerGram decimal.Decimal `gorm:"type:decimal(12,6);default:0" json:"price_per_gram"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"price"`
	SizeGrams    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"size_grams"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Recipe struct {
	ID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string             `gorm:"size:200;not null" json:"title"`
	Description   string             `gorm:"type:text" json:"description"`
	Steps         string             `gorm:"type:text" json:"steps"`
	Servings      int                `gorm:"not null;default:1" json:"servings"`
	PrepMinutes   int                `gorm:"not null;default:0" json:"prep_minutes"`
	CookMinutes   int                `gorm:"not null;default:0" json:"cook_minutes"`
	StoveOverride string             `gorm:"size:20" json:"stove_override"`
	UserID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	CreatedAt     time.Time          `json:"created_at"`
	Lines         []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE" json:"lines,omitempty"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *Recipe) TotalMinutes() int {
	return r.PrepMinutes + r.CookMinutes
}

// RecipeIngredient joins a recipe to an ingredient. PricePerGram and Cost are
// snapshots taken at save time; a later change to the ingredient's price must
// never rewrite them.
type RecipeIngredient struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	RecipeID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Name          string          `gorm:"size:100" json:"name"`
	QuantityGrams decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"quantity_grams"`
	PricePerGram  decimal.Decimal `gorm:"type:decimal(12,6);not null" json:"price_per_gram"`
	Cost          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost"`
}

// CookingCostSetting holds the per-owner defaults for the hidden-cost model.
// One row per user.
type CookingCostSetting struct {
	ID                  uint            `gorm:"primaryKey" json:"id"`
	UserID              uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Mode                string          `gorm:"size:10;not null;default:'basic'" json:"mode"`
	SeasoningPerServing decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"seasoning_per_serving"`
	OverheadPerServing  decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"overhead_per_serving"`
	DefaultStove        string          `gorm:"size:20;not null;default:'gas'" json:"default_stove"`
	DefaultCookMinutes  int             `gorm:"not null;default:30" json:"default_cook_minutes"`
	ElectricityRate     decimal.Decimal `gorm:"type:decimal(12,4);default:0" json:"electricity_rate"`
	ElectricWattage     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"electric_wattage"`
	InductionWattage    decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"induction_wattage"`
	GasCostPerHour      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"gas_cost_per_hour"`
}
