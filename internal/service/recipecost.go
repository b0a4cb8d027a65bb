package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mealmatchy/backend/internal/models"
)

var (
	sixty    = decimal.NewFromInt(60)
	thousand = decimal.NewFromInt(1000)
)

// RecipeCostService computes the true cost of home-cooked recipes: raw
// ingredient cost plus the hidden seasoning/energy cost.
type RecipeCostService struct {
	db *gorm.DB
}

func NewRecipeCostService(db *gorm.DB) *RecipeCostService {
	return &RecipeCostService{db: db}
}

// IngredientLine is the caller's input for one recipe line.
type IngredientLine struct {
	IngredientID  uuid.UUID       `json:"ingredient_id"`
	QuantityGrams decimal.Decimal `json:"quantity_grams"`
}

// CostBreakdown is the computed cost view of a recipe.
type CostBreakdown struct {
	IngredientsCost decimal.Decimal `json:"ingredients_cost"`
	HiddenCost      decimal.Decimal `json:"hidden_cost"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	PerServing      decimal.Decimal `json:"per_serving"`
}

// PricePerGram resolves an ingredient's price per weight unit: an explicit
// stored value wins, else price/size when the size is positive, else zero.
// Rounded to 6 decimal places, half-up.
func PricePerGram(ing *models.Ingredient) decimal.Decimal {
	if ing.PricePerGram.IsPositive() {
		return ing.PricePerGram.Round(6)
	}
	if ing.SizeGrams.IsPositive() {
		return ing.Price.Div(ing.SizeGrams).Round(6)
	}
	return decimal.Zero
}

// buildLines resolves the input lines into snapshot rows inside tx. Lines
// with non-positive quantity are dropped; lines naming a missing ingredient
// are skipped; a later line for the same ingredient overwrites the earlier
// one.
func buildLines(tx *gorm.DB, recipeID uuid.UUID, lines []IngredientLine) ([]models.RecipeIngredient, error) {
	byIngredient := make(map[uuid.UUID]models.RecipeIngredient)
	var order []uuid.UUID

	for _, line := range lines {
		if !line.QuantityGrams.IsPositive() {
			continue
		}
		var ing models.Ingredient
		if err := tx.First(&ing, "id = ?", line.IngredientID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return nil, err
		}

		snapshot := PricePerGram(&ing)
		quantity := line.QuantityGrams.Round(2)
		if _, dup := byIngredient[ing.ID]; !dup {
			order = append(order, ing.ID)
		}
		byIngredient[ing.ID] = models.RecipeIngredient{
			RecipeID:      recipeID,
			IngredientID:  ing.ID,
			Name:          ing.Name,
			QuantityGrams: quantity,
			PricePerGram:  snapshot,
			Cost:          quantity.Mul(snapshot).Round(2),
		}
	}

	result := make([]models.RecipeIngredient, 0, len(order))
	for _, id := range order {
		result = append(result, byIngredient[id])
	}
	return result, nil
}

// CreateRecipe persists a recipe and its ingredient snapshots in one
// transaction. A recipe with no usable ingredient line is invalid and
// nothing is persisted.
func (s *RecipeCostService) CreateRecipe(ctx context.Context, recipe *models.Recipe, lines []IngredientLine) error {
	if recipe.Servings < 1 {
		recipe.Servings = 1
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return translateDBError(err)
		}
		rows, err := buildLines(tx, recipe.ID, lines)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return validationf("ingredients", "a recipe needs at least one ingredient line with a positive quantity")
		}
		if err := tx.Create(&rows).Error; err != nil {
			return translateDBError(err)
		}
		recipe.Lines = rows
		return nil
	})
}

// UpdateRecipe rewrites a recipe's fields and replaces all its ingredient
// lines atomically. The delete-and-recreate avoids orphaned snapshot rows.
func (s *RecipeCostService) UpdateRecipe(ctx context.Context, owner uuid.UUID, recipe *models.Recipe, lines []IngredientLine) error {
	if recipe.Servings < 1 {
		recipe.Servings = 1
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Recipe
		if err := tx.First(&existing, "id = ? AND user_id = ?", recipe.ID, owner).Error; err != nil {
			return translateDBError(err)
		}
		rows, err := buildLines(tx, recipe.ID, lines)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return validationf("ingredients", "a recipe needs at least one ingredient line with a positive quantity")
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		recipe.UserID = existing.UserID
		recipe.CreatedAt = existing.CreatedAt
		if err := tx.Save(recipe).Error; err != nil {
			return translateDBError(err)
		}
		if err := tx.Create(&rows).Error; err != nil {
			return translateDBError(err)
		}
		recipe.Lines = rows
		return nil
	})
}

// GetRecipe loads a recipe with its ingredient lines.
func (s *RecipeCostService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Preload("Lines").First(&recipe, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &recipe, nil
}

// ListRecipes lists recipes, scoped to one owner when userID is non-nil.
func (s *RecipeCostService) ListRecipes(ctx context.Context, userID *uuid.UUID) ([]models.Recipe, error) {
	q := s.db.WithContext(ctx).Preload("Lines").Order("created_at desc")
	if userID != nil {
		q = q.Where("user_id = ?", *userID)
	}
	var recipes []models.Recipe
	if err := q.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// DeleteRecipe removes a recipe and its lines, owner-scoped.
func (s *RecipeCostService) DeleteRecipe(ctx context.Context, owner, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "id = ? AND user_id = ?", id, owner).Error; err != nil {
			return translateDBError(err)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&recipe).Error
	})
}

// IngredientsCost sums the cost snapshots of a recipe's lines, 2dp.
func IngredientsCost(recipe *models.Recipe) decimal.Decimal {
	total := decimal.Zero
	for _, line := range recipe.Lines {
		total = total.Add(line.Cost)
	}
	return total.Round(2)
}

// HiddenCost is the part of a recipe's cost not captured by ingredient
// prices: seasoning/overhead per serving, plus cooking energy in advanced
// mode.
func HiddenCost(recipe *models.Recipe, settings *models.CookingCostSetting) decimal.Decimal {
	servings := recipe.Servings
	if servings < 1 {
		servings = 1
	}
	basic := settings.SeasoningPerServing.Add(settings.OverheadPerServing).
		Mul(decimal.NewFromInt(int64(servings))).Round(2)
	if settings.Mode != models.CostModeAdvanced {
		return basic
	}

	stove := recipe.StoveOverride
	if stove == "" {
		stove = settings.DefaultStove
	}
	minutes := recipe.CookMinutes
	if minutes <= 0 {
		minutes = settings.DefaultCookMinutes
	}
	hours := decimal.NewFromInt(int64(minutes)).Div(sixty)

	var energy decimal.Decimal
	switch strings.ToLower(stove) {
	case models.StoveGas:
		energy = settings.GasCostPerHour.Mul(hours).Round(2)
	case models.StoveElectric:
		kwh := settings.ElectricWattage.Div(thousand).Mul(hours)
		energy = settings.ElectricityRate.Mul(kwh).Round(2)
	case models.StoveInduction:
		kwh := settings.InductionWattage.Div(thousand).Mul(hours)
		energy = settings.ElectricityRate.Mul(kwh).Round(2)
	default:
		energy = decimal.Zero
	}
	return basic.Add(energy)
}

// Cost assembles the full cost view of a recipe under the given settings.
func Cost(recipe *models.Recipe, settings *models.CookingCostSetting) CostBreakdown {
	servings := recipe.Servings
	if servings < 1 {
		servings = 1
	}
	ingredients := IngredientsCost(recipe)
	hidden := HiddenCost(recipe, settings)
	total := ingredients.Add(hidden)
	return CostBreakdown{
		IngredientsCost: ingredients,
		HiddenCost:      hidden,
		TotalCost:       total,
		PerServing:      total.Div(decimal.NewFromInt(int64(servings))).Round(2),
	}
}

// GetOrCreateSettings returns the owner's cooking-cost settings, creating
// the basic-mode defaults on first access.
func (s *RecipeCostService) GetOrCreateSettings(ctx context.Context, owner uuid.UUID) (*models.CookingCostSetting, error) {
	var settings models.CookingCostSetting
	err := s.db.WithContext(ctx).Where("user_id = ?", owner).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	settings = models.CookingCostSetting{
		UserID:             owner,
		Mode:               models.CostModeBasic,
		DefaultStove:       models.StoveGas,
		DefaultCookMinutes: 30,
	}
	if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &settings, nil
}

// UpdateSettings overwrites the owner's cooking-cost settings.
func (s *RecipeCostService) UpdateSettings(ctx context.Context, owner uuid.UUID, update *models.CookingCostSetting) (*models.CookingCostSetting, error) {
	if update.Mode != models.CostModeBasic && update.Mode != models.CostModeAdvanced {
		return nil, validationf("mode", "cost mode must be %q or %q", models.CostModeBasic, models.CostModeAdvanced)
	}
	settings, err := s.GetOrCreateSettings(ctx, owner)
	if err != nil {
		return nil, err
	}
	update.ID = settings.ID
	update.UserID = owner
	if err := s.db.WithContext(ctx).Save(update).Error; err != nil {
		return nil, translateDBError(err)
	}
	return update, nil
}

// UpsertIngredient creates or updates an ingredient by its unique name.
func (s *RecipeCostService) UpsertIngredient(ctx context.Context, name string, pricePerGram, price, sizeGrams decimal.Decimal) (*models.Ingredient, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, validationf("name", "ingredient name is required")
	}

	var ing models.Ingredient
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&ing).Error
	created := false
	if err == gorm.ErrRecordNotFound {
		ing = models.Ingredient{Name: name}
		created = true
	} else if err != nil {
		return nil, false, err
	}

	ing.PricePerGram = pricePerGram.Round(6)
	ing.Price = price.Round(2)
	ing.SizeGrams = sizeGrams.Round(2)

	if created {
		err = s.db.WithContext(ctx).Create(&ing).Error
	} else {
		err = s.db.WithContext(ctx).Save(&ing).Error
	}
	if err != nil {
		return nil, false, translateDBError(err)
	}
	return &ing, created, nil
}

// GetIngredient loads one ingredient by ID.
func (s *RecipeCostService) GetIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, "id = ?", id).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &ing, nil
}

// ListIngredients lists the catalog ordered by name.
func (s *RecipeCostService) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}
