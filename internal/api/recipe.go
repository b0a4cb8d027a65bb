package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mealmatchy/backend/internal/middleware"
	"github.com/mealmatchy/backend/internal/models"
	"github.com/mealmatchy/backend/internal/service"
)

type RecipeHandler struct {
	recipeService *service.RecipeCostService
	authService   *service.AuthService
}

func NewRecipeHandler(recipeService *service.RecipeCostService, authService *service.AuthService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService, authService: authService}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	authed := middleware.AuthMiddleware(h.authService)

	ingredients := router.Group("/ingredients")
	ingredients.Use(authed)
	{
		ingredients.GET("", h.ListIngredients)
		ingredients.POST("", h.UpsertIngredient)
		ingredients.GET("/:id", h.GetIngredient)
	}

	recipes := router.Group("/recipes")
	recipes.Use(authed)
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", h.CreateRecipe)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PUT("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)
	}

	settings := router.Group("/cooking-settings")
	settings.Use(authed)
	{
		settings.GET("", h.GetSettings)
		settings.PUT("", h.UpdateSettings)
	}
}

// parseAmount accepts a decimal string, treating "" as zero.
func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func (h *RecipeHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.recipeService.ListIngredients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

func (h *RecipeHandler) UpsertIngredient(c *gin.Context) {
	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	pricePerGram, err := parseAmount(req.PricePerGram)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_per_gram"})
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price"})
		return
	}
	sizeGrams, err := parseAmount(req.SizeGrams)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size_grams"})
		return
	}

	ingredient, created, err := h.recipeService.UpsertIngredient(c.Request.Context(), req.Name, pricePerGram, price, sizeGrams)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, ingredient)
}

func (h *RecipeHandler) GetIngredient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient id"})
		return
	}

	ingredient, err := h.recipeService.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingredient":     ingredient,
		"price_per_gram": service.PricePerGram(ingredient),
	})
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), &owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) bindRecipe(c *gin.Context) (*models.Recipe, []service.IngredientLine, bool) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, nil, false
	}

	lines := make([]service.IngredientLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		id, err := uuid.Parse(l.IngredientID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient_id"})
			return nil, nil, false
		}
		qty, err := parseAmount(l.QuantityGrams)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quantity_grams"})
			return nil, nil, false
		}
		lines = append(lines, service.IngredientLine{IngredientID: id, QuantityGrams: qty})
	}

	servings := req.Servings
	if servings < 1 {
		servings = 1
	}

	return &models.Recipe{
		Title:         req.Title,
		Description:   req.Description,
		Steps:         req.Steps,
		Servings:      servings,
		PrepMinutes:   req.PrepMinutes,
		CookMinutes:   req.CookMinutes,
		StoveOverride: req.StoveOverride,
	}, lines, true
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	recipe, lines, ok := h.bindRecipe(c)
	if !ok {
		return
	}
	recipe.UserID = owner

	if err := h.recipeService.CreateRecipe(c.Request.Context(), recipe, lines); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.recipeView(c, owner, recipe))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.recipeView(c, owner, recipe))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, lines, ok := h.bindRecipe(c)
	if !ok {
		return
	}
	recipe.ID = id

	if err := h.recipeService.UpdateRecipe(c.Request.Context(), owner, recipe, lines); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.recipeView(c, owner, recipe))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// recipeView attaches the computed cost breakdown to a recipe payload.
func (h *RecipeHandler) recipeView(c *gin.Context, owner uuid.UUID, recipe *models.Recipe) gin.H {
	view := gin.H{"recipe": recipe}
	settings, err := h.recipeService.GetOrCreateSettings(c.Request.Context(), owner)
	if err == nil {
		view["cost"] = service.Cost(recipe, settings)
	}
	return view
}

func (h *RecipeHandler) GetSettings(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	settings, err := h.recipeService.GetOrCreateSettings(c.Request.Context(), owner)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *RecipeHandler) UpdateSettings(c *gin.Context) {
	owner, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CookingSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	update := &models.CookingCostSetting{
		Mode:               req.Mode,
		DefaultStove:       req.DefaultStove,
		DefaultCookMinutes: req.DefaultCookMinutes,
	}
	fields := []struct {
		raw  string
		name string
		dst  *decimal.Decimal
	}{
		{req.SeasoningPerServing, "seasoning_per_serving", &update.SeasoningPerServing},
		{req.OverheadPerServing, "overhead_per_serving", &update.OverheadPerServing},
		{req.ElectricityRate, "electricity_rate", &update.ElectricityRate},
		{req.ElectricWattage, "electric_wattage", &update.ElectricWattage},
		{req.InductionWattage, "induction_wattage", &update.InductionWattage},
		{req.GasCostPerHour, "gas_cost_per_hour", &update.GasCostPerHour},
	}
	for _, f := range fields {
		v, err := parseAmount(f.raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + f.name})
			return
		}
		*f.dst = v
	}

	settings, err := h.recipeService.UpdateSettings(c.Request.Context(), owner, update)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
