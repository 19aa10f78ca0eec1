package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/storage"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

var foodFilters = utils.FilterSpec{
	SearchColumns:  []string{"foods.name", "foods.description", "categories.name"},
	CategoryColumn: "foods.category_id",
	PriceColumn:    "foods.price",
	StockColumn:    "foods.stock",
}

type FoodController struct {
	DB         *gorm.DB
	Storage    storage.Storage
	Pagination config.PaginationConfig
}

func NewFoodController(db *gorm.DB, store storage.Storage, pagination config.PaginationConfig) *FoodController {
	return &FoodController{DB: db, Storage: store, Pagination: pagination}
}

type foodResponse struct {
	models.Food
	PriceLabel string `json:"price_label"`
}

func toFoodResponse(f models.Food) foodResponse {
	return foodResponse{Food: f, PriceLabel: utils.FormatVND(f.Price)}
}

// GetAllFoods lists foods with search, category, price and stock filters.
func (fc *FoodController) GetAllFoods(c *gin.Context) {
	page, err := pageParams(c, fc.Pagination)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	pred := utils.BuildFilters(foodFilters, utils.QueryParams(c.Request.URL.Query()))
	query := fc.DB.WithContext(c.Request.Context()).Model(&models.Food{}).
		Joins("LEFT JOIN categories ON categories.id = foods.category_id")
	query = applyPredicate(query, pred)

	var foods []models.Food
	pagination, err := listPage(query, page, "foods.id DESC", &foods, "Category")
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	out := make([]foodResponse, 0, len(foods))
	for _, f := range foods {
		out = append(out, toFoodResponse(f))
	}
	utils.RespondList(c, "List of foods", out, pagination)
}

func (fc *FoodController) findFood(c *gin.Context, id uint) (*models.Food, error) {
	var food models.Food
	if err := fc.DB.WithContext(c.Request.Context()).Preload("Category").First(&food, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Food not found")
		}
		return nil, utils.NewDatabaseError(err)
	}
	return &food, nil
}

func (fc *FoodController) GetFoodByID(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	food, err := fc.findFood(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Food detail", toFoodResponse(*food))
}

func (fc *FoodController) ensureCategory(c *gin.Context, id uint) error {
	var count int64
	if err := fc.DB.WithContext(c.Request.Context()).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return utils.NewDatabaseError(err)
	}
	if count == 0 {
		return utils.NewValidationError([]string{"category_id does not reference an existing category"})
	}
	return nil
}

func normalizeFood(req *models.FoodRequest) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	req.Image = strings.TrimSpace(req.Image)
}

func (fc *FoodController) CreateFood(c *gin.Context) {
	var req models.FoodRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	normalizeFood(&req)
	if errs := services.ValidateFood(req); len(errs) > 0 {
		utils.RespondError(c, utils.NewValidationError(errs))
		return
	}
	if err := fc.ensureCategory(c, req.CategoryID); err != nil {
		utils.RespondError(c, err)
		return
	}

	food := models.Food{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Image:       req.Image,
	}
	if err := fc.DB.WithContext(c.Request.Context()).Create(&food).Error; err != nil {
		utils.RespondError(c, err)
		return
	}

	created, err := fc.findFood(c, food.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Food created", toFoodResponse(*created))
}

func (fc *FoodController) UpdateFood(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var upd models.FoodUpdateRequest
	if err := utils.DecodeJSON(c, &upd); err != nil {
		utils.RespondError(c, err)
		return
	}
	existing, err := fc.findFood(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	merged := models.FoodRequest{
		Name:        existing.Name,
		Description: existing.Description,
		Price:       existing.Price,
		Stock:       existing.Stock,
		Image:       existing.Image,
		CategoryID:  existing.CategoryID,
	}
	if upd.Name != nil {
		merged.Name = *upd.Name
	}
	if upd.Description != nil {
		merged.Description = *upd.Description
	}
	if upd.Price != nil {
		merged.Price = *upd.Price
	}
	if upd.Stock != nil {
		merged.Stock = *upd.Stock
	}
	if upd.Image != nil {
		merged.Image = *upd.Image
	}
	if upd.CategoryID != nil {
		merged.CategoryID = *upd.CategoryID
	}
	normalizeFood(&merged)

	if errs := services.ValidateFood(merged); len(errs) > 0 {
		utils.RespondError(c, utils.NewValidationError(errs))
		return
	}
	if merged.CategoryID != existing.CategoryID {
		if err := fc.ensureCategory(c, merged.CategoryID); err != nil {
			utils.RespondError(c, err)
			return
		}
	}

	err = fc.DB.WithContext(c.Request.Context()).Model(&models.Food{ID: id}).Updates(map[string]interface{}{
		"name":        merged.Name,
		"description": merged.Description,
		"price":       merged.Price,
		"stock":       merged.Stock,
		"image":       merged.Image,
		"category_id": merged.CategoryID,
	}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if existing.Image != "" && existing.Image != merged.Image {
		fc.removeImage(c, existing.Image)
	}

	updated, err := fc.findFood(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Food updated", toFoodResponse(*updated))
}

func (fc *FoodController) DeleteFood(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	food, err := fc.findFood(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := fc.DB.WithContext(c.Request.Context()).Delete(&models.Food{}, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	if food.Image != "" {
		fc.removeImage(c, food.Image)
	}
	utils.RespondJSON(c, http.StatusOK, "Food deleted", gin.H{"id": id})
}

// removeImage deletes a stored image that is no longer referenced. Failures
// are only logged; the row change has already committed.
func (fc *FoodController) removeImage(c *gin.Context, url string) {
	if fc.Storage == nil {
		return
	}
	key := fc.Storage.KeyFromURL(url)
	if key == "" {
		return
	}
	if err := fc.Storage.Delete(c.Request.Context(), key); err != nil {
		utils.Log.WithError(err).WithField("key", key).Warn("Remove food image")
	}
}
