package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
)

var categoryFilters = utils.FilterSpec{
	SearchColumns: []string{"name", "description"},
}

type CategoryController struct {
	DB         *gorm.DB
	Pagination config.PaginationConfig
}

func NewCategoryController(db *gorm.DB, pagination config.PaginationConfig) *CategoryController {
	return &CategoryController{DB: db, Pagination: pagination}
}

func (cc *CategoryController) GetAllCategories(c *gin.Context) {
	page, err := pageParams(c, cc.Pagination)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	pred := utils.BuildFilters(categoryFilters, utils.QueryParams(c.Request.URL.Query()))
	query := applyPredicate(cc.DB.WithContext(c.Request.Context()).Model(&models.Category{}), pred)

	categories := []models.Category{}
	pagination, err := listPage(query, page, "name ASC", &categories)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondList(c, "List of categories", categories, pagination)
}

func (cc *CategoryController) findCategory(c *gin.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := cc.DB.WithContext(c.Request.Context()).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Category not found")
		}
		return nil, utils.NewDatabaseError(err)
	}
	return &category, nil
}

func (cc *CategoryController) GetCategoryByID(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	category, err := cc.findCategory(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category detail", category)
}

// nameTaken reports whether another category already uses name, ignoring case.
func (cc *CategoryController) nameTaken(c *gin.Context, name string, excludeID uint) (bool, error) {
	q := cc.DB.WithContext(c.Request.Context()).Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, utils.NewDatabaseError(err)
	}
	return count > 0, nil
}

func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if errs := services.ValidateCategory(req); len(errs) > 0 {
		utils.RespondError(c, utils.NewValidationError(errs))
		return
	}

	taken, err := cc.nameTaken(c, req.Name, 0)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if taken {
		utils.RespondError(c, utils.NewConflictError("", "Category name already exists"))
		return
	}

	category := models.Category{Name: req.Name, Description: req.Description}
	if err := cc.DB.WithContext(c.Request.Context()).Create(&category).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	created, err := cc.findCategory(c, category.ID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Category created", created)
}

func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var upd models.CategoryUpdateRequest
	if err := utils.DecodeJSON(c, &upd); err != nil {
		utils.RespondError(c, err)
		return
	}
	existing, err := cc.findCategory(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	merged := models.CategoryRequest{Name: existing.Name, Description: existing.Description}
	if upd.Name != nil {
		merged.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		merged.Description = strings.TrimSpace(*upd.Description)
	}
	if errs := services.ValidateCategory(merged); len(errs) > 0 {
		utils.RespondError(c, utils.NewValidationError(errs))
		return
	}
	taken, err := cc.nameTaken(c, merged.Name, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if taken {
		utils.RespondError(c, utils.NewConflictError("", "Category name already exists"))
		return
	}

	err = cc.DB.WithContext(c.Request.Context()).Model(&models.Category{ID: id}).
		Updates(map[string]interface{}{"name": merged.Name, "description": merged.Description}).Error
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	updated, err := cc.findCategory(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category updated", updated)
}

// DeleteCategory refuses to delete a category that foods still use.
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if _, err := cc.findCategory(c, id); err != nil {
		utils.RespondError(c, err)
		return
	}

	var inUse int64
	if err := cc.DB.WithContext(c.Request.Context()).Model(&models.Food{}).Where("category_id = ?", id).Count(&inUse).Error; err != nil {
		utils.RespondError(c, utils.NewDatabaseError(err))
		return
	}
	if inUse > 0 {
		utils.RespondError(c, utils.NewConflictError("", "Category is still used by foods and cannot be deleted"))
		return
	}

	if err := cc.DB.WithContext(c.Request.Context()).Delete(&models.Category{}, id).Error; err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"id": id})
}
