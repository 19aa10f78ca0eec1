package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/restaurant-booking/models"
)

func TestValidateFood(t *testing.T) {
	ok := models.FoodRequest{Name: "Phở bò", Price: 65000, Stock: 10, CategoryID: 1}
	assert.Empty(t, ValidateFood(ok))

	errs := ValidateFood(models.FoodRequest{Price: 0, Stock: -1})
	assert.Equal(t, []string{
		"name is required",
		"price must be greater than 0 and less than 999999999",
		"stock cannot be negative",
		"category_id is required",
	}, errs)
}

func TestValidateCategory(t *testing.T) {
	assert.Empty(t, ValidateCategory(models.CategoryRequest{Name: "Đồ uống"}))
	assert.Equal(t, []string{"name must be between 2 and 100 characters"}, ValidateCategory(models.CategoryRequest{Name: "A"}))
}

func TestValidateCustomer(t *testing.T) {
	assert.Empty(t, ValidateCustomer(models.CustomerRequest{Name: "Lê Văn Tám", Phone: "0987 654 321"}))

	errs := ValidateCustomer(models.CustomerRequest{Name: "R2D2", Phone: "12", Email: "x@"})
	assert.Equal(t, []string{
		"name may only contain letters and spaces",
		"phone must be 10 to 11 digits",
		"email must be a valid email address",
	}, errs)
}
