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

var customerFilters = utils.FilterSpec{
	SearchColumns: []string{"name", "phone", "email"},
}

type CustomerController struct {
	DB         *gorm.DB
	Pagination config.PaginationConfig
}

func NewCustomerController(db *gorm.DB, pagination config.PaginationConfig) *CustomerController {
	return &CustomerController{DB: db, Pagination: pagination}
}

func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	page, err := pageParams(c, cc.Pagination)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	pred := utils.BuildFilters(customerFilters, utils.QueryParams(c.Request.URL.Query()))
	query := applyPredicate(cc.DB.WithContext(c.Request.Context()).Model(&models.Customer{}), pred)

	customers := []models.Customer{}
	pagination, err := listPage(query, page, "id DESC", &customers)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondList(c, "List of customers", customers, pagination)
}

func (cc *CustomerController) findCustomer(c *gin.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := cc.DB.WithContext(c.Request.Context()).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Customer not found")
		}
		return nil, utils.NewDatabaseError(err)
	}
	return &customer, nil
}

func (cc *CustomerController) GetCustomerByID(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	customer, err := cc.findCustomer(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer detail", customer)
}

func (cc *CustomerController) phoneTaken(c *gin.Context, phone string, excludeID uint) (bool, error) {
	q := cc.DB.WithContext(c.Request.Context()).Model(&models.Customer{}).Where("phone = ?", phone)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, utils.NewDatabaseError(err)
	}
	return count > 0, nil
}

func normalizeCustomer(in models.CustomerRequest) models.CustomerRequest {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = models.StripSpaces(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)
	in.Note = strings.TrimSpace(in.Note)
	return in
}

func (cc *CustomerController) saveCustomer(c *gin.Context, req models.CustomerRequest, id uint) (*models.Customer, error) {
	if errs := services.ValidateCustomer(req); len(errs) > 0 {
		return nil, utils.NewValidationError(errs)
	}
	taken, err := cc.phoneTaken(c, req.Phone, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, utils.NewConflictError("", "A customer with this phone number already exists")
	}

	db := cc.DB.WithContext(c.Request.Context())
	if id == 0 {
		customer := models.Customer{Name: req.Name, Phone: req.Phone, Email: req.Email, Address: req.Address, Note: req.Note}
		if err := db.Create(&customer).Error; err != nil {
			return nil, err
		}
		id = customer.ID
	} else {
		err := db.Model(&models.Customer{ID: id}).Updates(map[string]interface{}{
			"name":    req.Name,
			"phone":   req.Phone,
			"email":   req.Email,
			"address": req.Address,
			"note":    req.Note,
		}).Error
		if err != nil {
			return nil, err
		}
	}
	return cc.findCustomer(c, id)
}

func (cc *CustomerController) CreateCustomer(c *gin.Context) {
	var req models.CustomerRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	customer, err := cc.saveCustomer(c, normalizeCustomer(req), 0)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Customer created", customer)
}

func (cc *CustomerController) UpdateCustomer(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var upd models.CustomerUpdateRequest
	if err := utils.DecodeJSON(c, &upd); err != nil {
		utils.RespondError(c, err)
		return
	}
	existing, err := cc.findCustomer(c, id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	merged := models.CustomerRequest{
		Name:    existing.Name,
		Phone:   existing.Phone,
		Email:   existing.Email,
		Address: existing.Address,
		Note:    existing.Note,
	}
	for dst, src := range map[*string]*string{
		&merged.Name:    upd.Name,
		&merged.Phone:   upd.Phone,
		&merged.Email:   upd.Email,
		&merged.Address: upd.Address,
		&merged.Note:    upd.Note,
	} {
		if src != nil {
			*dst = *src
		}
	}

	customer, err := cc.saveCustomer(c, normalizeCustomer(merged), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer updated", customer)
}

func (cc *CustomerController) DeleteCustomer(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	res := cc.DB.WithContext(c.Request.Context()).Delete(&models.Customer{}, id)
	if res.Error != nil {
		utils.RespondError(c, utils.NewDatabaseError(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, utils.NewNotFoundError("Customer not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Customer deleted", gin.H{"id": id})
}
