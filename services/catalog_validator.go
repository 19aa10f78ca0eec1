package services

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
)

const (
	maxPrice       = utils.MaxPriceSentinel
	passwordMinLen = 8
)

func checkLength(errs []string, field, value string, min, max int) []string {
	n := utf8.RuneCountInString(value)
	switch {
	case n == 0 && min > 0:
		return append(errs, field+" is required")
	case n < min || n > max:
		return append(errs, fmt.Sprintf("%s must be between %d and %d characters", field, min, max))
	}
	return errs
}

// ValidateFood checks a complete food payload.
func ValidateFood(in models.FoodRequest) []string {
	var errs []string
	errs = checkLength(errs, "name", strings.TrimSpace(in.Name), 2, 100)
	if utf8.RuneCountInString(in.Description) > 1000 {
		errs = append(errs, "description must be at most 1000 characters")
	}
	if in.Price <= 0 || in.Price >= maxPrice {
		errs = append(errs, fmt.Sprintf("price must be greater than 0 and less than %d", maxPrice))
	}
	if in.Stock < 0 {
		errs = append(errs, "stock cannot be negative")
	}
	if len(in.Image) > 500 {
		errs = append(errs, "image must be at most 500 characters")
	}
	if in.CategoryID == 0 {
		errs = append(errs, "category_id is required")
	}
	return errs
}

// ValidateCategory checks a complete category payload.
func ValidateCategory(in models.CategoryRequest) []string {
	var errs []string
	errs = checkLength(errs, "name", strings.TrimSpace(in.Name), 2, 100)
	if utf8.RuneCountInString(in.Description) > 500 {
		errs = append(errs, "description must be at most 500 characters")
	}
	return errs
}

// ValidateCustomer checks a complete customer payload.
func ValidateCustomer(in models.CustomerRequest) []string {
	var errs []string
	name := strings.TrimSpace(in.Name)
	errs = checkLength(errs, "name", name, nameMinLen, nameMaxLen)
	if name != "" && !namePattern.MatchString(name) {
		errs = append(errs, "name may only contain letters and spaces")
	}

	phone := models.StripSpaces(in.Phone)
	switch {
	case phone == "":
		errs = append(errs, "phone is required")
	case !phonePattern.MatchString(phone):
		errs = append(errs, "phone must be 10 to 11 digits")
	}

	if email := strings.TrimSpace(in.Email); email != "" {
		if len(email) > emailMaxLen || !emailPattern.MatchString(email) {
			errs = append(errs, "email must be a valid email address")
		}
	}
	if utf8.RuneCountInString(in.Address) > 255 {
		errs = append(errs, "address must be at most 255 characters")
	}
	if utf8.RuneCountInString(in.Note) > noteMaxLen {
		errs = append(errs, fmt.Sprintf("note must be at most %d characters", noteMaxLen))
	}
	return errs
}

// ValidateRegistration checks a sign-up payload.
func ValidateRegistration(in models.RegisterRequest) []string {
	var errs []string
	errs = checkLength(errs, "name", strings.TrimSpace(in.Name), 2, 100)
	email := strings.TrimSpace(in.Email)
	switch {
	case email == "":
		errs = append(errs, "email is required")
	case len(email) > emailMaxLen || !emailPattern.MatchString(email):
		errs = append(errs, "email must be a valid email address")
	}
	if len(in.Password) < passwordMinLen {
		errs = append(errs, fmt.Sprintf("password must be at least %d characters", passwordMinLen))
	}
	if len(in.Password) > 72 {
		errs = append(errs, "password must be at most 72 bytes")
	}
	return errs
}
