package services

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	nameMinLen  = 2
	nameMaxLen  = 100
	emailMaxLen = 100
	noteMaxLen  = 500
	minGuests   = 1
)

var (
	namePattern  = regexp.MustCompile(`^[\p{L}\p{M}\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// BookingRules are the temporal limits a reservation must respect.
type BookingRules struct {
	OpenMinute   int
	CloseMinute  int
	MaxDaysAhead int
	MaxGuests    int
	Location     *time.Location
}

// DefaultBookingRules opens 10:00-21:30, up to 30 days ahead, 1-20 guests.
func DefaultBookingRules() BookingRules {
	return BookingRules{
		OpenMinute:   10 * 60,
		CloseMinute:  21*60 + 30,
		MaxDaysAhead: 30,
		MaxGuests:    20,
		Location:     time.Local,
	}
}

// NewBookingRules builds rules from configuration.
func NewBookingRules(cfg config.BookingConfig, loc *time.Location) (BookingRules, error) {
	open, err := config.ParseClock(cfg.OpenTime)
	if err != nil {
		return BookingRules{}, fmt.Errorf("booking open time: %w", err)
	}
	closing, err := config.ParseClock(cfg.CloseTime)
	if err != nil {
		return BookingRules{}, fmt.Errorf("booking close time: %w", err)
	}
	if loc == nil {
		loc = time.Local
	}
	return BookingRules{
		OpenMinute:   open,
		CloseMinute:  closing,
		MaxDaysAhead: cfg.MaxDaysAhead,
		MaxGuests:    cfg.MaxGuests,
		Location:     loc,
	}, nil
}

func (r BookingRules) location() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

func formatMinute(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ValidateReservation checks every field of in and returns all violations
// in field order. An empty result means the reservation is acceptable at now.
func ValidateReservation(in models.ReservationRequest, now time.Time, rules BookingRules) []string {
	in = in.Normalize()
	var errs []string

	switch n := utf8.RuneCountInString(in.TenKhach); {
	case n == 0:
		errs = append(errs, "ten_khach is required")
	case n < nameMinLen || n > nameMaxLen:
		errs = append(errs, fmt.Sprintf("ten_khach must be between %d and %d characters", nameMinLen, nameMaxLen))
	case !namePattern.MatchString(in.TenKhach):
		errs = append(errs, "ten_khach may only contain letters and spaces")
	}

	switch {
	case in.SDT == "":
		errs = append(errs, "sdt is required")
	case !phonePattern.MatchString(in.SDT):
		errs = append(errs, "sdt must be 10 to 11 digits")
	}

	if in.Email != "" {
		if len(in.Email) > emailMaxLen {
			errs = append(errs, fmt.Sprintf("email must be at most %d characters", emailMaxLen))
		} else if !emailPattern.MatchString(in.Email) {
			errs = append(errs, "email must be a valid email address")
		}
	}

	loc := rules.location()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	var (
		day     time.Time
		dayOK   bool
		isToday bool
	)
	if in.Ngay == "" {
		errs = append(errs, "ngay is required")
	} else if d, err := time.ParseInLocation(dateLayout, in.Ngay, loc); err != nil {
		errs = append(errs, "ngay must be a date in YYYY-MM-DD format")
	} else {
		day, dayOK = d, true
		switch {
		case d.Before(today):
			errs = append(errs, "ngay cannot be in the past")
		case d.After(today.AddDate(0, 0, rules.MaxDaysAhead)):
			errs = append(errs, fmt.Sprintf("ngay cannot be more than %d days ahead", rules.MaxDaysAhead))
		}
		isToday = d.Equal(today)
	}

	if in.Gio == "" {
		errs = append(errs, "gio is required")
	} else if minute, err := config.ParseClock(models.ShortClock(in.Gio)); err != nil {
		errs = append(errs, "gio must be a time in HH:MM format")
	} else if minute < rules.OpenMinute || minute > rules.CloseMinute {
		errs = append(errs, fmt.Sprintf("gio must be between %s and %s",
			formatMinute(rules.OpenMinute), formatMinute(rules.CloseMinute)))
	} else if dayOK && isToday {
		slot := day.Add(time.Duration(minute) * time.Minute)
		if !slot.After(now) {
			errs = append(errs, "gio must be later than the current time for bookings today")
		}
	}

	switch {
	case in.SoLuongKhach == nil:
		errs = append(errs, "so_luong_khach is required")
	case !in.SoLuongKhach.Valid || in.SoLuongKhach.Value < minGuests || in.SoLuongKhach.Value > rules.MaxGuests:
		errs = append(errs, fmt.Sprintf("so_luong_khach must be an integer between %d and %d", minGuests, rules.MaxGuests))
	}

	if utf8.RuneCountInString(in.GhiChu) > noteMaxLen {
		errs = append(errs, fmt.Sprintf("ghi_chu must be at most %d characters", noteMaxLen))
	}

	return errs
}
