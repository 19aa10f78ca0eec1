package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/yeremiapane/restaurant-booking/utils"
)

// ReservationRequest is the body of POST /api/datban.
type ReservationRequest struct {
	TenKhach     string         `json:"ten_khach"`
	SDT          string         `json:"sdt"`
	Email        string         `json:"email"`
	Ngay         string         `json:"ngay"`
	Gio          string         `json:"gio"`
	SoLuongKhach *utils.FlexInt `json:"so_luong_khach"`
	GhiChu       string         `json:"ghi_chu"`
}

// Normalize trims text fields and strips whitespace from the phone number.
func (r ReservationRequest) Normalize() ReservationRequest {
	r.TenKhach = strings.TrimSpace(r.TenKhach)
	r.SDT = StripSpaces(r.SDT)
	r.Email = strings.TrimSpace(r.Email)
	r.Ngay = strings.TrimSpace(r.Ngay)
	r.Gio = strings.TrimSpace(r.Gio)
	r.GhiChu = strings.TrimSpace(r.GhiChu)
	return r
}

// ToModel builds a new pending reservation. Call only after validation.
func (r ReservationRequest) ToModel() Reservation {
	guests := 0
	if r.SoLuongKhach != nil {
		guests = r.SoLuongKhach.Value
	}
	return Reservation{
		TenKhach:     r.TenKhach,
		SDT:          r.SDT,
		Email:        r.Email,
		Ngay:         r.Ngay,
		Gio:          ShortClock(r.Gio),
		SoLuongKhach: guests,
		GhiChu:       r.GhiChu,
		TrangThai:    ReservationPending,
	}
}

// FromReservation converts a stored reservation back into request form so
// that merged updates can be revalidated with the same rules.
func FromReservation(m Reservation) ReservationRequest {
	return ReservationRequest{
		TenKhach:     m.TenKhach,
		SDT:          m.SDT,
		Email:        m.Email,
		Ngay:         m.Ngay,
		Gio:          m.Gio,
		SoLuongKhach: &utils.FlexInt{Value: m.SoLuongKhach, Valid: true},
		GhiChu:       m.GhiChu,
	}
}

// ReservationUpdateRequest carries only the fields a client wants changed.
type ReservationUpdateRequest struct {
	TenKhach     *string        `json:"ten_khach"`
	SDT          *string        `json:"sdt"`
	Email        *string        `json:"email"`
	Ngay         *string        `json:"ngay"`
	Gio          *string        `json:"gio"`
	SoLuongKhach *utils.FlexInt `json:"so_luong_khach"`
	GhiChu       *string        `json:"ghi_chu"`
}

// MergeInto overlays the provided fields on base.
func (u ReservationUpdateRequest) MergeInto(base ReservationRequest) ReservationRequest {
	if u.TenKhach != nil {
		base.TenKhach = *u.TenKhach
	}
	if u.SDT != nil {
		base.SDT = *u.SDT
	}
	if u.Email != nil {
		base.Email = *u.Email
	}
	if u.Ngay != nil {
		base.Ngay = *u.Ngay
	}
	if u.Gio != nil {
		base.Gio = *u.Gio
	}
	if u.SoLuongKhach != nil {
		base.SoLuongKhach = u.SoLuongKhach
	}
	if u.GhiChu != nil {
		base.GhiChu = *u.GhiChu
	}
	return base.Normalize()
}

type StatusRequest struct {
	TrangThai string `json:"trang_thai"`
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids"`
}

type FoodRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image"`
	CategoryID  uint    `json:"category_id"`
}

type FoodUpdateRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Image       *string  `json:"image"`
	CategoryID  *uint    `json:"category_id"`
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
	Note    *string `json:"note"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

// StripSpaces removes every whitespace rune.
func StripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ShortClock reduces a valid "HH:MM:SS" to "HH:MM". Anything else is
// returned unchanged so the caller's HH:MM parse rejects it.
func ShortClock(s string) string {
	if len(s) == 8 {
		if _, err := time.Parse("15:04:05", s); err == nil {
			return s[:5]
		}
	}
	return s
}
