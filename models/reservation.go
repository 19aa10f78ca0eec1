package models

import "time"

// Reservation statuses.
const (
	ReservationPending   = "pending"
	ReservationConfirmed = "confirmed"
	ReservationCancelled = "cancelled"
)

// reservationTransitions lists the statuses reachable from each status.
var reservationTransitions = map[string][]string{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled},
	ReservationConfirmed: {ReservationCancelled},
	ReservationCancelled: {},
}

type Reservation struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenKhach     string    `gorm:"type:varchar(100);not null" json:"ten_khach"`
	SDT          string    `gorm:"type:varchar(11);not null;index:idx_reservation_slot" json:"sdt"`
	Email        string    `gorm:"type:varchar(100)" json:"email"`
	Ngay         string    `gorm:"type:varchar(10);not null;index:idx_reservation_slot" json:"ngay"`
	Gio          string    `gorm:"type:varchar(5);not null;index:idx_reservation_slot" json:"gio"`
	SoLuongKhach int       `gorm:"not null" json:"so_luong_khach"`
	GhiChu       string    `gorm:"type:text" json:"ghi_chu"`
	TrangThai    string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"trang_thai"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null" json:"updated_at"`
}

// IsActive reports whether the reservation still holds its slot.
func (r *Reservation) IsActive() bool {
	return r.TrangThai != ReservationCancelled
}

// CanTransitionTo reports whether moving to status is allowed.
func (r *Reservation) CanTransitionTo(status string) bool {
	for _, s := range reservationTransitions[r.TrangThai] {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidReservationStatus reports whether s is a known status.
func IsValidReservationStatus(s string) bool {
	_, ok := reservationTransitions[s]
	return ok
}
