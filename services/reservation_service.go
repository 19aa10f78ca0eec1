package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reservation events pushed to connected staff clients.
const (
	EventReservationCreated = "reservation_created"
	EventReservationUpdated = "reservation_updated"
	EventReservationStatus  = "reservation_status"
	EventReservationDeleted = "reservation_deleted"
)

const guestsPerTable = 4

// Notifier receives reservation events after they are committed.
type Notifier interface {
	Notify(event string, data interface{})
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, interface{}) {}

var reservationFilters = utils.FilterSpec{
	SearchColumns: []string{"ten_khach", "sdt", "email"},
	Equals: map[string]string{
		"status": "trang_thai",
		"date":   "ngay",
		"phone":  "sdt",
	},
}

// ReservationService runs the reservation workflow: validate, check the
// slot for conflicts, persist, re-read.
type ReservationService struct {
	db       *gorm.DB
	rules    BookingRules
	booking  config.BookingConfig
	notifier Notifier
	now      func() time.Time
}

func NewReservationService(db *gorm.DB, rules BookingRules, booking config.BookingConfig, notifier Notifier) *ReservationService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ReservationService{
		db:       db,
		rules:    rules,
		booking:  booking,
		notifier: notifier,
		now:      time.Now,
	}
}

var errDuplicateBooking = utils.NewConflictError(utils.CodeDuplicateBooking,
	"An active reservation already exists for this phone number at the same date and time")

// HasConflict reports whether an active reservation holds (phone, date, clock),
// ignoring excludeID when it is non-zero.
func (s *ReservationService) HasConflict(ctx context.Context, phone, date, clock string, excludeID uint) (bool, error) {
	return s.hasConflict(s.db.WithContext(ctx), phone, date, clock, excludeID, false)
}

func (s *ReservationService) hasConflict(tx *gorm.DB, phone, date, clock string, excludeID uint, lock bool) (bool, error) {
	q := tx.Model(&models.Reservation{}).
		Where("sdt = ? AND ngay = ? AND gio = ? AND trang_thai <> ?",
			phone, date, models.ShortClock(clock), models.ReservationCancelled)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var ids []uint
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		utils.Log.WithError(err).WithFields(map[string]interface{}{
			"sdt":  phone,
			"ngay": date,
			"gio":  clock,
		}).Error("Conflict check failed")
		return false, err
	}
	return len(ids) > 0, nil
}

// withSlot runs fn against the database. With strict locking it runs inside
// a transaction and the conflict query takes row locks.
func (s *ReservationService) withSlot(ctx context.Context, fn func(tx *gorm.DB, lock bool) error) error {
	db := s.db.WithContext(ctx)
	if !s.booking.StrictLocking {
		return fn(db, false)
	}
	return db.Transaction(func(tx *gorm.DB) error {
		return fn(tx, true)
	})
}

func (s *ReservationService) claimSlot(tx *gorm.DB, r models.Reservation, excludeID uint, lock bool) error {
	conflict, err := s.hasConflict(tx, r.SDT, r.Ngay, r.Gio, excludeID, lock)
	if err != nil {
		return utils.NewDatabaseError(err)
	}
	if conflict {
		return errDuplicateBooking
	}
	return nil
}

// Create validates req and stores it as a pending reservation.
func (s *ReservationService) Create(ctx context.Context, req models.ReservationRequest) (*models.Reservation, error) {
	req = req.Normalize()
	if errs := ValidateReservation(req, s.now(), s.rules); len(errs) > 0 {
		return nil, utils.NewValidationError(errs)
	}

	reservation := req.ToModel()
	err := s.withSlot(ctx, func(tx *gorm.DB, lock bool) error {
		if err := s.claimSlot(tx, reservation, 0, lock); err != nil {
			return err
		}
		return tx.Create(&reservation).Error
	})
	if err != nil {
		return nil, err
	}

	created, err := s.Get(ctx, reservation.ID)
	if err != nil {
		return nil, err
	}
	utils.Log.WithFields(map[string]interface{}{
		"id":   created.ID,
		"ngay": created.Ngay,
		"gio":  created.Gio,
	}).Info("Reservation created")
	s.notifier.Notify(EventReservationCreated, created)
	return created, nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.WithContext(ctx).First(&r, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("Reservation not found")
		}
		return nil, utils.NewDatabaseError(err)
	}
	return &r, nil
}

// List returns one page of reservations matching params, newest slot first.
func (s *ReservationService) List(ctx context.Context, params map[string]string, page utils.PageParams) ([]models.Reservation, utils.Pagination, error) {
	pred := utils.BuildFilters(reservationFilters, normalizeListParams(params))
	base := s.db.WithContext(ctx).Model(&models.Reservation{})
	if !pred.Empty() {
		base = base.Where(pred.Clause, pred.Args...)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, utils.Pagination{}, utils.NewDatabaseError(err)
	}

	reservations := []models.Reservation{}
	err := base.Session(&gorm.Session{}).
		Order("ngay DESC").Order("gio DESC").Order("id DESC").
		Limit(page.Limit).Offset(page.Offset).
		Find(&reservations).Error
	if err != nil {
		return nil, utils.Pagination{}, utils.NewDatabaseError(err)
	}
	return reservations, utils.NewPagination(total, page.Limit, page.Offset), nil
}

// normalizeListParams strips whitespace from the phone filter the same
// way stored numbers were stripped on create. params is not modified.
func normalizeListParams(params map[string]string) map[string]string {
	phone, ok := params["phone"]
	if !ok {
		return params
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		out[k] = v
	}
	out["phone"] = models.StripSpaces(phone)
	return out
}

// Update merges the provided fields into reservation id, revalidates the
// result and checks the slot again, ignoring the reservation itself.
func (s *ReservationService) Update(ctx context.Context, id uint, upd models.ReservationUpdateRequest) (*models.Reservation, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !existing.IsActive() {
		return nil, utils.NewConflictError("", "Cancelled reservations cannot be modified")
	}

	merged := upd.MergeInto(models.FromReservation(*existing))
	if errs := ValidateReservation(merged, s.now(), s.rules); len(errs) > 0 {
		return nil, utils.NewValidationError(errs)
	}
	next := merged.ToModel()

	err = s.withSlot(ctx, func(tx *gorm.DB, lock bool) error {
		if err := s.claimSlot(tx, next, id, lock); err != nil {
			return err
		}
		return tx.Model(&models.Reservation{ID: id}).Updates(map[string]interface{}{
			"ten_khach":      next.TenKhach,
			"sdt":            next.SDT,
			"email":          next.Email,
			"ngay":           next.Ngay,
			"gio":            next.Gio,
			"so_luong_khach": next.SoLuongKhach,
			"ghi_chu":        next.GhiChu,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(EventReservationUpdated, updated)
	return updated, nil
}

// UpdateStatus moves reservation id to status. Requesting the current status
// is a no-op.
func (s *ReservationService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Reservation, error) {
	if !models.IsValidReservationStatus(status) {
		return nil, utils.NewValidationError([]string{fmt.Sprintf(
			"trang_thai must be one of %s, %s, %s",
			models.ReservationPending, models.ReservationConfirmed, models.ReservationCancelled)})
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.TrangThai == status {
		return existing, nil
	}
	if !existing.CanTransitionTo(status) {
		return nil, utils.NewConflictError("", fmt.Sprintf("Cannot change status from %s to %s", existing.TrangThai, status))
	}

	res := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND trang_thai = ?", id, existing.TrangThai).
		Update("trang_thai", status)
	if res.Error != nil {
		return nil, utils.NewDatabaseError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, utils.NewConflictError("", "Reservation status changed concurrently, retry")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	utils.Log.WithFields(map[string]interface{}{
		"id":   id,
		"from": existing.TrangThai,
		"to":   status,
	}).Info("Reservation status changed")
	s.notifier.Notify(EventReservationStatus, updated)
	return updated, nil
}

func (s *ReservationService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Reservation{}, id)
	if res.Error != nil {
		return utils.NewDatabaseError(res.Error)
	}
	if res.RowsAffected == 0 {
		return utils.NewNotFoundError("Reservation not found")
	}
	s.notifier.Notify(EventReservationDeleted, map[string]uint{"id": id})
	return nil
}

// BulkDeleteResult reports how many of the requested ids were removed.
type BulkDeleteResult struct {
	DeletedCount   int64  `json:"deletedCount"`
	RequestedCount int    `json:"requestedCount"`
	NotFound       []uint `json:"notFound"`
}

const maxBulkDelete = 100

// BulkDelete removes every existing reservation among ids.
func (s *ReservationService) BulkDelete(ctx context.Context, ids []uint) (*BulkDeleteResult, error) {
	unique := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, utils.NewValidationError([]string{"ids must contain positive integers"})
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return nil, utils.NewValidationError([]string{"ids must be a non-empty array"})
	}
	if len(unique) > maxBulkDelete {
		return nil, utils.NewValidationError([]string{fmt.Sprintf("at most %d ids can be deleted at once", maxBulkDelete)})
	}

	result := &BulkDeleteResult{RequestedCount: len(unique), NotFound: []uint{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []uint
		if err := tx.Model(&models.Reservation{}).Where("id IN ?", unique).Pluck("id", &existing).Error; err != nil {
			return err
		}
		found := make(map[uint]struct{}, len(existing))
		for _, id := range existing {
			found[id] = struct{}{}
		}
		for _, id := range unique {
			if _, ok := found[id]; !ok {
				result.NotFound = append(result.NotFound, id)
			}
		}
		if len(existing) == 0 {
			return nil
		}
		res := tx.Where("id IN ?", existing).Delete(&models.Reservation{})
		result.DeletedCount = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return nil, utils.NewDatabaseError(err)
	}

	sort.Slice(result.NotFound, func(i, j int) bool { return result.NotFound[i] < result.NotFound[j] })
	if result.DeletedCount > 0 {
		s.notifier.Notify(EventReservationDeleted, result)
	}
	return result, nil
}

// Availability is the heuristic table count around a requested slot.
type Availability struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	Guests          int    `json:"guests"`
	TotalTables     int    `json:"totalTables"`
	BookedTables    int    `json:"bookedTables"`
	AvailableTables int    `json:"availableTables"`
	TablesNeeded    int    `json:"tablesNeeded"`
	Available       bool   `json:"available"`
}

func tablesFor(guests int) int {
	if guests <= 0 {
		return 0
	}
	return (guests + guestsPerTable - 1) / guestsPerTable
}

// Availability estimates free tables at date/clock. Active reservations
// closer than SlotMinutes to the requested time each occupy
// ceil(guests/4) tables.
func (s *ReservationService) Availability(ctx context.Context, date, clock, guests string) (*Availability, error) {
	var errs []string
	if _, err := time.Parse(dateLayout, date); err != nil {
		errs = append(errs, "date must be a date in YYYY-MM-DD format")
	}
	clock = models.ShortClock(clock)
	minute, err := config.ParseClock(clock)
	if err != nil {
		errs = append(errs, "time must be a time in HH:MM format")
	}
	party := 1
	if guests = strings.TrimSpace(guests); guests != "" {
		n, err := strconv.Atoi(guests)
		if err != nil || n < minGuests || n > s.rules.MaxGuests {
			errs = append(errs, fmt.Sprintf("guests must be an integer between %d and %d", minGuests, s.rules.MaxGuests))
		}
		party = n
	}
	if len(errs) > 0 {
		return nil, utils.NewValidationError(errs)
	}

	var active []models.Reservation
	err = s.db.WithContext(ctx).
		Select("gio", "so_luong_khach").
		Where("ngay = ? AND trang_thai <> ?", date, models.ReservationCancelled).
		Find(&active).Error
	if err != nil {
		return nil, utils.NewDatabaseError(err)
	}

	booked := 0
	for _, r := range active {
		m, err := config.ParseClock(models.ShortClock(r.Gio))
		if err != nil {
			continue
		}
		diff := m - minute
		if diff < 0 {
			diff = -diff
		}
		if diff < s.booking.SlotMinutes {
			booked += tablesFor(r.SoLuongKhach)
		}
	}

	free := s.booking.TotalTables - booked
	if free < 0 {
		free = 0
	}
	needed := tablesFor(party)
	return &Availability{
		Date:            date,
		Time:            clock,
		Guests:          party,
		TotalTables:     s.booking.TotalTables,
		BookedTables:    booked,
		AvailableTables: free,
		TablesNeeded:    needed,
		Available:       free >= needed,
	}, nil
}

// ReservationStats summarises reservations by status.
type ReservationStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Confirmed int64 `json:"confirmed"`
	Cancelled int64 `json:"cancelled"`
	Today     int64 `json:"today"`
	Upcoming  int64 `json:"upcoming"`
}

func (s *ReservationService) Stats(ctx context.Context) (*ReservationStats, error) {
	db := s.db.WithContext(ctx)

	var rows []struct {
		TrangThai string
		Count     int64
	}
	if err := db.Model(&models.Reservation{}).
		Select("trang_thai, COUNT(*) AS count").
		Group("trang_thai").
		Scan(&rows).Error; err != nil {
		return nil, utils.NewDatabaseError(err)
	}

	stats := &ReservationStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.TrangThai {
		case models.ReservationPending:
			stats.Pending = row.Count
		case models.ReservationConfirmed:
			stats.Confirmed = row.Count
		case models.ReservationCancelled:
			stats.Cancelled = row.Count
		}
	}

	today := s.Today()
	if err := db.Model(&models.Reservation{}).
		Where("ngay = ? AND trang_thai <> ?", today, models.ReservationCancelled).
		Count(&stats.Today).Error; err != nil {
		return nil, utils.NewDatabaseError(err)
	}
	if err := db.Model(&models.Reservation{}).
		Where("ngay >= ? AND trang_thai <> ?", today, models.ReservationCancelled).
		Count(&stats.Upcoming).Error; err != nil {
		return nil, utils.NewDatabaseError(err)
	}
	return stats, nil
}

// Today is the current date in the restaurant's time zone.
func (s *ReservationService) Today() string {
	return s.now().In(s.rules.location()).Format(dateLayout)
}

// ForDay returns the active reservations of one day ordered by time.
func (s *ReservationService) ForDay(ctx context.Context, date string) ([]models.Reservation, error) {
	if date == "" {
		date = s.Today()
	}
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, utils.NewValidationError([]string{"date must be a date in YYYY-MM-DD format"})
	}

	var out []models.Reservation
	err := s.db.WithContext(ctx).
		Where("ngay = ? AND trang_thai <> ?", date, models.ReservationCancelled).
		Order("gio ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, utils.NewDatabaseError(err)
	}
	return out, nil
}
