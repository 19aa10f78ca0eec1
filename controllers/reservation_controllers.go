package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-booking/config"
	"github.com/yeremiapane/restaurant-booking/models"
	"github.com/yeremiapane/restaurant-booking/services"
	"github.com/yeremiapane/restaurant-booking/utils"
)

type ReservationController struct {
	Service    *services.ReservationService
	Pagination config.PaginationConfig
}

func NewReservationController(svc *services.ReservationService, pagination config.PaginationConfig) *ReservationController {
	return &ReservationController{Service: svc, Pagination: pagination}
}

// CreateReservation handles POST /api/datban.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var req models.ReservationRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	reservation, err := rc.Service.Create(c.Request.Context(), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Reservation created", reservation)
}

func (rc *ReservationController) GetReservations(c *gin.Context) {
	page, err := pageParams(c, rc.Pagination)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	reservations, pagination, err := rc.Service.List(c.Request.Context(), utils.QueryParams(c.Request.URL.Query()), page)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondList(c, "List of reservations", reservations, pagination)
}

func (rc *ReservationController) GetReservationByID(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	reservation, err := rc.Service.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation detail", reservation)
}

func (rc *ReservationController) UpdateReservation(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req models.ReservationUpdateRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	reservation, err := rc.Service.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation updated", reservation)
}

// UpdateReservationStatus handles PATCH /api/datban/:id/status.
func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req models.StatusRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}

	status := strings.ToLower(strings.TrimSpace(req.TrangThai))
	reservation, err := rc.Service.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation status updated", reservation)
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, err := utils.ParseID(c, "id")
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := rc.Service.Delete(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation deleted", gin.H{"id": id})
}

// BulkDeleteReservations handles DELETE /api/datban/bulk.
func (rc *ReservationController) BulkDeleteReservations(c *gin.Context) {
	var req models.BulkDeleteRequest
	if err := utils.DecodeJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	result, err := rc.Service.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("Deleted %d of %d reservations", result.DeletedCount, result.RequestedCount), result)
}

func (rc *ReservationController) CheckAvailability(c *gin.Context) {
	availability, err := rc.Service.Availability(c.Request.Context(), c.Query("date"), c.Query("time"), c.Query("guests"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Availability", availability)
}

func (rc *ReservationController) GetStats(c *gin.Context) {
	stats, err := rc.Service.Stats(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Reservation statistics", stats)
}

// ExportDay streams the PDF sheet of one day's active reservations.
func (rc *ReservationController) ExportDay(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = rc.Service.Today()
	}
	rows, err := rc.Service.ForDay(c.Request.Context(), date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteReservationSheet(&buf, date, rows, time.Now()); err != nil {
		utils.RespondError(c, utils.NewInternalError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="reservations-%s.pdf"`, date))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
