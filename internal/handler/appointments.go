package handler

import (
	"net/http"

	"clinicflow/internal/dto"
	"clinicflow/internal/service"

	"github.com/gin-gonic/gin"
)

type AppointmentsHandler struct{ svc service.AppointmentService }

func NewAppointmentsHandler(svc service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{svc: svc}
}

func (h *AppointmentsHandler) Create(c *gin.Context) {
	var req dto.CreateAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AppointmentsHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) List(c *gin.Context) {
	var filter dto.AppointmentFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.List(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) Reschedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.RescheduleAppointmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Reschedule(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AppointmentsHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateAppointmentStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
