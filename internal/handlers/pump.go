package handlers

import (
	"errors"
	"net/http"

	"pump_relay/internal/relay"
	"pump_relay/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK = "ok"

	errValidation = "Validation error"
	errTooLarge   = "Payload too large"
	errInternal   = "Internal server error"
)

// Response shapes for the API docs.
type okResponse struct {
	Status string `json:"status" example:"ok"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Error   string               `json:"error" example:"Validation error"`
	Details []service.FieldError `json:"details"`
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err, "request_id", requestID(c)}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, errorResponse{Error: userMsg})
}

// validationFailed writes 422 with field-level details.
func (h *Handler) validationFailed(c *gin.Context, err error) {
	ve := service.NewValidationError(err)
	if h.log != nil {
		h.log.Infow("request_rejected", "path", c.FullPath(), "err", ve, "request_id", requestID(c))
	}
	c.JSON(http.StatusUnprocessableEntity, validationResponse{Error: errValidation, Details: ve.Fields})
}

// handleServiceError maps a gateway error to a response.
func (h *Handler) handleServiceError(c *gin.Context, logKey string, err error) {
	if errors.Is(err, service.ErrValidation) {
		h.validationFailed(c, err)
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, errInternal, logKey, err)
}

func (h *Handler) respondOK(c *gin.Context, rep relay.BroadcastReport) {
	if h.log != nil && rep.Err != nil {
		h.log.Warnw("broadcast_incomplete", "group", rep.Group, "err", rep.Err, "request_id", requestID(c))
	}
	c.JSON(http.StatusOK, okResponse{Status: statusOK})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, devices, clients"
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": statusOK}
	if h.relay != nil {
		resp["devices"] = h.relay.Registry(relay.GroupDevice).Len()
		resp["clients"] = h.relay.Registry(relay.GroupClient).Len()
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Toggle pump
// @Description  Broadcasts {"action":"TOGGLE"} to every connected device
// @Tags         pump
// @Produce      json
// @Success      200  {object}  okResponse
// @Failure      413  {object}  errorResponse
// @Router       /pump/toggle [post]
func (h *Handler) toggle(c *gin.Context) {
	h.respondOK(c, h.services.Pump.Toggle(c.Request.Context()))
}

// @Summary      Turn pump off
// @Description  Broadcasts {"action":"OFF"} to every connected device
// @Tags         pump
// @Produce      json
// @Success      200  {object}  okResponse
// @Failure      413  {object}  errorResponse
// @Router       /pump/off [post]
func (h *Handler) off(c *gin.Context) {
	h.respondOK(c, h.services.Pump.Off(c.Request.Context()))
}

// @Summary      Set pump timer
// @Description  Broadcasts {"action":"TIMER","hours":h,"minutes":m} to every connected device
// @Tags         pump
// @Accept       json
// @Produce      json
// @Param        body  body      service.TimerInput  true  "Timer payload (hours 0-23, minutes 0-59)"
// @Success      200   {object}  okResponse
// @Failure      413   {object}  errorResponse
// @Failure      422   {object}  validationResponse
// @Router       /pump/timer [post]
func (h *Handler) setTimer(c *gin.Context) {
	var req service.TimerInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationFailed(c, err)
		return
	}
	rep, err := h.services.Pump.SetTimer(c.Request.Context(), req.ToModel())
	if err != nil {
		h.handleServiceError(c, "pump_set_timer_failed", err)
		return
	}
	h.respondOK(c, rep)
}

// @Summary      Report pump status
// @Description  Device status ingress: replaces the cached status and relays it to UI clients
// @Tags         pump
// @Accept       json
// @Produce      json
// @Param        body  body      service.StatusReport  true  "Status payload (remaining_time 0-86399)"
// @Success      200   {object}  okResponse
// @Failure      413   {object}  errorResponse
// @Failure      422   {object}  validationResponse
// @Router       /pump/status [post]
func (h *Handler) reportStatus(c *gin.Context) {
	var req service.StatusReport
	if err := c.ShouldBindJSON(&req); err != nil {
		h.validationFailed(c, err)
		return
	}
	rep, err := h.services.Pump.ReportStatus(c.Request.Context(), req.ToModel())
	if err != nil {
		h.handleServiceError(c, "pump_report_status_failed", err)
		return
	}
	h.respondOK(c, rep)
}

// @Summary      Get pump status
// @Description  Last accepted status, {false,false,0} until the device reports
// @Tags         pump
// @Produce      json
// @Success      200  {object}  models.PumpStatus
// @Router       /pump/status [get]
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Pump.Status(c.Request.Context()))
}
