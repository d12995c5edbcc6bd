package handlers

import (
	"context"

	"pump_relay/internal/relay"
	"pump_relay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// @Summary      Device channel
// @Description  Websocket for the pump controller; receives TOGGLE/OFF/TIMER commands
// @Tags         channels
// @Router       /ws/esp [get]
func (h *Handler) wsDevice(c *gin.Context) {
	var onMessage func(context.Context, []byte)
	if h.opts.DeviceStatusOverWS {
		onMessage = h.deviceStatusFrame
	}
	h.serveChannel(c, relay.GroupDevice, onMessage)
}

// @Summary      Client channel
// @Description  Websocket for UI clients; receives status records
// @Tags         channels
// @Router       /ws/client [get]
func (h *Handler) wsClient(c *gin.Context) {
	h.serveChannel(c, relay.GroupClient, nil)
}

// serveChannel upgrades the request, registers the channel in group g and blocks
// until the peer goes away. Inbound frames only feed liveness unless onMessage is set.
func (h *Handler) serveChannel(c *gin.Context, g relay.Group, onMessage func(context.Context, []byte)) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "group", g, "err", err, "request_id", requestID(c))
		}
		return
	}

	ch := relay.NewWSChannel(conn, h.opts.WS)
	reg := h.relay.Registry(g)
	reg.Connect(ch)
	defer func() {
		reg.Disconnect(ch)
		_ = ch.Close()
	}()

	ctx := c.Request.Context()
	err = ch.ReadLoop(func(data []byte) {
		if onMessage != nil {
			onMessage(ctx, data)
		}
	})
	if relay.IsUnexpectedClose(err) && h.log != nil {
		h.log.Infow("ws_read_closed", "group", g, "channel_id", ch.ID(), "err", err)
	}
}

// deviceStatusFrame treats a device frame as a status report. Invalid frames are dropped.
func (h *Handler) deviceStatusFrame(ctx context.Context, data []byte) {
	var req service.StatusReport
	if err := binding.JSON.BindBody(data, &req); err != nil {
		if h.log != nil {
			h.log.Infow("ws_device_status_rejected", "err", service.NewValidationError(err))
		}
		return
	}
	if _, err := h.services.Pump.ReportStatus(ctx, req.ToModel()); err != nil && h.log != nil {
		h.log.Infow("ws_device_status_rejected", "err", err)
	}
}
