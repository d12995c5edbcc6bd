package service

import (
	"sync/atomic"

	"pump_relay/internal/models"
)

// StatusCache holds the most recently accepted pump status.
// Set swaps the whole record, so readers never see a half-written value.
type StatusCache struct {
	current atomic.Pointer[models.PumpStatus]
}

// NewStatusCache starts with the default "off, zero remaining" record.
func NewStatusCache() *StatusCache {
	c := &StatusCache{}
	initial := models.DefaultPumpStatus()
	c.current.Store(&initial)
	return c
}

// Get returns the cached record. A zero StatusCache reports the default record.
func (c *StatusCache) Get() models.PumpStatus {
	if p := c.current.Load(); p != nil {
		return *p
	}
	return models.DefaultPumpStatus()
}

// Set replaces the cached record.
func (c *StatusCache) Set(s models.PumpStatus) {
	c.current.Store(&s)
}
