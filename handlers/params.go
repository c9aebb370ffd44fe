package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

// parseDays reads the "days" query parameter, falling back to the default
// and clamping to a sane range.
func parseDays(c *gin.Context) int {
	days := DefaultHistoryDays
	if daysStr := c.Query("days"); daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}
	return days
}

// parseIDParam reads a positive integer path parameter.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
