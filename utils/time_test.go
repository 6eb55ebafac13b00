package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayBounds(t *testing.T) {
	at := time.Date(2026, time.September, 1, 14, 30, 45, 123, time.Local)
	start, end := DayBounds(at)

	assert.Equal(t, time.Date(2026, time.September, 1, 0, 0, 0, 0, time.Local), start)
	assert.Equal(t, time.Date(2026, time.September, 1, 23, 59, 59, 999999999, time.Local), end)
}

func TestDayBoundsContainInstant(t *testing.T) {
	at := time.Now()
	start, end := DayBounds(at)

	assert.False(t, at.Before(start))
	assert.False(t, at.After(end))
	assert.Equal(t, at.Day(), start.Day())
	assert.Equal(t, at.Day(), end.Day())
}
