package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeForSeconds(t *testing.T) {
	tests := []struct {
		name         string
		seconds      int64
		totalFee     int64
		durationSecs int64
		want         int64
	}{
		{"half the session costs half the fee", 1800, 1000, 3600, 500},
		{"full session costs the full fee", 3600, 1000, 3600, 1000},
		{"overrun converts at the same rate", 1800, 1000, 3600, 500},
		{"zero seconds cost nothing", 0, 1000, 3600, 0},
		{"truncates toward zero", 1, 1000, 3600, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, feeForSeconds(tt.seconds, tt.totalFee, tt.durationSecs))
		})
	}
}

func TestSecondsForFee(t *testing.T) {
	tests := []struct {
		name         string
		fee          int64
		totalFee     int64
		durationSecs int64
		want         int64
	}{
		{"full booked fee covers the full duration", 1000, 1000, 3600, 3600},
		{"half the fee covers half the duration", 500, 1000, 3600, 1800},
		{"zero fee covers nothing", 0, 1000, 3600, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, secondsForFee(tt.fee, tt.totalFee, tt.durationSecs))
		})
	}
}

// The two helpers must agree so the within-budget and overrun branches meet
// exactly at elapsed == remainingPaidSeconds.
func TestRateRoundTripAtBoundary(t *testing.T) {
	totalFee := int64(1000)
	duration := int64(3600)
	booked := int64(1000)

	remaining := secondsForFee(booked, totalFee, duration)
	assert.Equal(t, booked, feeForSeconds(remaining, totalFee, duration))
}
