package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOTPIsFourDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		otp := GenerateOTP()
		assert.Len(t, otp, 4)
		for _, r := range otp {
			assert.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestNewTransactionID(t *testing.T) {
	a := NewTransactionID()
	b := NewTransactionID()

	assert.True(t, strings.HasPrefix(a, "TXN-"))
	assert.NotEqual(t, a, b)
}
