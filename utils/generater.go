package utils

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// GenerateOTP returns a 4-digit one-time code for email verification.
func GenerateOTP() string {
	var b [2]byte
	rand.Read(b[:])
	n := int(b[0])<<8 | int(b[1])
	return fmt.Sprintf("%04d", n%10000)
}

// NewTransactionID generates a reference id for wallet and payment records.
func NewTransactionID() string {
	return "TXN-" + uuid.NewString()
}
