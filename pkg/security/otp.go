package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPLength is the number of digits in every one-time code we issue.
const OTPLength = 6

// GenerateOTP returns a zero-padded numeric one-time code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < OTPLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", OTPLength, n), nil
}
