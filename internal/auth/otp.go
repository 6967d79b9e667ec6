package auth

import (
	"crypto/rand"
	"math/big"
	"time"
)

// OTPTTL is how long a one-time code stays valid.
const OTPTTL = 10 * time.Minute

const otpDigits = 6

// GenerateOTP returns a 6-digit numeric one-time code.
func GenerateOTP() string {
	code := make([]byte, otpDigits)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			// crypto/rand failing means the process has bigger problems.
			panic(err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code)
}
