package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// GenerateOTP returns a random numeric code of the given length.
func GenerateOTP(length int) (string, error) {
	const digits = "0123456789"
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	for i, b := range buf {
		buf[i] = digits[int(b)%len(digits)]
	}
	return string(buf), nil
}

// HashOTP hashes a short-lived verification code. OTPs are low-entropy and
// expire within minutes, so a plain SHA-256 digest is sufficient here; bcrypt
// stays reserved for passwords.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

func OTPMatches(code, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(HashOTP(code)), []byte(hash)) == 1
}
