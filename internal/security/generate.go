package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const passwordChars = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MinGeneratedPasswordLength keeps generated passwords valid for login
const MinGeneratedPasswordLength = 8

// GeneratePassword returns a random password of the given length. Characters
// that are easy to misread (0/O, 1/l/I) are excluded.
func GeneratePassword(length int) (string, error) {
	if length < MinGeneratedPasswordLength {
		return "", fmt.Errorf("password length must be at least %d", MinGeneratedPasswordLength)
	}

	password := make([]byte, length)
	n := big.NewInt(int64(len(passwordChars)))
	for i := range password {
		num, err := rand.Int(rand.Reader, n)
		if err != nil {
			return "", err
		}
		password[i] = passwordChars[num.Int64()]
	}
	return string(password), nil
}
