package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the work factor the accounts database was seeded
// with; verification reads the cost from the hash itself.
const bcryptCost = 12

// HashPassword derives a one-way salted hash of the plaintext. Two
// calls on the same input yield different hashes.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored hash.
// A malformed hash verifies as false rather than erroring out.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
