package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword derives the bcrypt hash stored for a new account. Cost comes
// from config; bcrypt falls back to its default when the value is out of
// range.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a login attempt against the stored hash.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
