package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
)

// Bcrypt hashes credentials with the same cost the original service used.
type Bcrypt struct {
	cost int
}

var _ domain.Hasher = (*Bcrypt)(nil)

func NewBcrypt() *Bcrypt {
	return &Bcrypt{cost: 10}
}

func (b *Bcrypt) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (b *Bcrypt) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
