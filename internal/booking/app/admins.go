package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

type AdminCredentials struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterAdmin creates a dashboard account with a unique username.
func (s *Service) RegisterAdmin(ctx context.Context, in AdminCredentials) (domain.Admin, error) {
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validate.Struct(in); err != nil {
		return domain.Admin{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	admin := domain.Admin{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hashed,
	}

	err = s.store.Mutate(ctx, func(doc *domain.Document) error {
		if doc.FindAdminByUsername(in.Username) != nil {
			return fmt.Errorf("%w: username %q already taken", domain.ErrValidation, in.Username)
		}
		doc.Admins = append(doc.Admins, admin)
		return nil
	})
	if err != nil {
		return domain.Admin{}, err
	}

	log.Info(ctx, s.logger, "admin_registered", fmt.Sprintf("Admin %s registered", admin.Username))
	return admin, nil
}

// LoginAdmin checks the credentials and issues a signed access token.
func (s *Service) LoginAdmin(ctx context.Context, in AdminCredentials) (string, error) {
	in.Username = strings.TrimSpace(in.Username)

	if err := s.validate.Struct(in); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return "", err
	}

	admin := doc.FindAdminByUsername(in.Username)
	if admin == nil {
		return "", domain.ErrCredentials
	}
	if err := s.hasher.Compare(admin.PasswordHash, in.Password); err != nil {
		return "", domain.ErrCredentials
	}

	token, err := s.tokens.IssueAdminToken(admin.ID, admin.Username)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	log.Info(ctx, s.logger, "admin_login", fmt.Sprintf("Admin %s logged in", admin.Username))
	return token, nil
}
