package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

type RegisterDriverInput struct {
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// RegisterDriver persists an unverified driver with a single-use
// verification token and emails the verification link. The record stands
// even when the email fails; the returned flag tells the caller whether
// delivery was confirmed.
func (s *Service) RegisterDriver(ctx context.Context, in RegisterDriverInput) (domain.Driver, bool, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = strings.TrimSpace(in.Name)

	if err := s.validate.Struct(in); err != nil {
		return domain.Driver{}, false, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.Driver{}, false, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	token := uuid.NewString()
	driver := domain.Driver{
		ID:           uuid.NewString(),
		Email:        in.Email,
		Phone:        in.Phone,
		Name:         in.Name,
		PasswordHash: hashed,
		Verified:     false,
		Token:        &token,
	}

	if err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.Drivers = append(doc.Drivers, driver)
		return nil
	}); err != nil {
		return domain.Driver{}, false, err
	}

	log.Info(ctx, s.logger, "driver_registered", fmt.Sprintf("Driver %s registered, verification pending", driver.ID))

	link := fmt.Sprintf("%s/verify-driver?token=%s", strings.TrimRight(s.cfg.BaseURL, "/"), token)
	body := fmt.Sprintf(
		"Hello %s,\n\nPlease follow this link to verify your driver account: %s\n\nThank you.",
		driver.Name, link,
	)

	nctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Send(nctx, driver.Email, "Driver account verification", body); err != nil {
		log.Error(ctx, s.logger, "driver_notify_fail", "Verification email could not be sent", err)
		return driver, false, nil
	}
	return driver, true, nil
}

// VerifyDriver consumes a verification token. Exactly one call per token
// can succeed; replays fail because the token is cleared on first use.
func (s *Service) VerifyDriver(ctx context.Context, token string) (domain.Driver, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Driver{}, fmt.Errorf("%w: empty token", domain.ErrInvalidToken)
	}

	var verified domain.Driver
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		driver := doc.FindDriverByToken(token)
		if driver == nil {
			return domain.ErrInvalidToken
		}
		driver.Verified = true
		driver.Token = nil
		verified = *driver
		return nil
	})
	if err != nil {
		return domain.Driver{}, err
	}

	log.Info(ctx, s.logger, "driver_verified", fmt.Sprintf("Driver %s verified", verified.ID))
	return verified, nil
}

type UpdateProfileInput struct {
	ID          string `json:"id" validate:"required"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	BirthDate   string `json:"birthDate"`
	Siret       string `json:"siret"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	PostalCode  string `json:"postalCode"`
	City        string `json:"city"`
}

// UpdateDriverProfile overwrites the profile fields of a verified driver.
func (s *Service) UpdateDriverProfile(ctx context.Context, in UpdateProfileInput) (domain.Driver, error) {
	if err := s.validate.Struct(in); err != nil {
		return domain.Driver{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	var updated domain.Driver
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		driver := doc.FindDriver(in.ID)
		if driver == nil {
			return fmt.Errorf("%w: driver %s", domain.ErrNotFound, in.ID)
		}
		if !driver.Verified {
			return fmt.Errorf("%w: driver %s", domain.ErrNotVerified, in.ID)
		}
		driver.FirstName = in.FirstName
		driver.LastName = in.LastName
		driver.BirthDate = in.BirthDate
		driver.Siret = in.Siret
		driver.CompanyName = in.CompanyName
		driver.Address = in.Address
		driver.PostalCode = in.PostalCode
		driver.City = in.City
		updated = *driver
		return nil
	})
	if err != nil {
		return domain.Driver{}, err
	}

	log.Info(ctx, s.logger, "driver_profile_updated", fmt.Sprintf("Driver %s profile updated", updated.ID))
	return updated, nil
}

// UpdateLocation records a driver's last-known position and rebroadcasts it
// to all viewers. Pings for unknown drivers are dropped silently: the
// pusher has no error channel. Out-of-range coordinates are dropped too.
func (s *Service) UpdateLocation(ctx context.Context, driverID string, lat, lng float64) error {
	if driverID == "" || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		log.Warn(ctx, s.logger, "location_ping_dropped", "Ignoring invalid location ping", nil)
		return nil
	}

	known := false
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		driver := doc.FindDriver(driverID)
		if driver == nil {
			return nil
		}
		known = true
		driver.Location = &domain.Location{Latitude: lat, Longitude: lng}
		return nil
	})
	if err != nil {
		return err
	}
	if !known {
		return nil
	}

	s.publisher.Publish(domain.NewLocationUpdate(driverID, lat, lng))
	return nil
}
