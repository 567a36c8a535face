// Package app orchestrates the booking use cases: reservation intake,
// driver registration and verification, location pings and admin accounts.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/BRAITOU555/reservationvtc6/internal/booking/domain"
	"github.com/BRAITOU555/reservationvtc6/internal/common/auth"
	"github.com/BRAITOU555/reservationvtc6/internal/common/contextx"
	"github.com/BRAITOU555/reservationvtc6/internal/common/log"
)

// Config carries the service-level knobs that are not collaborator wiring.
type Config struct {
	// BaseURL is the externally reachable address used to build
	// verification links.
	BaseURL string
	// OperatorEmail receives new-reservation confirmations.
	OperatorEmail string
	// NotifyTimeout bounds every outbound notifier call.
	NotifyTimeout time.Duration
}

type Service struct {
	logger    *slog.Logger
	store     domain.Store
	notifier  domain.Notifier
	hasher    domain.Hasher
	estimator domain.Estimator
	publisher domain.Publisher
	tokens    *auth.Manager
	validate  *validator.Validate
	cfg       Config
}

func NewService(
	logger *slog.Logger,
	store domain.Store,
	notifier domain.Notifier,
	hasher domain.Hasher,
	estimator domain.Estimator,
	publisher domain.Publisher,
	tokens *auth.Manager,
	cfg Config,
) *Service {
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 5 * time.Second
	}
	return &Service{
		logger:    logger,
		store:     store,
		notifier:  notifier,
		hasher:    hasher,
		estimator: estimator,
		publisher: publisher,
		tokens:    tokens,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

type CreateReservationInput struct {
	PickupLocation  string   `json:"pickupLocation" validate:"required"`
	DropoffLocation string   `json:"dropoffLocation" validate:"required"`
	PickupTime      string   `json:"pickupTime"`
	ReservationType string   `json:"reservationType" validate:"required,oneof=immediate scheduled"`
	DiscountedFare  *float64 `json:"discountedFare" validate:"required,gte=0"`
}

// CreateReservation validates the input, persists the new record, publishes
// a reservation-update event and fires the confirmation email without
// blocking the caller on delivery.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffLocation = strings.TrimSpace(in.DropoffLocation)

	if err := s.validate.Struct(in); err != nil {
		return domain.Reservation{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	rtype := domain.ReservationType(in.ReservationType)
	pickupAt, err := resolvePickupTime(rtype, in.PickupTime)
	if err != nil {
		return domain.Reservation{}, err
	}

	res := domain.Reservation{
		ID:              uuid.NewString(),
		PickupLocation:  in.PickupLocation,
		DropoffLocation: in.DropoffLocation,
		PickupTime:      pickupAt,
		ReservationType: rtype,
		DiscountedFare:  *in.DiscountedFare,
	}

	if err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.Reservations = append(doc.Reservations, res)
		return nil
	}); err != nil {
		return domain.Reservation{}, err
	}

	ctx = contextx.WithReservationID(ctx, res.ID)
	log.Info(ctx, s.logger, "reservation_created",
		fmt.Sprintf("Reservation %s to %s (%s)", res.PickupLocation, res.DropoffLocation, res.ReservationType))

	s.publisher.Publish(domain.NewReservationUpdate(res))
	s.notifyReservationAsync(ctx, res)

	return res, nil
}

// ListReservations returns every persisted reservation in insertion order.
func (s *Service) ListReservations(ctx context.Context) ([]domain.Reservation, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Reservations, nil
}

type EstimateInput struct {
	PickupLocation  string `json:"pickupLocation" validate:"required"`
	DropoffLocation string `json:"dropoffLocation" validate:"required"`
	PickupTime      string `json:"pickupTime"`
	ReservationType string `json:"reservationType" validate:"required,oneof=immediate scheduled"`
}

// EstimateFare asks the route collaborator for distance and duration, then
// applies the fixed rates.
func (s *Service) EstimateFare(ctx context.Context, in EstimateInput) (domain.FareQuote, error) {
	in.PickupLocation = strings.TrimSpace(in.PickupLocation)
	in.DropoffLocation = strings.TrimSpace(in.DropoffLocation)

	if err := s.validate.Struct(in); err != nil {
		return domain.FareQuote{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	departure, err := resolvePickupTime(domain.ReservationType(in.ReservationType), in.PickupTime)
	if err != nil {
		return domain.FareQuote{}, err
	}

	est, err := s.estimator.Estimate(ctx, in.PickupLocation, in.DropoffLocation, departure)
	if err != nil {
		if errors.Is(err, domain.ErrCollaborator) {
			return domain.FareQuote{}, err
		}
		return domain.FareQuote{}, fmt.Errorf("%w: %v", domain.ErrCollaborator, err)
	}
	return domain.QuoteFare(est), nil
}

// notifyReservationAsync emails the operator about a new reservation.
// Fire-and-forget: the HTTP response never waits on the notifier, and a
// fault cannot roll back the persisted record.
func (s *Service) notifyReservationAsync(ctx context.Context, res domain.Reservation) {
	reqID := contextx.GetRequestID(ctx)
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), s.cfg.NotifyTimeout)
		defer cancel()
		nctx = contextx.WithRequestID(nctx, reqID)
		nctx = contextx.WithReservationID(nctx, res.ID)

		body := fmt.Sprintf(
			"New reservation received:\n  Pickup: %s\n  Dropoff: %s\n  Pickup time: %s\n  Type: %s\n  Estimated fare: %.2f EUR",
			res.PickupLocation, res.DropoffLocation,
			res.PickupTime.Format(time.RFC3339), res.ReservationType, res.DiscountedFare,
		)
		if err := s.notifier.Send(nctx, s.cfg.OperatorEmail, "New reservation", body); err != nil {
			log.Error(nctx, s.logger, "reservation_notify_fail", "Confirmation email could not be sent", err)
			return
		}
		log.Info(nctx, s.logger, "reservation_notify_sent", "Confirmation email sent")
	}()
}

// clock-skew grace before a scheduled pickup counts as "in the past"
const pastPickupGrace = 2 * time.Minute

var pickupLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04", // datetime-local form inputs
}

func resolvePickupTime(rtype domain.ReservationType, raw string) (time.Time, error) {
	if rtype == domain.TypeImmediate {
		return time.Now().UTC(), nil
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: pickupTime is required for scheduled reservations", domain.ErrValidation)
	}

	var (
		at  time.Time
		err error
	)
	for _, layout := range pickupLayouts {
		if at, err = time.Parse(layout, raw); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: pickupTime %q is not a valid timestamp", domain.ErrValidation, raw)
	}
	if at.Before(time.Now().Add(-pastPickupGrace)) {
		return time.Time{}, fmt.Errorf("%w: pickupTime %q is in the past", domain.ErrValidation, raw)
	}
	return at.UTC(), nil
}
