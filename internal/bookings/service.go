package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devdanielvaldez/autoclinic-bot/internal/confirmation"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

var bookingsTracer = otel.Tracer("autoclinic.internal.bookings")

const maxCodeAttempts = 5

// Service creates and looks up bookings.
type Service struct {
	repo     Repository
	logger   *logging.Logger
	now      func() time.Time
	generate func() (string, error)
}

// NewService constructs a bookings service.
func NewService(repo Repository, logger *logging.Logger) *Service {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:     repo,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		generate: confirmation.Generate,
	}
}

// Create persists a completed wizard draft as a pending booking with a
// fresh confirmation number.
func (s *Service) Create(ctx context.Context, draft Draft) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("autoclinic.package_id", draft.PackageID),
		attribute.String("autoclinic.vehicle_size", string(draft.VehicleSize)),
	)

	if !draft.Complete() {
		span.RecordError(ErrIncompleteDraft)
		return nil, ErrIncompleteDraft
	}

	b := &Booking{
		ID:            uuid.NewString(),
		CustomerName:  draft.CustomerName,
		CustomerPhone: draft.CustomerPhone,
		PackageID:     draft.PackageID,
		PackageName:   draft.PackageName,
		VehicleSize:   draft.VehicleSize,
		VehicleInfo:   draft.VehicleInfo,
		PreferredDate: draft.PreferredDate,
		PreferredTime: draft.PreferredTime,
		ScheduledDate: ParseDate(draft.PreferredDate),
		Total:         draft.Total,
		Status:        StatusPending,
		CreatedAt:     s.now(),
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.generate()
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		b.ConfirmationNumber = code
		err = s.repo.Insert(ctx, b)
		if err == nil {
			s.logger.Info("booking created",
				"booking_id", b.ID,
				"confirmation_number", b.ConfirmationNumber,
				"package_id", b.PackageID,
				"total", b.Total,
			)
			return b, nil
		}
		if !errors.Is(err, ErrDuplicateConfirmation) {
			span.RecordError(err)
			return nil, err
		}
		s.logger.Warn("confirmation number collision, regenerating", "attempt", attempt)
	}
	err := fmt.Errorf("bookings: no unique confirmation number after %d attempts: %w", maxCodeAttempts, ErrDuplicateConfirmation)
	span.RecordError(err)
	return nil, err
}

// Lookup resolves a normalized confirmation number.
func (s *Service) Lookup(ctx context.Context, code string) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.lookup")
	defer span.End()
	b, err := s.repo.FindByConfirmation(ctx, code)
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
	}
	return b, err
}

// Recent lists the latest bookings for a customer phone, newest first.
func (s *Service) Recent(ctx context.Context, phone string, limit int) ([]Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.recent")
	defer span.End()
	list, err := s.repo.ListByPhone(ctx, phone, limit)
	if err != nil {
		span.RecordError(err)
	}
	return list, err
}

// SetStatus moves a booking through its lifecycle. Used by staff tooling.
func (s *Service) SetStatus(ctx context.Context, code string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("bookings: unknown status %q", status)
	}
	if err := s.repo.UpdateStatus(ctx, code, status); err != nil {
		return err
	}
	s.logger.Info("booking status updated", "confirmation_number", code, "status", status)
	return nil
}
