package bookings

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
)

var (
	// ErrNotFound is returned when no booking carries the requested code.
	ErrNotFound = errors.New("bookings: not found")
	// ErrDuplicateConfirmation is returned when a confirmation number is already taken.
	ErrDuplicateConfirmation = errors.New("bookings: duplicate confirmation number")
	// ErrIncompleteDraft is returned when a draft is missing a required field.
	ErrIncompleteDraft = errors.New("bookings: incomplete draft")
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Label renders the status for customers.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "⏳ Pendiente"
	case StatusConfirmed:
		return "✅ Confirmada"
	case StatusInProgress:
		return "🔄 En progreso"
	case StatusCompleted:
		return "🎉 Completada"
	default:
		return string(s)
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Booking is a persisted wash reservation.
type Booking struct {
	ID                 string              `json:"id"`
	ConfirmationNumber string              `json:"confirmation_number"`
	CustomerName       string              `json:"customer_name"`
	CustomerPhone      string              `json:"customer_phone"`
	PackageID          string              `json:"package_id"`
	PackageName        string              `json:"package_name"`
	VehicleSize        catalog.VehicleSize `json:"vehicle_size"`
	VehicleInfo        string              `json:"vehicle_info"`
	PreferredDate      string              `json:"preferred_date"`
	PreferredTime      string              `json:"preferred_time"`
	ScheduledDate      *time.Time          `json:"scheduled_date,omitempty"`
	Total              float64             `json:"total"`
	Status             Status              `json:"status"`
	Notes              string              `json:"notes,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// Draft is the partial booking accumulated by the reservation wizard.
type Draft struct {
	CustomerName  string              `json:"customer_name,omitempty" dynamodbav:"customer_name,omitempty"`
	CustomerPhone string              `json:"customer_phone,omitempty" dynamodbav:"customer_phone,omitempty"`
	PackageID     string              `json:"package_id,omitempty" dynamodbav:"package_id,omitempty"`
	PackageName   string              `json:"package_name,omitempty" dynamodbav:"package_name,omitempty"`
	VehicleSize   catalog.VehicleSize `json:"vehicle_size,omitempty" dynamodbav:"vehicle_size,omitempty"`
	VehicleInfo   string              `json:"vehicle_info,omitempty" dynamodbav:"vehicle_info,omitempty"`
	PreferredDate string              `json:"preferred_date,omitempty" dynamodbav:"preferred_date,omitempty"`
	PreferredTime string              `json:"preferred_time,omitempty" dynamodbav:"preferred_time,omitempty"`
	Total         float64             `json:"total,omitempty" dynamodbav:"total,omitempty"`
}

// Complete reports whether every field needed to persist is present.
func (d Draft) Complete() bool {
	return d.CustomerPhone != "" && d.PackageID != "" && d.VehicleSize.Valid() &&
		d.VehicleInfo != "" && d.PreferredDate != "" && d.PreferredTime != ""
}

// Repository persists bookings. Implementations must reject a second booking
// with the same confirmation number with ErrDuplicateConfirmation.
type Repository interface {
	Insert(ctx context.Context, b *Booking) error
	FindByConfirmation(ctx context.Context, code string) (*Booking, error)
	ListByPhone(ctx context.Context, phone string, limit int) ([]Booking, error)
	UpdateStatus(ctx context.Context, code string, status Status) error
}

// ParseDate turns a D/M/YYYY string into a date. Strings that pass the wizard
// grammar but are not real calendar days yield nil.
func ParseDate(raw string) *time.Time {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 3 {
		return nil
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return nil
	}
	return &t
}
