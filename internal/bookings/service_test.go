package bookings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	"github.com/devdanielvaldez/autoclinic-bot/internal/confirmation"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

func completeDraft() Draft {
	return Draft{
		CustomerName:  "Ana",
		CustomerPhone: "8095551234",
		PackageID:     "detailing-basico",
		PackageName:   "Detailing Básico",
		VehicleSize:   catalog.SizeLarge,
		VehicleInfo:   "Honda CR-V 2019 gris",
		PreferredDate: "31/02/2024",
		PreferredTime: "9:00 AM",
		Total:         800,
	}
}

func TestServiceCreate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())

	b, err := svc.Create(context.Background(), completeDraft())
	require.NoError(t, err)
	assert.True(t, confirmation.LooksLikeCode(b.ConfirmationNumber))
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, 800.0, b.Total)
	assert.NotEmpty(t, b.ID)
	assert.Nil(t, b.ScheduledDate, "31/02 is not a calendar day")

	found, err := svc.Lookup(context.Background(), b.ConfirmationNumber)
	require.NoError(t, err)
	assert.Equal(t, b.ID, found.ID)
}

func TestServiceCreateRejectsIncompleteDraft(t *testing.T) {
	svc := NewService(NewMemoryRepository(), logging.Discard())
	d := completeDraft()
	d.VehicleSize = ""
	_, err := svc.Create(context.Background(), d)
	assert.ErrorIs(t, err, ErrIncompleteDraft)
}

func TestServiceCreateRetriesOnCollision(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.Insert(context.Background(), &Booking{ConfirmationNumber: "ACAAAAAAAAAAAA"}))

	codes := []string{"ACAAAAAAAAAAAA", "ACBBBBBBBBBBBB"}
	svc := NewService(repo, logging.Discard())
	svc.generate = func() (string, error) {
		next := codes[0]
		codes = codes[1:]
		return next, nil
	}

	b, err := svc.Create(context.Background(), completeDraft())
	require.NoError(t, err)
	assert.Equal(t, "ACBBBBBBBBBBBB", b.ConfirmationNumber)
}

func TestServiceCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.Insert(context.Background(), &Booking{ConfirmationNumber: "ACAAAAAAAAAAAA"}))
	svc := NewService(repo, logging.Discard())
	svc.generate = func() (string, error) { return "ACAAAAAAAAAAAA", nil }

	_, err := svc.Create(context.Background(), completeDraft())
	assert.ErrorIs(t, err, ErrDuplicateConfirmation)
}

type failingRepo struct{ MemoryRepository }

func (*failingRepo) Insert(context.Context, *Booking) error { return errors.New("db down") }

func TestServiceCreatePropagatesStorageErrors(t *testing.T) {
	svc := NewService(&failingRepo{}, logging.Discard())
	_, err := svc.Create(context.Background(), completeDraft())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateConfirmation)
}

func TestServiceRecentAndStatus(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, logging.Discard())
	first, err := svc.Create(context.Background(), completeDraft())
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), completeDraft())
	require.NoError(t, err)

	list, err := svc.Recent(context.Background(), "8095551234", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, svc.SetStatus(context.Background(), first.ConfirmationNumber, StatusInProgress))
	got, err := svc.Lookup(context.Background(), first.ConfirmationNumber)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, got.Status)

	assert.Error(t, svc.SetStatus(context.Background(), second.ConfirmationNumber, Status("lost")))
	assert.ErrorIs(t, svc.SetStatus(context.Background(), "ACNOPE00000000", StatusCompleted), ErrNotFound)
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "⏳ Pendiente", StatusPending.Label())
	assert.Equal(t, "✅ Confirmada", StatusConfirmed.Label())
	assert.Equal(t, "🔄 En progreso", StatusInProgress.Label())
	assert.Equal(t, "🎉 Completada", StatusCompleted.Label())
}

func TestParseDate(t *testing.T) {
	d := ParseDate("5/3/2025")
	require.NotNil(t, d)
	assert.Equal(t, 5, d.Day())
	assert.Equal(t, 3, int(d.Month()))
	assert.Nil(t, ParseDate("40/01/2024"))
	assert.Nil(t, ParseDate("junk"))
}
