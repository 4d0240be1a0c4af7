package bookings

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
)

const firestoreCollection = "washBookings"

// firestoreBooking mirrors the washBookings document layout.
type firestoreBooking struct {
	ConfirmationNumber string     `firestore:"confirmationNumber"`
	CustomerName       string     `firestore:"customerName"`
	CustomerPhone      string     `firestore:"customerPhone"`
	PackageID          string     `firestore:"packageId"`
	PackageName        string     `firestore:"packageName"`
	VehicleSize        string     `firestore:"vehicleSize"`
	VehicleInfo        string     `firestore:"vehicleInfo"`
	PreferredDate      string     `firestore:"preferredDate"`
	PreferredTime      string     `firestore:"preferredTime"`
	ScheduledDate      *time.Time `firestore:"scheduledDate,omitempty"`
	Total              float64    `firestore:"total"`
	Status             string     `firestore:"status"`
	Notes              string     `firestore:"notes,omitempty"`
	CreatedAt          time.Time  `firestore:"createdAt"`
}

// FirestoreRepository keeps bookings in the washBookings collection.
type FirestoreRepository struct {
	client *firestore.Client
}

func NewFirestoreRepository(client *firestore.Client) *FirestoreRepository {
	if client == nil {
		panic("bookings: firestore client required")
	}
	return &FirestoreRepository{client: client}
}

// Insert adds a document with a generated id. The store has no unique
// index, so an existing confirmation number is checked first.
func (r *FirestoreRepository) Insert(ctx context.Context, b *Booking) error {
	if _, err := r.findDoc(ctx, b.ConfirmationNumber); err == nil {
		return ErrDuplicateConfirmation
	} else if err != ErrNotFound {
		return err
	}
	ref, _, err := r.client.Collection(firestoreCollection).Add(ctx, toFirestore(b))
	if err != nil {
		return fmt.Errorf("bookings: firestore add: %w", err)
	}
	b.ID = ref.ID
	return nil
}

func (r *FirestoreRepository) FindByConfirmation(ctx context.Context, code string) (*Booking, error) {
	doc, err := r.findDoc(ctx, code)
	if err != nil {
		return nil, err
	}
	return fromFirestore(doc)
}

func (r *FirestoreRepository) ListByPhone(ctx context.Context, phone string, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 10
	}
	it := r.client.Collection(firestoreCollection).
		Where("customerPhone", "==", phone).
		OrderBy("createdAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var out []Booking
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("bookings: firestore list: %w", err)
		}
		b, err := fromFirestore(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

func (r *FirestoreRepository) UpdateStatus(ctx context.Context, code string, status Status) error {
	doc, err := r.findDoc(ctx, code)
	if err != nil {
		return err
	}
	if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "status", Value: string(status)}}); err != nil {
		return fmt.Errorf("bookings: firestore update status: %w", err)
	}
	return nil
}

func (r *FirestoreRepository) findDoc(ctx context.Context, code string) (*firestore.DocumentSnapshot, error) {
	it := r.client.Collection(firestoreCollection).
		Where("confirmationNumber", "==", code).
		Limit(1).
		Documents(ctx)
	defer it.Stop()
	doc, err := it.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: firestore query: %w", err)
	}
	return doc, nil
}

func toFirestore(b *Booking) firestoreBooking {
	return firestoreBooking{
		ConfirmationNumber: b.ConfirmationNumber,
		CustomerName:       b.CustomerName,
		CustomerPhone:      b.CustomerPhone,
		PackageID:          b.PackageID,
		PackageName:        b.PackageName,
		VehicleSize:        string(b.VehicleSize),
		VehicleInfo:        b.VehicleInfo,
		PreferredDate:      b.PreferredDate,
		PreferredTime:      b.PreferredTime,
		ScheduledDate:      b.ScheduledDate,
		Total:              b.Total,
		Status:             string(b.Status),
		Notes:              b.Notes,
		CreatedAt:          b.CreatedAt,
	}
}

func fromFirestore(doc *firestore.DocumentSnapshot) (*Booking, error) {
	var fb firestoreBooking
	if err := doc.DataTo(&fb); err != nil {
		return nil, fmt.Errorf("bookings: decode %s: %w", doc.Ref.ID, err)
	}
	return &Booking{
		ID:                 doc.Ref.ID,
		ConfirmationNumber: fb.ConfirmationNumber,
		CustomerName:       fb.CustomerName,
		CustomerPhone:      fb.CustomerPhone,
		PackageID:          fb.PackageID,
		PackageName:        fb.PackageName,
		VehicleSize:        catalog.VehicleSize(fb.VehicleSize),
		VehicleInfo:        fb.VehicleInfo,
		PreferredDate:      fb.PreferredDate,
		PreferredTime:      fb.PreferredTime,
		ScheduledDate:      fb.ScheduledDate,
		Total:              fb.Total,
		Status:             Status(fb.Status),
		Notes:              fb.Notes,
		CreatedAt:          fb.CreatedAt,
	}, nil
}
