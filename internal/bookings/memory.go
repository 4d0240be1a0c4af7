package bookings

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-process Repository for development and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	byCode map[string]Booking
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byCode: make(map[string]Booking)}
}

func (r *MemoryRepository) Insert(_ context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byCode[b.ConfirmationNumber]; exists {
		return ErrDuplicateConfirmation
	}
	r.byCode[b.ConfirmationNumber] = *b
	return nil
}

func (r *MemoryRepository) FindByConfirmation(_ context.Context, code string) (*Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *MemoryRepository) ListByPhone(_ context.Context, phone string, limit int) ([]Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Booking
	for _, b := range r.byCode {
		if b.CustomerPhone == phone {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, code string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.byCode[code]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	r.byCode[code] = b
	return nil
}
