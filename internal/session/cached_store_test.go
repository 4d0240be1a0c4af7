package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	*MemoryStore
	gets    int
	failing bool
}

func (c *countingStore) Get(ctx context.Context, userID string) (*State, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, userID)
}

func (c *countingStore) Save(ctx context.Context, userID string, patch Patch) error {
	if c.failing {
		return errors.New("backend unavailable")
	}
	return c.MemoryStore.Save(ctx, userID, patch)
}

func TestCachedStoreServesRepeatReadsFromCache(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	store := NewCachedStore(backing, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", Patch{Mode: Ptr(ModeAIFreeform)}))
	for i := 0; i < 3; i++ {
		st, err := store.Get(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, ModeAIFreeform, st.Mode)
	}
	assert.Equal(t, 1, backing.gets)

	require.NoError(t, store.Save(ctx, "u1", Patch{Mode: Ptr(ModeMenu)}))
	st, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ModeMenu, st.Mode)
	assert.Equal(t, 1, backing.gets)
}

func TestCachedStoreNeverCachesUnpersistedWrites(t *testing.T) {
	backing := &countingStore{MemoryStore: NewMemoryStore()}
	store := NewCachedStore(backing, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "u1", Patch{WizardStep: Ptr(2), Mode: Ptr(ModeWizard)}))
	_, err := store.Get(ctx, "u1")
	require.NoError(t, err)

	backing.failing = true
	require.Error(t, store.Save(ctx, "u1", Patch{WizardStep: Ptr(3)}))
	backing.failing = false

	st, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, st.WizardStep, "cache must reflect the persisted value")
	assert.Equal(t, 2, backing.gets, "failed write should force a reload")
}

func TestCachedStoreSeesWritesFromAnotherProcessAfterTTL(t *testing.T) {
	backing := NewMemoryStore()
	clock := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	worker := NewCachedStore(backing, 2*time.Second)
	worker.now = now
	api := NewCachedStore(backing, 2*time.Second)
	api.now = now
	ctx := context.Background()

	require.NoError(t, worker.Save(ctx, "u1", Patch{WizardStep: Ptr(3), Mode: Ptr(ModeWizard)}))
	st, err := worker.Get(ctx, "u1")
	require.NoError(t, err)
	require.False(t, st.PausedForHuman)

	require.NoError(t, api.Save(ctx, "u1", Patch{PausedForHuman: Ptr(true)}))
	require.NoError(t, api.Clear(ctx, "u1"))

	clock = clock.Add(2 * time.Second)
	st, err = worker.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.PausedForHuman, "pause written elsewhere must be visible once the entry expires")
	assert.Equal(t, 0, st.WizardStep)
}

func TestCachedStoreMissingSession(t *testing.T) {
	store := NewCachedStore(NewMemoryStore(), 0)
	st, err := store.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestMemoryStoreClearPreservesPauseAndAwaiting(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "u1", Patch{
		PausedForHuman: Ptr(true),
		AwaitingCode:   Ptr(true),
		WizardStep:     Ptr(6),
		Mode:           Ptr(ModeWizard),
	}))
	require.NoError(t, store.Clear(ctx, "u1"))

	st, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.PausedForHuman)
	assert.True(t, st.AwaitingCode)
	assert.Equal(t, 0, st.WizardStep)
	assert.Equal(t, ModeMenu, st.Mode)

	paused, err := store.ListPaused(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, paused)
}
