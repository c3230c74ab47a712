package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopnex/internal/models"
	"shopnex/internal/repository/memory"
)

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewService(st, time.Second), st
}

func mug() map[string]any {
	return map[string]any{"name": "Mug", "price": 9.99, "email": "a@x.com", "category": "kitchen"}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	id, err := svc.Create(ctx, mug())
	require.NoError(t, err)

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, 9.99, p.Price)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, map[string]any{"category": "kitchen"}, p.Fields)
}

func TestCreateRequiresFields(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	for _, missing := range []string{"name", "price", "email"} {
		payload := mug()
		delete(payload, missing)
		_, err := svc.Create(ctx, payload)
		require.Error(t, err, "without %s", missing)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, MsgRequired, MessageOf(err))
	}

	for _, bad := range []map[string]any{
		{"name": "", "price": 1.0, "email": "a@x.com"},
		{"name": "Mug", "price": 0.0, "email": "a@x.com"},
		{"name": "Mug", "price": 1.0, "email": ""},
		{"name": "Mug", "price": "free", "email": "a@x.com"},
	} {
		_, err := svc.Create(ctx, bad)
		assert.ErrorIs(t, err, ErrValidation, "payload %v", bad)
	}
	assert.Equal(t, 0, st.Len())
}

func TestCreateIgnoresClientID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	payload := mug()
	payload["_id"] = "65a000000000000000000001"

	id, err := svc.Create(ctx, payload)
	require.NoError(t, err)
	assert.NotEqual(t, "65a000000000000000000001", id)
}

func TestGetErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Get(ctx, models.NewID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, MsgNotFound, MessageOf(err))
}

func TestUpdateMergesFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id, err := svc.Create(ctx, mug())
	require.NoError(t, err)

	res, err := svc.Update(ctx, id, map[string]any{"price": 12.0})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)
	assert.Equal(t, int64(1), res.ModifiedCount)

	p, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 12.0, p.Price)
	assert.Equal(t, "Mug", p.Name)
	assert.Equal(t, "a@x.com", p.Email)
	assert.Equal(t, "kitchen", p.Fields["category"])
}

func TestUpdateHasNoOwnerCheck(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id, _ := svc.Create(ctx, mug())

	_, err := svc.Update(ctx, id, map[string]any{"email": "b@x.com"})
	require.NoError(t, err)

	p, _ := svc.Get(ctx, id)
	assert.Equal(t, "b@x.com", p.Email)
}

func TestUpdateMissingIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, st := newService(t)

	res, err := svc.Update(ctx, models.NewID(), map[string]any{"price": 1.0})
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.Equal(t, int64(0), res.MatchedCount)
	assert.Equal(t, 0, st.Len())
}

func TestUpdateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id, _ := svc.Create(ctx, mug())

	_, err := svc.Update(ctx, "bad-id", map[string]any{"price": 1.0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(ctx, id, map[string]any{"price": "lots"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteOwnership(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id, _ := svc.Create(ctx, mug())

	err := svc.Delete(ctx, id, "b@x.com")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, MsgUnauthorized, MessageOf(err))

	err = svc.Delete(ctx, id, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Get(ctx, id)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, id, "a@x.com"))

	_, err = svc.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMissingTwice(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id := models.NewID()

	assert.ErrorIs(t, svc.Delete(ctx, id, "a@x.com"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, id, "a@x.com"), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "garbage", "a@x.com"), ErrValidation)
}

func TestConcurrentOwnerDeletesSucceedOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	id, _ := svc.Create(ctx, mug())

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		oks  int
		errs []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Delete(ctx, id, "a@x.com")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				oks++
			} else {
				errs = append(errs, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, oks)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrNotFound)
	}
}

type brokenStore struct {
	*memory.Store
}

var errBroken = errors.New("connection refused")

func (brokenStore) FindAll(context.Context) ([]models.Product, error) {
	return nil, errBroken
}

func (brokenStore) FindByID(context.Context, string) (*models.Product, error) {
	return nil, errBroken
}

func TestStorageFaultsAreUnexpected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(brokenStore{memory.New()}, 0)

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, ErrUnexpected)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, MsgUnexpected, MessageOf(err))

	err = svc.Delete(ctx, models.NewID(), "a@x.com")
	assert.Equal(t, KindUnexpected, KindOf(err))
}

func TestListByOwnerEmpty(t *testing.T) {
	svc, _ := newService(t)
	items, err := svc.ListByOwner(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}
