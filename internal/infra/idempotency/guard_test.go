package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/domain"
)

func TestMemoryGuard(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	guard := NewMemoryGuard(clk, time.Minute)

	release, err := guard.Acquire(ctx, "res-1")
	require.NoError(t, err)

	t.Run("second acquire is rejected", func(t *testing.T) {
		_, err := guard.Acquire(ctx, "res-1")
		assert.ErrorIs(t, err, ErrHeld)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("other ids are independent", func(t *testing.T) {
		r, err := guard.Acquire(ctx, "res-2")
		require.NoError(t, err)
		r(ctx)
	})

	t.Run("release frees the id", func(t *testing.T) {
		release(ctx)
		again, err := guard.Acquire(ctx, "res-1")
		require.NoError(t, err)
		again(ctx)
	})

	t.Run("expired hold can be taken over", func(t *testing.T) {
		stale, err := guard.Acquire(ctx, "res-3")
		require.NoError(t, err)

		clk.Advance(time.Minute)
		fresh, err := guard.Acquire(ctx, "res-3")
		require.NoError(t, err)

		// освобождение просроченного захвата не снимает новый
		stale(ctx)
		_, err = guard.Acquire(ctx, "res-3")
		assert.ErrorIs(t, err, ErrHeld)
		fresh(ctx)
	})
}
