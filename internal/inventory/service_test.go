package inventory

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

func newTestService() *Service {
	return New(NewInMemoryStore(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func TestAdjust_DepositAndWithdraw(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	units, err := svc.Adjust(ctx, domain.BloodOPos, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, units)

	units, err = svc.Adjust(ctx, domain.BloodOPos, -12)
	require.NoError(t, err)
	assert.Equal(t, 18, units)
}

func TestAdjust_UnderflowRejected(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Adjust(ctx, domain.BloodANeg, 5)
	require.NoError(t, err)

	_, err = svc.Adjust(ctx, domain.BloodANeg, -6)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeInsufficientInventory))

	// The failed withdrawal must not change the count.
	entry, err := svc.store.Get(ctx, domain.BloodANeg)
	require.NoError(t, err)
	assert.Equal(t, 5, entry.Units)
}

func TestAdjust_InvalidBloodType(t *testing.T) {
	svc := newTestService()
	_, err := svc.Adjust(context.Background(), "X-", 1)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
}

// TestAdjust_ConcurrentWithdrawalsNeverUnderflow hammers one blood type with
// parallel withdrawals. Exactly the deposited amount may be withdrawn; the
// count never goes negative.
func TestAdjust_ConcurrentWithdrawalsNeverUnderflow(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const deposited = 20
	_, err := svc.Adjust(ctx, domain.BloodBNeg, deposited)
	require.NoError(t, err)

	const attempts = 60
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		denied    int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Adjust(ctx, domain.BloodBNeg, -1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case dErrors.Is(err, dErrors.CodeInsufficientInventory):
				denied++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, deposited, succeeded)
	assert.Equal(t, attempts-deposited, denied)

	entry, err := svc.store.Get(ctx, domain.BloodBNeg)
	require.NoError(t, err)
	assert.Zero(t, entry.Units)
}

func TestThresholds_Classify(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		units int
		want  Level
	}{
		{0, LevelCritical},
		{9, LevelCritical},
		{10, LevelLow},
		{19, LevelLow},
		{20, LevelNormal},
		{100, LevelNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, th.Classify(tt.units), "units=%d", tt.units)
	}
}

func TestList_CoversAllBloodTypes(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Adjust(ctx, domain.BloodABNeg, 25)
	require.NoError(t, err)

	entries, levels, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 8)
	require.Len(t, levels, 8)
	assert.Equal(t, LevelNormal, levels[domain.BloodABNeg])
	assert.Equal(t, LevelCritical, levels[domain.BloodOPos])
}
