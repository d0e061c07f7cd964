package donor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
)

func newTestService() (*Service, *InMemoryStore) {
	store := NewInMemoryStore()
	return New(store, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))), store
}

func seed(t *testing.T, store Store, d Donor) Donor {
	t.Helper()
	if d.ID.IsNil() {
		d.ID = domain.NewDonorID()
	}
	require.NoError(t, store.Save(context.Background(), d))
	return d
}

func TestEligibleAt_CooldownBoundary(t *testing.T) {
	now := time.Now()
	cooldown := 90 * 24 * time.Hour

	never := Donor{}
	assert.True(t, never.EligibleAt(now, cooldown), "a donor who never donated is eligible")

	exactly := now.Add(-cooldown)
	d := Donor{LastDonation: &exactly}
	assert.True(t, d.EligibleAt(now, cooldown), "exactly 90 days is eligible")

	oneSecondShort := now.Add(-cooldown + time.Second)
	d = Donor{LastDonation: &oneSecondShort}
	assert.False(t, d.EligibleAt(now, cooldown))
}

func TestCredit_AwardsPointsAndBadges(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	d := seed(t, store, Donor{Name: "Dana", BloodType: domain.BloodOPos, Available: true})

	first, err := svc.Credit(ctx, d.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalDonations)
	assert.Equal(t, PointsPerDonation, first.Points)
	assert.Equal(t, []string{"first_hero"}, first.Badges)
	require.NotNil(t, first.LastDonation)

	// Credit up to the next tier.
	var latest Donor
	for i := 0; i < 4; i++ {
		latest, err = svc.Credit(ctx, d.ID, time.Now())
		require.NoError(t, err)
	}
	assert.Equal(t, 5, latest.TotalDonations)
	assert.Equal(t, 5*PointsPerDonation, latest.Points)
	assert.Equal(t, []string{"first_hero", "bronze_saver"}, latest.Badges)
}

func TestBadgeTiers(t *testing.T) {
	tests := []struct {
		donations int
		want      []string
	}{
		{0, nil},
		{1, []string{"first_hero"}},
		{4, []string{"first_hero"}},
		{5, []string{"first_hero", "bronze_saver"}},
		{10, []string{"first_hero", "bronze_saver", "silver_guardian"}},
		{25, []string{"first_hero", "bronze_saver", "silver_guardian", "gold_champion"}},
		{50, []string{"first_hero", "bronze_saver", "silver_guardian", "gold_champion", "platinum_legend"}},
		{99, []string{"first_hero", "bronze_saver", "silver_guardian", "gold_champion", "platinum_legend"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, earnedBadges(tt.donations), "donations=%d", tt.donations)
	}
}

func TestCredit_UnknownDonor(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Credit(context.Background(), domain.NewDonorID(), time.Now())
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestLeaderboard_OrderingAndLimit(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	seed(t, store, Donor{Name: "low", Points: 100})
	seed(t, store, Donor{Name: "high", Points: 900})
	seed(t, store, Donor{Name: "mid", Points: 500})

	entries, err := svc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "high", entries[0].Name)
	assert.Equal(t, "mid", entries[1].Name)
}

func TestLeaderboard_TieBreaksDeterministic(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	a := seed(t, store, Donor{Name: "a", Points: 300})
	b := seed(t, store, Donor{Name: "b", Points: 300})

	first, err := svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	second, err := svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, first, second, "equal points must order deterministically")

	wantFirst := a.ID
	if b.ID.String() < a.ID.String() {
		wantFirst = b.ID
	}
	assert.Equal(t, wantFirst, first[0].DonorID)
}

func TestUpdateLocation_Validation(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	d := seed(t, store, Donor{Name: "mover"})

	require.NoError(t, svc.UpdateLocation(ctx, d.ID, 48.1, 11.6))

	for _, tt := range []struct{ lat, lon float64 }{
		{91, 0}, {-91, 0}, {0, 181}, {0, -181},
	} {
		err := svc.UpdateLocation(ctx, d.ID, tt.lat, tt.lon)
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	}
}

func TestSetAvailability(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	d := seed(t, store, Donor{Name: "toggler", Available: true})

	require.NoError(t, svc.SetAvailability(ctx, d.ID, false))
	got, err := svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, got.Available)
}
