//go:build integration

package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"lifeline/internal/inventory"
	"lifeline/pkg/domain"
	"lifeline/pkg/platform/sentinel"
	"lifeline/pkg/testutil/containers"
)

const inventorySchema = `
CREATE TABLE IF NOT EXISTS inventory (
    blood_type  TEXT PRIMARY KEY,
    units       INTEGER NOT NULL DEFAULT 0 CHECK (units >= 0),
    temperature DOUBLE PRECISION NOT NULL DEFAULT 4.0,
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const inventorySeed = `
INSERT INTO inventory (blood_type, units)
VALUES ('A+', 0), ('A-', 0), ('B+', 0), ('B-', 0),
       ('AB+', 0), ('AB-', 0), ('O+', 0), ('O-', 0)
ON CONFLICT (blood_type) DO NOTHING`

type PostgresInventorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *inventory.PostgresStore
}

func TestPostgresInventorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresInventorySuite))
}

func (s *PostgresInventorySuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), inventorySchema))
	s.store = inventory.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresInventorySuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "inventory"))
	s.Require().NoError(s.postgres.ApplySchema(ctx, inventorySeed))
}

func (s *PostgresInventorySuite) TestAdjustAndReadBack() {
	ctx := context.Background()

	units, err := s.store.Adjust(ctx, domain.BloodAPos, 7)
	s.Require().NoError(err)
	s.Equal(7, units)

	units, err = s.store.Adjust(ctx, domain.BloodAPos, -3)
	s.Require().NoError(err)
	s.Equal(4, units)

	entry, err := s.store.Get(ctx, domain.BloodAPos)
	s.Require().NoError(err)
	s.Equal(domain.BloodAPos, entry.BloodType)
	s.Equal(4, entry.Units)
	s.False(entry.LastUpdated.IsZero())
}

func (s *PostgresInventorySuite) TestUnderflowRejectedWithoutMutation() {
	ctx := context.Background()

	_, err := s.store.Adjust(ctx, domain.BloodONeg, 2)
	s.Require().NoError(err)

	_, err = s.store.Adjust(ctx, domain.BloodONeg, -5)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	entry, err := s.store.Get(ctx, domain.BloodONeg)
	s.Require().NoError(err)
	s.Equal(2, entry.Units)
}

func (s *PostgresInventorySuite) TestUnknownTypeNotFound() {
	_, err := s.store.Adjust(context.Background(), domain.BloodType("Z+"), 1)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresInventorySuite) TestListCoversAllSeededTypes() {
	entries, err := s.store.List(context.Background())
	s.Require().NoError(err)
	s.Require().Len(entries, 8)
	for _, e := range entries {
		s.True(e.BloodType.IsValid(), "unexpected type %s", e.BloodType)
		s.Equal(0, e.Units)
	}
}

func (s *PostgresInventorySuite) TestConcurrentWithdrawalsNeverUnderflow() {
	ctx := context.Background()

	_, err := s.store.Adjust(ctx, domain.BloodBPos, 10)
	s.Require().NoError(err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		okCount int
		denied  int
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Adjust(ctx, domain.BloodBPos, -1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				okCount++
			} else {
				denied++
			}
		}()
	}
	wg.Wait()

	s.Equal(10, okCount)
	s.Equal(20, denied)

	entry, err := s.store.Get(ctx, domain.BloodBPos)
	s.Require().NoError(err)
	s.Equal(0, entry.Units)
}
