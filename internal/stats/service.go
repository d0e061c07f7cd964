package stats

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"lifeline/internal/donation"
	"lifeline/internal/inventory"
	"lifeline/internal/ledger"
	"lifeline/internal/request"
	dErrors "lifeline/pkg/domain-errors"
)

// DefaultWindowDays is how far back the daily series reaches.
const DefaultWindowDays = 30

// DailyAggregate is one day of donation activity broken down by blood type.
type DailyAggregate struct {
	Date      string         `json:"date"`
	Donations int            `json:"donations"`
	Units     int            `json:"units"`
	ByType    map[string]int `json:"units_by_type"`
}

// Snapshot is the platform-wide statistics view.
type Snapshot struct {
	GeneratedAt    time.Time         `json:"generated_at"`
	TotalDonations int               `json:"total_donations"`
	TotalUnits     int               `json:"total_units"`
	OpenRequests   int               `json:"open_requests"`
	TotalRequests  int               `json:"total_requests"`
	LedgerLength   int64             `json:"ledger_length"`
	Inventory      map[string]int    `json:"inventory_units"`
	InventoryLevel map[string]string `json:"inventory_levels"`
	Daily          []DailyAggregate  `json:"daily"`
}

// Service aggregates read-only statistics across the core stores. All numbers
// are computed at call time; there is no materialized view to drift.
type Service struct {
	donations donation.Store
	requests  *request.Service
	inventory *inventory.Service
	chain     ledger.Store

	windowDays int
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWindow overrides the daily series window.
func WithWindow(days int) Option {
	return func(s *Service) { s.windowDays = days }
}

func New(donations donation.Store, requests *request.Service, inv *inventory.Service, chain ledger.Store, opts ...Option) *Service {
	s := &Service{
		donations:  donations,
		requests:   requests,
		inventory:  inv,
		chain:      chain,
		windowDays: DefaultWindowDays,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Collect builds the current snapshot. The daily series is ordered by date
// ascending and contains only days with activity.
func (s *Service) Collect(ctx context.Context) (Snapshot, error) {
	now := time.Now().UTC()
	snap := Snapshot{GeneratedAt: now}

	count, units, err := s.donations.Totals(ctx)
	if err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to total donations")
	}
	snap.TotalDonations = count
	snap.TotalUnits = units

	open, err := s.requests.ListOpen(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.OpenRequests = len(open)

	total, err := s.requests.CountAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.TotalRequests = total

	length, err := s.chain.Length(ctx)
	if err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read ledger length")
	}
	snap.LedgerLength = length

	entries, levels, err := s.inventory.List(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Inventory = make(map[string]int, len(entries))
	snap.InventoryLevel = make(map[string]string, len(entries))
	for _, e := range entries {
		snap.Inventory[e.BloodType.String()] = e.Units
		snap.InventoryLevel[e.BloodType.String()] = string(levels[e.BloodType])
	}

	daily, err := s.dailySeries(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Daily = daily
	return snap, nil
}

func (s *Service) dailySeries(ctx context.Context, now time.Time) ([]DailyAggregate, error) {
	since := now.AddDate(0, 0, -s.windowDays)
	donations, err := s.donations.ListSince(ctx, since)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list recent donations")
	}

	byDay := make(map[string]*DailyAggregate)
	for _, d := range donations {
		key := d.DonatedAt.UTC().Format("2006-01-02")
		agg, ok := byDay[key]
		if !ok {
			agg = &DailyAggregate{Date: key, ByType: make(map[string]int)}
			byDay[key] = agg
		}
		agg.Donations++
		agg.Units += d.Units
		agg.ByType[d.BloodType.String()] += d.Units
	}

	out := make([]DailyAggregate, 0, len(byDay))
	for _, agg := range byDay {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// typeBreakdown is reused by the admin view to show demand per blood type.
func typeBreakdown(requests []request.BloodRequest) map[string]int {
	out := make(map[string]int)
	for i := range requests {
		out[requests[i].BloodType.String()] += requests[i].UnitsNeeded - requests[i].UnitsFulfilled
	}
	return out
}

// Demand reports outstanding units per blood type across open requests.
func (s *Service) Demand(ctx context.Context) (map[string]int, error) {
	open, err := s.requests.ListOpen(ctx)
	if err != nil {
		return nil, err
	}
	return typeBreakdown(open), nil
}
