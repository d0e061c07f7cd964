package donation

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"lifeline/internal/donor"
	"lifeline/internal/inventory"
	"lifeline/internal/ledger"
	"lifeline/internal/matching"
	"lifeline/internal/platform/metrics"
	"lifeline/internal/request"
	"lifeline/pkg/domain"
	dErrors "lifeline/pkg/domain-errors"
	txcontext "lifeline/pkg/platform/tx"
)

// DefaultCooldown is the minimum gap between a donor's donations.
const DefaultCooldown = 90 * 24 * time.Hour

// Coordinator commits a donation end to end: re-validate the donor against
// the request, apply the request and inventory transitions, credit the donor,
// persist the donation, then record it on the ledger. The ledger append runs
// after the state mutations so mining never holds a domain lock; a donation
// whose append fails stays pending and is re-appended by Recover.
type Coordinator struct {
	donors    *donor.Service
	requests  *request.Service
	inventory *inventory.Service
	chain     *ledger.Service
	store     Store

	db       *sql.DB
	cooldown time.Duration
	radiusKm float64
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type CoordinatorOption func(*Coordinator)

func WithLogger(l *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

func WithMetrics(m *metrics.Metrics) CoordinatorOption {
	return func(c *Coordinator) { c.metrics = m }
}

// WithCooldown overrides the donor cooldown window.
func WithCooldown(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) { c.cooldown = d }
}

// WithRadius overrides the maximum donor-to-request distance accepted at
// commit time.
func WithRadius(km float64) CoordinatorOption {
	return func(c *Coordinator) { c.radiusKm = km }
}

// WithDB enables wrapping the commit's writes in one SQL transaction. Without
// it the stores apply writes individually, which the in-memory stores do.
func WithDB(db *sql.DB) CoordinatorOption {
	return func(c *Coordinator) { c.db = db }
}

func NewCoordinator(
	donors *donor.Service,
	requests *request.Service,
	inv *inventory.Service,
	chain *ledger.Service,
	store Store,
	opts ...CoordinatorOption,
) *Coordinator {
	c := &Coordinator{
		donors:    donors,
		requests:  requests,
		inventory: inv,
		chain:     chain,
		store:     store,
		cooldown:  DefaultCooldown,
		radiusKm:  matching.DefaultRadiusKm,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CommitParams identify the donor-to-request transaction.
type CommitParams struct {
	DonorID   domain.DonorID
	RequestID domain.RequestID
	Units     int
}

// Result is the outcome of a committed donation.
type Result struct {
	Donation         Donation
	AppliedUnits     int
	RequestCompleted bool
	Donor            donor.Donor
}

// Commit validates and applies one donation. Eligibility is re-checked at
// commit time regardless of what matching decided earlier: the donor must be
// compatible, available, past cooldown, and within the request's radius, and
// the request must still accept units. Applied units are clamped at the
// request's remaining need, and inventory is credited by the applied amount
// only.
func (c *Coordinator) Commit(ctx context.Context, p CommitParams) (Result, error) {
	if p.Units <= 0 {
		return Result{}, dErrors.New(dErrors.CodeBadRequest, "units must be positive")
	}

	d, err := c.donors.Get(ctx, p.DonorID)
	if err != nil {
		return Result{}, err
	}
	req, err := c.requests.Get(ctx, p.RequestID)
	if err != nil {
		return Result{}, err
	}

	now := time.Now().UTC()
	if req.Status.Terminal() {
		return Result{}, dErrors.New(dErrors.CodeRequestClosed, "request no longer accepts donations")
	}
	if !d.BloodType.CanDonateTo(req.BloodType) {
		return Result{}, dErrors.New(dErrors.CodeIneligibleDonor, "donor blood type is not compatible")
	}
	if !d.EligibleAt(now, c.cooldown) {
		return Result{}, dErrors.New(dErrors.CodeIneligibleDonor, "donor is within cooldown")
	}
	if !d.Available {
		return Result{}, dErrors.New(dErrors.CodeIneligibleDonor, "donor is not available")
	}
	if matching.HaversineKm(d.Latitude, d.Longitude, req.Latitude, req.Longitude) > c.radiusKm {
		return Result{}, dErrors.New(dErrors.CodeIneligibleDonor, "donor is outside the request radius")
	}

	don := Donation{
		ID:         domain.NewDonationID(),
		DonorID:    p.DonorID,
		RequestID:  p.RequestID,
		BloodType:  d.BloodType,
		DonatedAt:  now,
		BlockIndex: PendingBlockIndex,
		CreatedAt:  now,
	}

	res := Result{}
	err = c.inTx(ctx, func(ctx context.Context) error {
		applied, completed, err := c.requests.RecordFulfillment(ctx, p.RequestID, p.Units)
		if err != nil {
			if dErrors.Is(err, dErrors.CodeInvalidTransition) {
				return dErrors.New(dErrors.CodeRequestClosed, "request no longer accepts donations")
			}
			return err
		}

		if _, err := c.inventory.Adjust(ctx, req.BloodType, applied); err != nil {
			return err
		}

		credited, err := c.donors.Credit(ctx, p.DonorID, now)
		if err != nil {
			return err
		}

		don.Units = applied
		if err := c.store.Save(ctx, don); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save donation")
		}

		res.Donation = don
		res.AppliedUnits = applied
		res.RequestCompleted = completed
		res.Donor = credited
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if c.metrics != nil {
		c.metrics.DonationsCommitted.Inc()
		if res.RequestCompleted {
			c.metrics.RequestsFulfilled.Inc()
		}
	}

	// The donation is durable at this point. A failed append leaves it
	// pending for Recover rather than rolling back committed state.
	block, err := c.appendToLedger(ctx, &don)
	if err != nil {
		c.logger.WarnContext(ctx, "ledger append deferred to recovery",
			"donation_id", don.ID.String(),
			"error", err,
		)
	} else {
		don.BlockIndex = block.Index
	}
	res.Donation = don

	c.logger.InfoContext(ctx, "donation committed",
		"donation_id", don.ID.String(),
		"donor_id", p.DonorID.String(),
		"request_id", p.RequestID.String(),
		"units_applied", res.AppliedUnits,
		"request_completed", res.RequestCompleted,
		"block_index", don.BlockIndex,
	)
	return res, nil
}

// History returns a donor's donations, newest first.
func (c *Coordinator) History(ctx context.Context, donorID domain.DonorID) ([]Donation, error) {
	out, err := c.store.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list donations")
	}
	return out, nil
}

// appendToLedger mines and commits the donation's block, then binds its index.
func (c *Coordinator) appendToLedger(ctx context.Context, don *Donation) (ledger.Block, error) {
	payload, err := don.LedgerPayload()
	if err != nil {
		return ledger.Block{}, err
	}
	block, err := c.chain.Append(ctx, payload)
	if err != nil {
		return ledger.Block{}, err
	}
	if err := c.store.BindBlock(ctx, don.ID, block.Index); err != nil {
		return ledger.Block{}, err
	}
	return block, nil
}

// inTx runs fn inside one SQL transaction when a database is configured,
// otherwise directly.
func (c *Coordinator) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.db == nil {
		return fn(ctx)
	}
	sqlTx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	if err := fn(txcontext.WithTx(ctx, sqlTx)); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			c.logger.Error("transaction rollback failed", "error", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	return nil
}
