package donation

import (
	"context"
)

// Recover re-appends ledger blocks for donations that committed without one,
// oldest first. Safe to run on every startup: Save and BindBlock are
// idempotent and the domain state was already mutated at commit time, so a
// re-append never double-credits inventory or the donor. Stops at the first
// failure so the remaining pending set is retried next startup.
func (c *Coordinator) Recover(ctx context.Context) (int, error) {
	pending, err := c.store.ListPendingLedger(ctx)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for i := range pending {
		d := pending[i]
		block, err := c.appendToLedger(ctx, &d)
		if err != nil {
			c.logger.ErrorContext(ctx, "donation ledger recovery failed",
				"donation_id", d.ID.String(),
				"recovered", recovered,
				"remaining", len(pending)-recovered,
				"error", err,
			)
			return recovered, err
		}
		recovered++
		c.logger.InfoContext(ctx, "pending donation recorded on ledger",
			"donation_id", d.ID.String(),
			"block_index", block.Index,
		)
	}
	if recovered > 0 {
		c.logger.InfoContext(ctx, "donation ledger recovery complete", "recovered", recovered)
	}
	return recovered, nil
}
