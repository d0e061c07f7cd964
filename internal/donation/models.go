package donation

import (
	"encoding/json"
	"fmt"
	"time"

	"lifeline/pkg/domain"
)

// PendingBlockIndex marks a donation whose ledger block has not been committed
// yet. Startup recovery re-appends these.
const PendingBlockIndex int64 = -1

// Donation is one committed donor-to-request transaction. BlockIndex binds it
// to its proof-of-work ledger entry once mining lands.
type Donation struct {
	ID         domain.DonationID
	DonorID    domain.DonorID
	RequestID  domain.RequestID
	BloodType  domain.BloodType
	Units      int
	DonatedAt  time.Time
	BlockIndex int64
	CreatedAt  time.Time
}

// Pending reports whether the ledger append is still outstanding.
func (d *Donation) Pending() bool {
	return d.BlockIndex == PendingBlockIndex
}

// ledgerEvent is the payload recorded on the chain for one donation. Field
// order is fixed so re-appends during recovery produce an identical payload.
type ledgerEvent struct {
	Event      string `json:"event"`
	DonationID string `json:"donation_id"`
	DonorID    string `json:"donor_id"`
	RequestID  string `json:"request_id"`
	BloodType  string `json:"blood_type"`
	Units      int    `json:"units"`
	DonatedAt  string `json:"donated_at"`
}

// LedgerPayload serializes the donation for its ledger block.
func (d *Donation) LedgerPayload() (string, error) {
	raw, err := json.Marshal(ledgerEvent{
		Event:      "donation",
		DonationID: d.ID.String(),
		DonorID:    d.DonorID.String(),
		RequestID:  d.RequestID.String(),
		BloodType:  d.BloodType.String(),
		Units:      d.Units,
		DonatedAt:  d.DonatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("marshal ledger payload: %w", err)
	}
	return string(raw), nil
}
