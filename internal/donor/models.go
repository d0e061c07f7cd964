package donor

import (
	"time"

	"lifeline/pkg/domain"
)

// Donor is a registered blood donor. Contact/location fields are supplied by
// the identity and onboarding flows, which are external to this core; the
// coordinator mutates only Points, Badges, TotalDonations and LastDonation.
type Donor struct {
	ID             domain.DonorID
	UserID         string
	Name           string
	Email          string
	Phone          string
	BloodType      domain.BloodType
	Latitude       float64
	Longitude      float64
	LastDonation   *time.Time
	TotalDonations int
	Points         int
	Badges         []string
	Available      bool
	CreatedAt      time.Time
}

// PointsPerDonation is credited for every committed donation.
const PointsPerDonation = 100

// badgeTiers maps total-donation thresholds to badge identifiers, lowest first.
var badgeTiers = []struct {
	donations int
	badge     string
}{
	{1, "first_hero"},
	{5, "bronze_saver"},
	{10, "silver_guardian"},
	{25, "gold_champion"},
	{50, "platinum_legend"},
}

// EligibleAt reports whether the donor's cooldown has elapsed at the given
// time. A donor who has never donated is always past cooldown.
func (d *Donor) EligibleAt(now time.Time, cooldown time.Duration) bool {
	if d.LastDonation == nil {
		return true
	}
	return now.Sub(*d.LastDonation) >= cooldown
}

// earnedBadges returns the badge set for a donation total, preserving order.
func earnedBadges(totalDonations int) []string {
	var badges []string
	for _, tier := range badgeTiers {
		if totalDonations >= tier.donations {
			badges = append(badges, tier.badge)
		}
	}
	return badges
}

// LeaderboardEntry is one row of the points projection.
type LeaderboardEntry struct {
	DonorID        domain.DonorID `json:"donor_id"`
	Name           string         `json:"name"`
	BloodType      string         `json:"blood_type"`
	TotalDonations int            `json:"total_donations"`
	Points         int            `json:"points"`
	Badges         []string       `json:"badges"`
}
