// Package eligibility holds the pure rules deciding when a donor may receive
// new requests and how the cooldown window is derived after a donation.
// Nothing here touches storage; callers persist the returned profile.
package eligibility

import (
	"time"

	"bloodbridge/internal/donor/models"
)

// CooldownMonths is the mandatory rest period after a completed donation.
const CooldownMonths = 2

// Date normalizes t to a calendar date: midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsEligible reports whether the donor may receive new requests on the given
// day. Only the derived NextEligibleDate is consulted, never the raw
// LastDonationDate.
func IsEligible(d *models.Donor, today time.Time) bool {
	if d.NextEligibleDate == nil {
		return true
	}
	return !d.NextEligibleDate.After(Date(today))
}

// CompleteDonation returns a copy of the profile stamped for a donation
// completed today: LastDonationDate is today and NextEligibleDate is two
// calendar months later.
func CompleteDonation(d models.Donor, today time.Time) models.Donor {
	last := Date(today)
	next := AddMonths(last, CooldownMonths)
	d.LastDonationDate = &last
	d.NextEligibleDate = &next
	return d
}

// AddMonths advances t by the given number of calendar months, clamping
// end-of-month overflow to the last valid day of the target month
// (Dec 31 + 2 months = Feb 28/29). This matches SQL DATE_ADD semantics;
// time.AddDate would normalize the overflow into the following month instead.
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
