package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbridge/internal/donor/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsEligible(t *testing.T) {
	today := date(2026, time.March, 15)

	cases := []struct {
		name string
		next *time.Time
		want bool
	}{
		{"no cooldown recorded", nil, true},
		{"cooldown ended yesterday", ptr(date(2026, time.March, 14)), true},
		{"cooldown ends today", ptr(date(2026, time.March, 15)), true},
		{"cooldown ends tomorrow", ptr(date(2026, time.March, 16)), false},
		{"cooldown far in the future", ptr(date(2026, time.May, 15)), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &models.Donor{NextEligibleDate: tc.next}
			assert.Equal(t, tc.want, IsEligible(d, today))
		})
	}
}

func TestIsEligibleNormalizesClock(t *testing.T) {
	// A wall-clock "today" late in the evening still counts as the same
	// calendar date.
	next := date(2026, time.March, 15)
	d := &models.Donor{NextEligibleDate: &next}
	evening := time.Date(2026, time.March, 15, 23, 30, 0, 0, time.UTC)
	assert.True(t, IsEligible(d, evening))
}

func TestCompleteDonation(t *testing.T) {
	today := date(2026, time.January, 10)
	d := CompleteDonation(models.Donor{}, today)

	require.NotNil(t, d.LastDonationDate)
	require.NotNil(t, d.NextEligibleDate)
	assert.Equal(t, today, *d.LastDonationDate)
	assert.Equal(t, date(2026, time.March, 10), *d.NextEligibleDate)
}

func TestCompleteDonationMonthEndBoundary(t *testing.T) {
	// Dec 31 + 2 months clamps to the last day of February.
	d := CompleteDonation(models.Donor{}, date(2025, time.December, 31))
	require.NotNil(t, d.NextEligibleDate)
	assert.Equal(t, date(2026, time.February, 28), *d.NextEligibleDate)

	// Same boundary into a leap year.
	d = CompleteDonation(models.Donor{}, date(2023, time.December, 31))
	assert.Equal(t, date(2024, time.February, 29), *d.NextEligibleDate)
}

func TestAddMonths(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"mid-month", date(2026, time.April, 12), date(2026, time.June, 12)},
		{"jan 31 clamps to mar 31 passthrough", date(2026, time.January, 31), date(2026, time.March, 31)},
		{"dec 31 clamps to feb 28", date(2025, time.December, 31), date(2026, time.February, 28)},
		{"year rollover", date(2026, time.November, 30), date(2027, time.January, 30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddMonths(tc.in, CooldownMonths))
		})
	}
}

func TestCompleteDonationIdempotentSameDay(t *testing.T) {
	today := date(2026, time.June, 1)
	first := CompleteDonation(models.Donor{}, today)
	second := CompleteDonation(first, today)
	assert.Equal(t, *first.NextEligibleDate, *second.NextEligibleDate)
	assert.Equal(t, *first.LastDonationDate, *second.LastDonationDate)
}

func ptr(t time.Time) *time.Time { return &t }
