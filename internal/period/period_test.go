package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveCurrentMonth(t *testing.T) {
	tests := []struct {
		name  string
		today time.Time
		start time.Time
		end   time.Time
	}{
		{"mid january", date(2025, time.January, 15), date(2025, time.January, 1), date(2025, time.January, 31)},
		{"leap february", date(2024, time.February, 10), date(2024, time.February, 1), date(2024, time.February, 29)},
		{"non-leap february", date(2025, time.February, 10), date(2025, time.February, 1), date(2025, time.February, 28)},
		{"thirty day month", date(2025, time.April, 30), date(2025, time.April, 1), date(2025, time.April, 30)},
		{"december wraps year", date(2025, time.December, 31), date(2025, time.December, 1), date(2025, time.December, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Resolve(CurrentMonth, tt.today)
			require.NotNil(t, r)
			assert.Equal(t, tt.start, r.Start)
			assert.Equal(t, tt.end, r.End)
		})
	}
}

func TestResolveLast30Days(t *testing.T) {
	today := date(2025, time.March, 15)
	r := Resolve(Last30Days, today)
	require.NotNil(t, r)
	assert.Equal(t, date(2025, time.February, 13), r.Start)
	assert.Equal(t, today, r.End)
}

func TestResolveEmptyDefaultsToCurrentMonth(t *testing.T) {
	today := date(2025, time.June, 20)
	r := Resolve("", today)
	require.NotNil(t, r)
	assert.Equal(t, date(2025, time.June, 1), r.Start)
	assert.Equal(t, date(2025, time.June, 30), r.End)
}

func TestResolveAllTimeAndUnrecognized(t *testing.T) {
	today := date(2025, time.June, 20)
	assert.Nil(t, Resolve(AllTime, today))
	// Unrecognized selectors silently mean "no restriction"
	assert.Nil(t, Resolve("last_year", today))
	assert.Nil(t, Resolve("MES_ATUAL", today))
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		selector string
		want     string
	}{
		{"", CurrentMonth},
		{CurrentMonth, CurrentMonth},
		{Last30Days, Last30Days},
		{AllTime, AllTime},
		// Made-up selectors all collapse onto the all-time value, so cache
		// keys derived from the canonical form stay bounded
		{"last_year", AllTime},
		{"MES_ATUAL", AllTime},
		{"mes_atual; DROP", AllTime},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Canonical(tt.selector), "selector %q", tt.selector)
	}
}

func TestResolveIsPure(t *testing.T) {
	today := date(2024, time.February, 5)
	first := Resolve(CurrentMonth, today)
	second := Resolve(CurrentMonth, today)
	assert.Equal(t, first, second)
}

func TestRangeContains(t *testing.T) {
	r := Range{Start: date(2025, time.May, 1), End: date(2025, time.May, 31)}
	assert.True(t, r.Contains(date(2025, time.May, 1)), "start bound is inclusive")
	assert.True(t, r.Contains(date(2025, time.May, 31)), "end bound is inclusive")
	assert.False(t, r.Contains(date(2025, time.April, 30)))
	assert.False(t, r.Contains(date(2025, time.June, 1)))
}
