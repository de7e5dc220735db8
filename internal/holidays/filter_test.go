package holidays

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func christmas(year string) RawHoliday {
	return RawHoliday{
		Name:        "Christmas Day",
		Description: "Christmas Day is a public holiday in South Africa",
		Types:       []string{"National holiday", "Christian"},
		Date:        year + "-12-25",
	}
}

// TestFilterByDay_MatchesMonthAndDayOnly validates that only month and day
// are compared.
//
// Justification: The filter answers "does this calendar day recur as a
// holiday", so a year mismatch must never exclude an entry.
func TestFilterByDay_MatchesMonthAndDayOnly(t *testing.T) {
	raw := []RawHoliday{christmas("2024"), christmas("2019")}

	assert.Len(t, FilterByDay(raw, 12, 25), 2)
	assert.Empty(t, FilterByDay(raw, 12, 24))
	assert.Empty(t, FilterByDay(raw, 11, 25))
}

func TestFilterByDay_PreservesOrderAndDuplicates(t *testing.T) {
	raw := []RawHoliday{
		{Name: "A", Date: "1990-01-01"},
		{Name: "skip", Date: "1990-01-02"},
		{Name: "B", Date: "1990-01-01T00:00:00+02:00"},
		{Name: "A", Date: "1990-01-01"},
	}

	got := FilterByDay(raw, 1, 1)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "A"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, "1990-01-01T00:00:00+02:00", got[1].Date, "date is kept as received")
}

func TestFilterByDay_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawHoliday
		wantType string
		wantDesc string
	}{
		{
			name:     "first type wins",
			raw:      RawHoliday{Name: "x", Types: []string{"Observance", "Season"}, PrimaryType: "Ignored", Description: "d"},
			wantType: "Observance",
			wantDesc: "d",
		},
		{
			name:     "primary type when list empty",
			raw:      RawHoliday{Name: "x", PrimaryType: "Local holiday"},
			wantType: "Local holiday",
			wantDesc: DefaultDescription,
		},
		{
			name:     "placeholders when absent",
			raw:      RawHoliday{Name: "x"},
			wantType: DefaultType,
			wantDesc: DefaultDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.raw.Date = "2024-06-16"
			got := FilterByDay([]RawHoliday{tt.raw}, 6, 16)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantType, got[0].Type)
			assert.Equal(t, tt.wantDesc, got[0].Description)
		})
	}
}

func TestFilterByDay_SkipsUnparseableDates(t *testing.T) {
	raw := []RawHoliday{
		{Name: "empty"},
		{Name: "garbage", Date: "25/12/2024"},
		{Name: "short", Date: "2024-12"},
		{Name: "ok", Date: "2024-12-25"},
	}

	got := FilterByDay(raw, 12, 25)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].Name)
}

func TestFilterByDay_EmptyInputIsNonNil(t *testing.T) {
	got := FilterByDay(nil, 1, 1)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchResult(t *testing.T) {
	assert.False(t, OK(nil).IsDegraded())
	d := Degraded(assert.AnError)
	assert.True(t, d.IsDegraded())
	assert.Empty(t, d.Holidays)
	assert.ErrorIs(t, d.Cause, assert.AnError)
}
