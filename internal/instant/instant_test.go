// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package instant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"zulu", "2024-04-05T10:00:00Z", "2024-04-05T10:00:00Z"},
		{"offset converted to utc", "2024-04-05T10:00:00+02:00", "2024-04-05T08:00:00Z"},
		{"fractional seconds", "2024-04-05T10:00:00.123Z", "2024-04-05T10:00:00.123Z"},
		{"naive read as utc", "2024-04-05T10:00:00", "2024-04-05T10:00:00Z"},
		{"date only", "2024-04-05", "2024-04-05T00:00:00Z"},
		{"surrounding space", "  2024-04-05  ", "2024-04-05T00:00:00Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Format(time.RFC3339Nano))
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "yesterday", "2024-13-45", "04/05/2024"} {
		assert.Nil(t, Parse(in), "input %q", in)
	}
}

func TestFromMillis(t *testing.T) {
	assert.Nil(t, FromMillis(0))
	assert.Nil(t, FromMillis(-5))

	got := FromMillis(1712275200000)
	require.NotNil(t, got)
	assert.Equal(t, "2024-04-05T00:00:00Z", got.Format(time.RFC3339))
}

func TestMin(t *testing.T) {
	a := Parse("2024-01-10")
	b := Parse("2024-01-01")
	c := Parse("2024-02-01")

	assert.Nil(t, Min())
	assert.Nil(t, Min(nil, nil))
	assert.Equal(t, b, Min(a, nil, b, c))
	assert.Equal(t, c, Max(a, nil, b, c))
}

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"same instant", base, 0},
		{"nine days", base.AddDate(0, 0, 9), 9},
		{"partial day truncates", base.Add(47 * time.Hour), 1},
		{"negative floors", base.Add(-36 * time.Hour), -2},
		{"negative whole", base.Add(-48 * time.Hour), -2},
		{"just before", base.Add(-time.Minute), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysBetween(base, tt.end))
		})
	}
}

func TestMin_NeverAfterAnyCandidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secs := rapid.SliceOfN(rapid.Int64Range(0, 2_000_000_000), 1, 8).Draw(t, "secs")
		var cands []*time.Time
		for _, s := range secs {
			cands = append(cands, Ptr(time.Unix(s, 0)))
		}
		got := Min(cands...)
		for _, c := range cands {
			if got.After(*c) {
				t.Fatalf("min %v after candidate %v", got, c)
			}
		}
	})
}
