package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidinfra/revalloc/internal/types"
)

func entry(id string, status types.SspEntryStatus, from time.Time, to *time.Time, ssp string) *Entry {
	price, _ := decimal.NewFromString(ssp)
	return &Entry{
		ID:            id,
		ProductID:     "p1",
		Currency:      "USD",
		Ssp:           price,
		Method:        types.SspMethodObservable,
		EffectiveFrom: from,
		EffectiveTo:   to,
		EntryStatus:   status,
	}
}

func TestEffectiveEntry(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	may31 := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)

	t.Run("returns nil when nothing is approved", func(t *testing.T) {
		entries := []*Entry{
			entry("e1", types.SspEntryStatusDraft, jan, nil, "100"),
			entry("e2", types.SspEntryStatusReviewed, jan, nil, "110"),
		}
		assert.Nil(t, EffectiveEntry(entries, jun))
	})

	t.Run("selects approved entry covering the date", func(t *testing.T) {
		entries := []*Entry{
			entry("e1", types.SspEntryStatusApproved, jan, &may31, "100"),
			entry("e2", types.SspEntryStatusApproved, jun, nil, "120"),
		}

		got := EffectiveEntry(entries, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
		require.NotNil(t, got)
		assert.Equal(t, "e1", got.ID)

		got = EffectiveEntry(entries, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
		require.NotNil(t, got)
		assert.Equal(t, "e2", got.ID)
	})

	t.Run("latest effective_from wins on overlap", func(t *testing.T) {
		entries := []*Entry{
			entry("e1", types.SspEntryStatusApproved, jan, nil, "100"),
			entry("e2", types.SspEntryStatusApproved, jun, nil, "120"),
		}
		got := EffectiveEntry(entries, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
		require.NotNil(t, got)
		assert.Equal(t, "e2", got.ID)
	})
}

func TestResolvableEntry(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("approved outranks reviewed and draft", func(t *testing.T) {
		entries := []*Entry{
			entry("e1", types.SspEntryStatusDraft, jan, nil, "90"),
			entry("e2", types.SspEntryStatusApproved, jan, nil, "100"),
			entry("e3", types.SspEntryStatusReviewed, jan, nil, "95"),
		}
		got := ResolvableEntry(entries, asOf)
		require.NotNil(t, got)
		assert.Equal(t, "e2", got.ID)
	})

	t.Run("falls back to reviewed then draft", func(t *testing.T) {
		entries := []*Entry{
			entry("e1", types.SspEntryStatusDraft, jan, nil, "90"),
			entry("e3", types.SspEntryStatusReviewed, jan, nil, "95"),
		}
		got := ResolvableEntry(entries, asOf)
		require.NotNil(t, got)
		assert.Equal(t, "e3", got.ID)
	})

	t.Run("nil when no entry covers the date", func(t *testing.T) {
		entries := []*Entry{
			entry("e1", types.SspEntryStatusApproved, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil, "100"),
		}
		assert.Nil(t, ResolvableEntry(entries, asOf))
	})
}

func TestOverlaps(t *testing.T) {
	jan := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	mar31 := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	apr := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	closed := entry("e1", types.SspEntryStatusApproved, jan, &mar31, "100")
	following := entry("e2", types.SspEntryStatusApproved, apr, nil, "110")
	openEnded := entry("e3", types.SspEntryStatusApproved, jan, nil, "100")

	assert.False(t, closed.Overlaps(following))
	assert.False(t, following.Overlaps(closed))
	assert.True(t, openEnded.Overlaps(following))
	assert.True(t, closed.Overlaps(openEnded))
}
