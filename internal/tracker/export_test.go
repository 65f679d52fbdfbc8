package tracker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"svtk/internal/domain"
)

func TestExportImportJSONRoundTrip(t *testing.T) {
	tr := seedEvents(t)

	data, err := tr.ExportEventsJSON()
	require.NoError(t, err)
	assert.Contains(t, data, "\"BTC\"")

	fresh := newTracker(t)
	count, err := fresh.ImportEventsJSON(data)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 3, fresh.EventCount())
	assert.True(t, fresh.HasUnsavedChanges())

	orig := tr.EventsSorted(domain.SortDateAsc)
	imported := fresh.EventsSorted(domain.SortDateAsc)
	for i := range orig {
		assert.Equal(t, orig[i].ID, imported[i].ID)
		assert.Equal(t, orig[i].Amount, imported[i].Amount)
		assert.Equal(t, orig[i].Date, imported[i].Date)
	}
}

func TestImportInvalidJSON(t *testing.T) {
	tr := newTracker(t)

	_, err := tr.ImportEventsJSON("{not json")
	var derr *domain.DeserializationError
	assert.ErrorAs(t, err, &derr)
	assert.Zero(t, tr.EventCount())
}

func TestImportInvalidBatchAddsNothing(t *testing.T) {
	tr := newTracker(t)

	// An uncovered sell fails validation and the batch adds nothing.
	uncoveredSell := `[{"id":"7a9db6a7-0a6f-4d5b-9f35-6ae0e1b5f9c1","event_type":"Sell","asset":{"symbol":"BTC","name":"Bitcoin","asset_type":"Crypto"},"amount":1,"date":"2024-03-01"}]`
	_, err := tr.ImportEventsJSON(uncoveredSell)
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, tr.EventCount())
}

func TestExportEventsCSV(t *testing.T) {
	tr := newTracker(t)
	id, err := tr.AddEventWithNotes(domain.EventTypeBuy, btc, 0.5, date("2024-03-01"), `dca, "weekly" buy`)
	require.NoError(t, err)

	csv := tr.ExportEventsCSV()
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "id,event_type,symbol,name,asset_type,amount,date,notes", lines[0])
	assert.Contains(t, lines[1], id.String())
	assert.Contains(t, lines[1], "Buy,BTC,Bitcoin,Crypto,0.5,2024-03-01")
	// Notes with commas and quotes are quoted with doubled quotes.
	assert.Contains(t, lines[1], `"dca, ""weekly"" buy"`)
}

func TestToJSONIncludesSettings(t *testing.T) {
	tr := newTracker(t)
	require.NoError(t, tr.SetDefaultCurrency("EUR"))

	data, err := tr.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, data, "\"default_currency\": \"EUR\"")
}

func TestCacheOperations(t *testing.T) {
	tr := newTracker(t)
	tr.SetCachedPrice("BTC", "USD", date("2024-03-01"), 100)
	tr.SetCachedPrice("BTC", "USD", date("2024-03-02"), 110)
	tr.SetCachedPrice("ETH", "USD", date("2024-03-01"), 10)

	assert.Equal(t, 3, tr.CacheTotalEntries())
	assert.Equal(t, 2, tr.CacheAssetCount())

	pairs := tr.CachedPairs()
	require.Len(t, pairs, 2)

	price, ok := tr.CachedPrice("btc", "usd", date("2024-03-02"))
	require.True(t, ok)
	assert.Equal(t, 110.0, price)

	_, err := tr.SaveToBytes("pw")
	require.NoError(t, err)

	removed := tr.CachePruneBefore(date("2024-03-02"))
	assert.Equal(t, 2, removed)
	assert.True(t, tr.HasUnsavedChanges())
	assert.Equal(t, 1, tr.CacheTotalEntries())

	tr.CacheClear()
	assert.Zero(t, tr.CacheTotalEntries())
	assert.Zero(t, tr.CacheAssetCount())
}

func TestCachePruneNothingStaysClean(t *testing.T) {
	tr := newTracker(t)
	_, err := tr.SaveToBytes("pw")
	require.NoError(t, err)

	assert.Zero(t, tr.CachePruneBefore(date("2024-03-01")))
	assert.False(t, tr.HasUnsavedChanges())
}
