package tracker

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"svtk/internal/domain"
)

// ExportEventsJSON renders all events as pretty-printed JSON.
func (t *Tracker) ExportEventsJSON() (string, error) {
	data, err := json.MarshalIndent(t.portfolio.Events, "", "  ")
	if err != nil {
		return "", &domain.SerializationError{Reason: fmt.Sprintf("failed to serialize events to JSON: %v", err)}
	}
	return string(data), nil
}

// ExportEventsCSV renders all events as CSV with the columns
// id, event_type, symbol, name, asset_type, amount, date, notes.
func (t *Tracker) ExportEventsCSV() string {
	var b strings.Builder
	b.WriteString("id,event_type,symbol,name,asset_type,amount,date,notes\n")
	for _, event := range t.portfolio.Events {
		b.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s\n",
			event.ID,
			event.Type,
			event.Asset.Symbol,
			escapeCSV(event.Asset.Name),
			event.Asset.Type,
			strconv.FormatFloat(event.Amount, 'f', -1, 64),
			event.Date,
			escapeCSV(event.Notes),
		))
	}
	return b.String()
}

// ImportEventsJSON parses a JSON event array and adds it as an
// all-or-nothing batch. Returns the number of events imported.
func (t *Tracker) ImportEventsJSON(data string) (int, error) {
	var events []domain.Event
	if err := json.Unmarshal([]byte(data), &events); err != nil {
		return 0, &domain.DeserializationError{Reason: fmt.Sprintf("failed to parse events JSON: %v", err)}
	}
	if _, err := t.AddEvents(events); err != nil {
		return 0, err
	}
	return len(events), nil
}

// ToJSON renders the whole portfolio as pretty-printed, unencrypted
// JSON. Intended for debugging and display, never for storage.
func (t *Tracker) ToJSON() (string, error) {
	data, err := json.MarshalIndent(t.portfolio, "", "  ")
	if err != nil {
		return "", &domain.SerializationError{Reason: fmt.Sprintf("failed to serialize portfolio: %v", err)}
	}
	return string(data), nil
}

// escapeCSV quotes a field containing commas, quotes or newlines.
func escapeCSV(field string) string {
	if strings.ContainsAny(field, ",\"\n") {
		return "\"" + strings.ReplaceAll(field, "\"", "\"\"") + "\""
	}
	return field
}
