package tracker

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"svtk/internal/domain"
)

// AddEvent adds a buy/sell event and returns its generated id.
func (t *Tracker) AddEvent(eventType domain.EventType, asset domain.Asset, amount float64, date domain.Date) (uuid.UUID, error) {
	event := domain.NewEvent(eventType, asset, amount, date)
	if err := t.portfolios.AddEvent(t.portfolio, event); err != nil {
		return uuid.Nil, err
	}
	t.dirty = true
	return event.ID, nil
}

// AddEventWithNotes adds a buy/sell event with notes attached.
func (t *Tracker) AddEventWithNotes(eventType domain.EventType, asset domain.Asset, amount float64, date domain.Date, notes string) (uuid.UUID, error) {
	event := domain.NewEventWithNotes(eventType, asset, amount, date, notes)
	if err := t.portfolios.AddEvent(t.portfolio, event); err != nil {
		return uuid.Nil, err
	}
	t.dirty = true
	return event.ID, nil
}

// RemoveEvent removes an event by id, rejecting removals that would
// leave later sells uncovered.
func (t *Tracker) RemoveEvent(eventID uuid.UUID) error {
	if err := t.portfolios.RemoveEvent(t.portfolio, eventID); err != nil {
		return err
	}
	t.dirty = true
	return nil
}

// UpdateEvent replaces an event's type, asset, amount and date,
// keeping its id and notes.
func (t *Tracker) UpdateEvent(eventID uuid.UUID, eventType domain.EventType, asset domain.Asset, amount float64, date domain.Date) error {
	if err := t.portfolios.UpdateEvent(t.portfolio, eventID, eventType, asset, amount, date); err != nil {
		return err
	}
	t.dirty = true
	return nil
}

// SetEventNotes sets or clears (empty string) notes on an event.
func (t *Tracker) SetEventNotes(eventID uuid.UUID, notes string) error {
	if err := t.portfolios.SetNotes(t.portfolio, eventID, notes); err != nil {
		return err
	}
	t.dirty = true
	return nil
}

// Event looks up a single event by id.
func (t *Tracker) Event(eventID uuid.UUID) (domain.Event, bool) {
	for _, e := range t.portfolio.Events {
		if e.ID == eventID {
			return e, true
		}
	}
	return domain.Event{}, false
}

// Events returns all events, newest first.
func (t *Tracker) Events() []domain.Event {
	return t.portfolios.Events(t.portfolio)
}

// EventCount returns the number of events without sorting anything.
func (t *Tracker) EventCount() int {
	return len(t.portfolio.Events)
}

// EventsForAsset returns events for one symbol, newest first. Symbol
// matching is case-insensitive.
func (t *Tracker) EventsForAsset(assetSymbol string) []domain.Event {
	upper := strings.ToUpper(assetSymbol)
	return t.filterNewestFirst(func(e domain.Event) bool {
		return e.Asset.Symbol == upper
	})
}

// EventsByType returns events of one type, newest first.
func (t *Tracker) EventsByType(eventType domain.EventType) []domain.Event {
	return t.filterNewestFirst(func(e domain.Event) bool {
		return e.Type == eventType
	})
}

// EventsInRange returns events with from <= date <= to, newest first.
func (t *Tracker) EventsInRange(from, to domain.Date) []domain.Event {
	return t.filterNewestFirst(func(e domain.Event) bool {
		return !e.Date.Before(from) && !e.Date.After(to)
	})
}

// EventsForAssetType returns events whose asset is of the given type,
// in internal (oldest first) order.
func (t *Tracker) EventsForAssetType(assetType domain.AssetType) []domain.Event {
	var out []domain.Event
	for _, e := range t.portfolio.Events {
		if e.Asset.Type == assetType {
			out = append(out, e)
		}
	}
	return out
}

// SearchEvents matches query against asset symbol, asset name and
// notes, case-insensitively.
func (t *Tracker) SearchEvents(query string) []domain.Event {
	q := strings.ToLower(query)
	var out []domain.Event
	for _, e := range t.portfolio.Events {
		if strings.Contains(strings.ToLower(e.Asset.Symbol), q) ||
			strings.Contains(strings.ToLower(e.Asset.Name), q) ||
			strings.Contains(strings.ToLower(e.Notes), q) {
			out = append(out, e)
		}
	}
	return out
}

// EventsSorted returns all events in the requested order. Sorting is
// stable, so equal keys keep their date order.
func (t *Tracker) EventsSorted(order domain.SortOrder) []domain.Event {
	out := make([]domain.Event, len(t.portfolio.Events))
	copy(out, t.portfolio.Events)

	var less func(i, j int) bool
	switch order {
	case domain.SortDateAsc:
		less = func(i, j int) bool { return out[i].Date.Before(out[j].Date) }
	case domain.SortAmountDesc:
		less = func(i, j int) bool { return out[i].Amount > out[j].Amount }
	case domain.SortAmountAsc:
		less = func(i, j int) bool { return out[i].Amount < out[j].Amount }
	case domain.SortAssetAsc:
		less = func(i, j int) bool { return out[i].Asset.Symbol < out[j].Asset.Symbol }
	case domain.SortAssetDesc:
		less = func(i, j int) bool { return out[i].Asset.Symbol > out[j].Asset.Symbol }
	default: // SortDateDesc
		less = func(i, j int) bool { return out[j].Date.Before(out[i].Date) }
	}
	sort.SliceStable(out, less)
	return out
}

// UniqueAssets lists every distinct asset appearing in events, sorted
// by symbol.
func (t *Tracker) UniqueAssets() []domain.Asset {
	seen := make(map[domain.AssetKey]bool)
	var assets []domain.Asset
	for _, e := range t.portfolio.Events {
		key := e.Asset.Key()
		if !seen[key] {
			seen[key] = true
			assets = append(assets, e.Asset)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Symbol < assets[j].Symbol })
	return assets
}

// EarliestEventDate returns the date of the first event, if any.
func (t *Tracker) EarliestEventDate() (domain.Date, bool) {
	if len(t.portfolio.Events) == 0 {
		return domain.Date{}, false
	}
	return t.portfolio.Events[0].Date, true
}

// LatestEventDate returns the date of the most recent event, if any.
func (t *Tracker) LatestEventDate() (domain.Date, bool) {
	if len(t.portfolio.Events) == 0 {
		return domain.Date{}, false
	}
	return t.portfolio.Events[len(t.portfolio.Events)-1].Date, true
}

// PortfolioAgeDays returns days since the first event, if any.
func (t *Tracker) PortfolioAgeDays() (int, bool) {
	first, ok := t.EarliestEventDate()
	if !ok {
		return 0, false
	}
	return first.DaysUntil(domain.Today()), true
}

// AddEvents adds a batch of events all-or-nothing: every event is
// applied to a cloned portfolio first, and only a fully valid batch
// replaces the real one. Returns the ids of the added events.
func (t *Tracker) AddEvents(events []domain.Event) ([]uuid.UUID, error) {
	temp := t.portfolio.Clone()
	ids := make([]uuid.UUID, 0, len(events))

	for _, event := range events {
		if err := t.portfolios.AddEvent(temp, event); err != nil {
			return nil, err
		}
		ids = append(ids, event.ID)
	}

	t.portfolio = temp
	t.dirty = true
	return ids, nil
}

// RemoveEvents removes a batch of events all-or-nothing.
func (t *Tracker) RemoveEvents(eventIDs []uuid.UUID) error {
	temp := t.portfolio.Clone()

	for _, id := range eventIDs {
		if err := t.portfolios.RemoveEvent(temp, id); err != nil {
			return err
		}
	}

	t.portfolio = temp
	t.dirty = true
	return nil
}

// RemoveEventToTrash removes an event but keeps it in the trash so the
// removal can be undone. Returns the removed event.
func (t *Tracker) RemoveEventToTrash(eventID uuid.UUID) (domain.Event, error) {
	event, ok := t.Event(eventID)
	if !ok {
		return domain.Event{}, &domain.EventNotFoundError{ID: eventID}
	}

	if err := t.portfolios.RemoveEvent(t.portfolio, eventID); err != nil {
		return domain.Event{}, err
	}
	t.portfolio.Trash = append(t.portfolio.Trash, event)
	t.dirty = true
	return event, nil
}

// UndoLastRemoval restores the most recently trashed event. Returns
// false when the trash is empty. A restore that no longer validates
// (for example, a sell whose buy was since removed) fails with the
// event left out of the trash.
func (t *Tracker) UndoLastRemoval() (domain.Event, bool, error) {
	n := len(t.portfolio.Trash)
	if n == 0 {
		return domain.Event{}, false, nil
	}
	event := t.portfolio.Trash[n-1]
	t.portfolio.Trash = t.portfolio.Trash[:n-1]

	if err := t.portfolios.AddEvent(t.portfolio, event); err != nil {
		return domain.Event{}, false, err
	}
	t.dirty = true
	return event, true, nil
}

// Trash returns the trashed events, oldest removal first.
func (t *Tracker) Trash() []domain.Event {
	out := make([]domain.Event, len(t.portfolio.Trash))
	copy(out, t.portfolio.Trash)
	return out
}

// ClearTrash permanently discards all trashed events.
func (t *Tracker) ClearTrash() {
	if len(t.portfolio.Trash) == 0 {
		return
	}
	t.portfolio.Trash = nil
	t.dirty = true
}

func (t *Tracker) filterNewestFirst(keep func(domain.Event) bool) []domain.Event {
	var out []domain.Event
	// Internal storage is oldest first; walk backwards for newest first.
	for i := len(t.portfolio.Events) - 1; i >= 0; i-- {
		if keep(t.portfolio.Events[i]) {
			out = append(out, t.portfolio.Events[i])
		}
	}
	return out
}
