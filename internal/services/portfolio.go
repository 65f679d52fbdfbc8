package services

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"svtk/internal/domain"
)

// holdingEpsilon filters floating point dust when deciding whether a
// position still exists after buys and sells cancel out.
const holdingEpsilon = 1e-15

// PortfolioService manages the buy/sell event log and derives holdings.
// Pure business logic with no I/O, so it is trivially testable.
type PortfolioService struct{}

// NewPortfolioService creates a portfolio service.
func NewPortfolioService() *PortfolioService {
	return &PortfolioService{}
}

// AddEvent validates and inserts an event, keeping the log sorted by
// date. Events on the same date keep insertion order.
func (s *PortfolioService) AddEvent(p *domain.Portfolio, event domain.Event) error {
	if err := s.validateEvent(p, event); err != nil {
		return err
	}
	binaryInsert(&p.Events, event)
	return nil
}

// RemoveEvent deletes an event by id. Removing a buy can strand later
// sells, so the whole log is resimulated; on failure the event is
// reinserted and the error returned.
func (s *PortfolioService) RemoveEvent(p *domain.Portfolio, eventID uuid.UUID) error {
	idx := eventIndex(p.Events, eventID)
	if idx < 0 {
		return &domain.EventNotFoundError{ID: eventID}
	}

	removed := p.Events[idx]
	p.Events = append(p.Events[:idx], p.Events[idx+1:]...)

	if removed.Type == domain.EventTypeBuy {
		if err := s.validateConsistency(p, removed.Date); err != nil {
			binaryInsert(&p.Events, removed)
			return err
		}
	}
	return nil
}

// UpdateEvent replaces an event's type, asset, amount and date while
// preserving its id and notes. The update is all-or-nothing: if the new
// state fails validation the original event is restored.
func (s *PortfolioService) UpdateEvent(p *domain.Portfolio, eventID uuid.UUID, eventType domain.EventType, asset domain.Asset, amount float64, date domain.Date) error {
	idx := eventIndex(p.Events, eventID)
	if idx < 0 {
		return &domain.EventNotFoundError{ID: eventID}
	}

	old := p.Events[idx]
	p.Events = append(p.Events[:idx], p.Events[idx+1:]...)

	updated := domain.Event{
		ID:     old.ID,
		Type:   eventType,
		Asset:  asset,
		Amount: amount,
		Date:   date,
		Notes:  old.Notes,
	}

	if err := s.validateEvent(p, updated); err != nil {
		binaryInsert(&p.Events, old)
		return err
	}
	binaryInsert(&p.Events, updated)

	checkFrom := date
	if len(p.Events) > 0 {
		checkFrom = p.Events[0].Date
	}
	if err := s.validateConsistency(p, checkFrom); err != nil {
		if newIdx := eventIndex(p.Events, old.ID); newIdx >= 0 {
			p.Events = append(p.Events[:newIdx], p.Events[newIdx+1:]...)
		}
		binaryInsert(&p.Events, old)
		return err
	}
	return nil
}

// SetNotes sets or clears the notes on an existing event.
func (s *PortfolioService) SetNotes(p *domain.Portfolio, eventID uuid.UUID, notes string) error {
	idx := eventIndex(p.Events, eventID)
	if idx < 0 {
		return &domain.EventNotFoundError{ID: eventID}
	}
	p.Events[idx].Notes = notes
	return nil
}

// Events returns the event log sorted newest first for display.
func (s *PortfolioService) Events(p *domain.Portfolio) []domain.Event {
	out := make([]domain.Event, len(p.Events))
	copy(out, p.Events)
	sort.SliceStable(out, func(i, j int) bool { return out[j].Date.Before(out[i].Date) })
	return out
}

// Holdings folds the event log up to and including date into per-asset
// positions. Only positive positions are returned.
func (s *PortfolioService) Holdings(p *domain.Portfolio, date domain.Date) domain.Holdings {
	holdings := make(domain.Holdings)

	for _, event := range p.Events {
		if event.Date.After(date) {
			continue
		}
		key := event.Asset.Key()
		h := holdings[key]
		h.Asset = event.Asset
		switch event.Type {
		case domain.EventTypeBuy:
			h.Amount += event.Amount
		case domain.EventTypeSell:
			h.Amount -= event.Amount
		}
		holdings[key] = h
	}

	for key, h := range holdings {
		if h.Amount <= holdingEpsilon {
			delete(holdings, key)
		}
	}
	return holdings
}

// validateEvent checks an event before it enters the log: the amount
// must be positive, the date no later than tomorrow, and sells must be
// covered by holdings on their date.
func (s *PortfolioService) validateEvent(p *domain.Portfolio, event domain.Event) error {
	if event.Amount <= 0 {
		return &domain.ValidationError{Reason: "event amount must be positive"}
	}

	tomorrow := domain.Today().AddDays(1)
	if event.Date.After(tomorrow) {
		return &domain.ValidationError{
			Reason: fmt.Sprintf("event date %s is in the future, prices won't be available", event.Date),
		}
	}

	if event.Type == domain.EventTypeSell {
		holdings := s.Holdings(p, event.Date)
		held := holdings[event.Asset.Key()].Amount
		if held < event.Amount {
			return &domain.ValidationError{
				Reason: fmt.Sprintf("cannot sell %v %s, only %v held on %s", event.Amount, event.Asset.Symbol, held, event.Date),
			}
		}
	}
	return nil
}

// validateConsistency replays the full log and rejects any sell on or
// after fromDate that would drive a position negative.
func (s *PortfolioService) validateConsistency(p *domain.Portfolio, fromDate domain.Date) error {
	holdings := make(map[domain.AssetKey]float64)

	for _, event := range p.Events {
		key := event.Asset.Key()
		switch event.Type {
		case domain.EventTypeBuy:
			holdings[key] += event.Amount
		case domain.EventTypeSell:
			if !event.Date.Before(fromDate) && holdings[key] < event.Amount {
				return &domain.ValidationError{
					Reason: fmt.Sprintf("change would make sell of %v %s on %s invalid (only %.8f would be held)",
						event.Amount, event.Asset.Symbol, event.Date, holdings[key]),
				}
			}
			holdings[key] -= event.Amount
		}
	}
	return nil
}

// binaryInsert inserts into a date-sorted slice, placing equal dates
// after existing ones.
func binaryInsert(events *[]domain.Event, event domain.Event) {
	pos := sort.Search(len(*events), func(i int) bool {
		return (*events)[i].Date.After(event.Date)
	})
	*events = append(*events, domain.Event{})
	copy((*events)[pos+1:], (*events)[pos:])
	(*events)[pos] = event
}

func eventIndex(events []domain.Event, id uuid.UUID) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}
