package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// EventType distinguishes acquisitions from disposals.
type EventType string

const (
	EventTypeBuy  EventType = "Buy"
	EventTypeSell EventType = "Sell"
)

// ParseEventType converts a string to an EventType.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventTypeBuy, EventTypeSell:
		return EventType(s), nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// SortOrder selects how event listings are ordered.
type SortOrder string

const (
	SortDateDesc   SortOrder = "date_desc"
	SortDateAsc    SortOrder = "date_asc"
	SortAmountDesc SortOrder = "amount_desc"
	SortAmountAsc  SortOrder = "amount_asc"
	SortAssetAsc   SortOrder = "asset_asc"
	SortAssetDesc  SortOrder = "asset_desc"
)

// Event is a single buy/sell entry in the portfolio log.
//
// Events do not store a price. Prices are fetched from providers based
// on the event date and cached inside the portfolio for offline access.
type Event struct {
	ID     uuid.UUID `json:"id" msgpack:"id"`
	Type   EventType `json:"event_type" msgpack:"event_type"`
	Asset  Asset     `json:"asset" msgpack:"asset"`
	Amount float64   `json:"amount" msgpack:"amount"`
	Date   Date      `json:"date" msgpack:"date"`
	Notes  string    `json:"notes,omitempty" msgpack:"notes"`
}

// NewEvent creates an event with a fresh random id.
func NewEvent(eventType EventType, asset Asset, amount float64, date Date) Event {
	return Event{
		ID:     uuid.New(),
		Type:   eventType,
		Asset:  asset,
		Amount: amount,
		Date:   date,
	}
}

// NewEventWithNotes creates an event with free-text notes attached.
func NewEventWithNotes(eventType EventType, asset Asset, amount float64, date Date, notes string) Event {
	e := NewEvent(eventType, asset, amount, date)
	e.Notes = notes
	return e
}
