package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry kinds carried by LedgerEvent.
const (
	KindIncome  = "income"
	KindExpense = "expense"
)

// LedgerEvent announces that a ledger entry was recorded in a given month.
// Consumers reload what they need from the database.
type LedgerEvent struct {
	UserID    int64     `json:"user_id"`
	Kind      string    `json:"kind"`
	EntryID   int64     `json:"entry_id"`
	Month     int       `json:"month"`
	Year      int       `json:"year"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent builds an event for an entry that occurred at occurredAt.
func NewLedgerEvent(userID int64, kind string, entryID int64, occurredAt time.Time) *LedgerEvent {
	at := occurredAt.UTC()
	return &LedgerEvent{
		UserID:    userID,
		Kind:      kind,
		EntryID:   entryID,
		Month:     int(at.Month()),
		Year:      at.Year(),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks a message body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID <= 0 {
		return nil, fmt.Errorf("ledger event: missing user id")
	}
	if msg.Month < 1 || msg.Month > 12 {
		return nil, fmt.Errorf("ledger event: month %d out of range", msg.Month)
	}
	return &msg, nil
}
