package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction tells whether a notification concerns the debited or the credited side.
type Direction string

const (
	DirectionDebit  Direction = "debit"
	DirectionCredit Direction = "credit"
)

// NotificationType is the envelope type tag for transfer notifications.
const NotificationType = "TransferNotification"

// Notification is emitted once per account touched by a committed transfer.
type Notification struct {
	ID         string          `json:"id"`
	TransferID string          `json:"transfer_id"`
	AccountID  string          `json:"account_id"`
	Direction  Direction       `json:"direction"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Envelope wraps a notification with metadata for serialization
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// SerializeNotification converts a notification to JSON bytes with envelope
func SerializeNotification(n Notification) ([]byte, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Type:      NotificationType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
}

// DeserializeNotification converts JSON bytes back to a Notification
func DeserializeNotification(data []byte) (Notification, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Notification{}, err
	}

	if envelope.Type != NotificationType {
		return Notification{}, fmt.Errorf("unknown envelope type: %s", envelope.Type)
	}

	var n Notification
	if err := json.Unmarshal(envelope.Data, &n); err != nil {
		return Notification{}, err
	}
	return n, nil
}
