package protocol

import (
	"encoding/json"
	"time"
)

// AlertMessage is the wire format for threshold alerts handed to the
// notification service.
type AlertMessage struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Threshold   float64   `json:"threshold"`
	Email       string    `json:"email"`
	ThresholdID string    `json:"threshold_id"`
	TriggeredAt time.Time `json:"triggered_at"`
}

// EncodeAlertMessage encodes an AlertMessage to JSON
func EncodeAlertMessage(msg *AlertMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeAlertMessage decodes JSON to AlertMessage
func DecodeAlertMessage(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
