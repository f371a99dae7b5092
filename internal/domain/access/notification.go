package access

import (
	"encoding/json"
	"errors"
)

var (
	// ErrInvalidNotification is returned when the webhook payload fails structural validation
	ErrInvalidNotification = errors.New("notification: payload is structurally invalid")
)

// NotificationTypePayment is the only notification type that triggers reconciliation
const NotificationTypePayment = "payment"

// PaymentNotification is the inbound webhook payload from the payment provider.
// It carries only a reference; the authoritative payment state is fetched from
// the gateway during reconciliation.
type PaymentNotification struct {
	Action string           `json:"action"`
	Type   string           `json:"type"`
	Data   NotificationData `json:"data"`
}

// NotificationData holds the payment reference of the notification
type NotificationData struct {
	ID string `json:"id"`
}

// ParsePaymentNotification decodes and structurally validates a webhook body.
// This is a pure check with no side effects: malformed JSON, a missing type,
// a missing action, or a missing payment identifier all fail validation.
func ParsePaymentNotification(payload []byte) (*PaymentNotification, error) {
	var n PaymentNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, ErrInvalidNotification
	}
	if n.Action == "" || n.Type == "" || n.Data.ID == "" {
		return nil, ErrInvalidNotification
	}
	return &n, nil
}

// IsPayment reports whether the notification concerns a payment.
// Other types are acknowledged and ignored.
func (n *PaymentNotification) IsPayment() bool {
	return n.Type == NotificationTypePayment
}

// PaymentID returns the provider-assigned payment reference
func (n *PaymentNotification) PaymentID() string {
	return n.Data.ID
}
