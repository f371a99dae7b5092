package gateway

import "github.com/shopspring/decimal"

// mpCreatePaymentRequest is the POST /v1/payments body
type mpCreatePaymentRequest struct {
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	Description       string          `json:"description,omitempty"`
	PaymentMethodID   string          `json:"payment_method_id"`
	Token             string          `json:"token,omitempty"`
	Installments      int             `json:"installments"`
	Payer             mpPayer         `json:"payer"`
}

type mpPayer struct {
	Email          string           `json:"email"`
	Identification mpIdentification `json:"identification"`
}

type mpIdentification struct {
	Type   string `json:"type"`
	Number string `json:"number"`
}

// mpPaymentResponse is the provider's payment representation. The provider
// assigns numeric payment ids; the rest of the system treats them as opaque
// strings.
type mpPaymentResponse struct {
	ID                 int64                 `json:"id"`
	Status             string                `json:"status"`
	StatusDetail       string                `json:"status_detail"`
	TransactionAmount  decimal.Decimal       `json:"transaction_amount"`
	DateCreated        string                `json:"date_created"`
	PointOfInteraction *mpPointOfInteraction `json:"point_of_interaction,omitempty"`
}

type mpPointOfInteraction struct {
	TransactionData mpTransactionData `json:"transaction_data"`
}

type mpTransactionData struct {
	QRCode       string `json:"qr_code"`
	QRCodeBase64 string `json:"qr_code_base64"`
}

// mpPaymentMethodSearchResponse is the GET /v1/payment_methods/search body
type mpPaymentMethodSearchResponse struct {
	Results []mpPaymentMethod `json:"results"`
}

type mpPaymentMethod struct {
	ID            string `json:"id"`
	PaymentTypeID string `json:"payment_type_id"`
	Status        string `json:"status"`
}
