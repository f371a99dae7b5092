package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appaccess "github.com/netpass/backend/internal/application/access"
	"github.com/netpass/backend/internal/interfaces/http/dto"
)

// NotificationHandler receives payment-provider webhooks.
// Response codes drive the provider's redelivery: 200 acknowledges, 400
// rejects a malformed payload permanently, 500 asks for a retry.
type NotificationHandler struct {
	BaseHandler
	notifications *appaccess.NotificationService
	logger        *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications *appaccess.NotificationService, logger *zap.Logger) *NotificationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger,
	}
}

// NotificationResponse acknowledges a webhook delivery
type NotificationResponse struct {
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	PaymentID string `json:"payment_id,omitempty"`
}

// Receive handles POST /api/v1/notifications/payment
func (h *NotificationHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.Error(c, 400, dto.ErrCodeBadRequest, "Failed to read request body")
		return
	}

	result, err := h.notifications.ProcessNotification(c.Request.Context(), payload)
	if err != nil {
		if errors.Is(err, appaccess.ErrNotificationRejected) {
			h.ErrorWithCode(c, dto.ErrCodeNotificationRejected, "Notification payload is invalid")
			return
		}
		// Reconciliation failed before the ledger was updated; a 500 makes
		// the provider redeliver.
		h.logger.Error("Notification processing failed", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeNotificationFailed, "Failed to process notification")
		return
	}

	h.Success(c, NotificationResponse{
		Processed: result.Processed,
		Duplicate: result.Duplicate,
		PaymentID: result.PaymentID,
	})
}
