package server

import (
	"net/http"
	"time"

	billingdomain "github.com/bamahomes/sigiyoro/internal/billing/domain"
	notificationdomain "github.com/bamahomes/sigiyoro/internal/notification/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// paymentNotificationRequest is the union of the two accepted payload
// shapes. A body carrying "message" is treated as a forwarded SMS; one
// carrying "transaction_id" as a provider webhook.
type paymentNotificationRequest struct {
	Message string `json:"message"`
	Sender  string `json:"sender"`

	TransactionID string         `json:"transaction_id"`
	Amount        int64          `json:"amount"`
	Status        string         `json:"status"`
	Currency      string         `json:"currency"`
	Provider      string         `json:"provider"`
	Metadata      map[string]any `json:"metadata"`

	Timestamp *time.Time `json:"timestamp"`
}

type ingestResponse struct {
	Success bool                           `json:"success"`
	Message string                         `json:"message"`
	Data    notificationdomain.IngestResult `json:"data"`
}

func (s *Server) IngestPaymentNotification(c *gin.Context) {
	var req paymentNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	receivedAt := time.Time{}
	if req.Timestamp != nil {
		receivedAt = *req.Timestamp
	}

	var (
		result notificationdomain.IngestResult
		err    error
	)
	switch {
	case req.Message != "":
		result, err = s.notifications.IngestSMS(c.Request.Context(), notificationdomain.SMSPayload{
			Sender:     req.Sender,
			Message:    req.Message,
			ReceivedAt: receivedAt,
		})
	case req.TransactionID != "":
		result, err = s.notifications.IngestTransaction(c.Request.Context(), notificationdomain.TransactionPayload{
			TransactionID: req.TransactionID,
			Amount:        req.Amount,
			Status:        req.Status,
			Currency:      req.Currency,
			Provider:      req.Provider,
			Metadata:      req.Metadata,
			ReceivedAt:    receivedAt,
		})
	default:
		AbortWithError(c, newValidationError("payload", "invalid_payload", "either message or transaction_id is required"))
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingestResponse{
		Success: true,
		Message: ingestMessage(result),
		Data:    result,
	})
}

func ingestMessage(result notificationdomain.IngestResult) string {
	switch {
	case result.Duplicate:
		return "duplicate notification ignored"
	case result.Filtered:
		return "notification filtered"
	default:
		return "notification stored"
	}
}

type verifyPaymentRequest struct {
	UserID           *snowflake.ID `json:"user_id"`
	PlanID           *snowflake.ID `json:"plan_id"`
	PlanName         string        `json:"plan_name"`
	AmountCents      int64         `json:"amount_cents"`
	PaymentReference string        `json:"payment_reference"`
}

func (s *Server) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.UserID == nil || *req.UserID == 0 {
		AbortWithError(c, newValidationError("user_id", "required", "user_id is required"))
		return
	}
	if req.PaymentReference == "" {
		AbortWithError(c, newValidationError("payment_reference", "required", "payment_reference is required"))
		return
	}

	result, err := s.billing.Verify(c.Request.Context(), billingdomain.VerifyRequest{
		UserID:           *req.UserID,
		PlanID:           req.PlanID,
		PlanName:         req.PlanName,
		AmountCents:      req.AmountCents,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
