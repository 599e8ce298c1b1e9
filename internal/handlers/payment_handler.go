package handlers

import (
	"io"

	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/aureliahotels/booking-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxWebhookBody bounds how much of a webhook delivery is read before
// signature verification.
const maxWebhookBody = 1 << 16

// PaymentHandler handles payment HTTP requests
type PaymentHandler struct {
	paymentService *services.PaymentService
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, logger: logger}
}

// CreateIntent opens a payment intent for a pending booking
// @Summary Create a payment intent
// @Description Open a processor payment intent; the amount must match the booking total or configured deposit
// @Tags Payments
// @Accept json
// @Produce json
// @Param intentRequest body models.CreateIntentRequest true "Intent details"
// @Success 201 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /payments/intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req models.CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.paymentService.CreateIntent(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, resp)
}

// ConfirmIntent drives processor-side confirmation of an intent
// @Summary Confirm a payment intent
// @Description Confirm the charge; an already-settled intent returns the stored result
// @Tags Payments
// @Accept json
// @Produce json
// @Param confirmRequest body models.ConfirmIntentRequest true "Confirmation details"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /payments/confirm [post]
func (h *PaymentHandler) ConfirmIntent(c *gin.Context) {
	var req models.ConfirmIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.paymentService.ConfirmIntent(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, payment)
}

// Webhook receives processor event deliveries. The raw body is required
// for signature verification, so this handler never binds JSON.
// @Summary Processor webhook
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, models.NewValidationError("failed to read webhook body"))
		return
	}

	outcome, err := h.paymentService.HandleWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, outcome)
}

// Refund issues a refund against a settled charge (admin only)
// @Summary Refund a charge
// @Description Refund money without touching the booking lifecycle
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param refundRequest body models.RefundRequest true "Refund details"
// @Success 200 {object} APIResponse
// @Failure 400 {object} APIResponse
// @Router /admin/payments/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	var req models.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	actor := "admin"
	if email, exists := c.Get("admin_email"); exists {
		if s, ok := email.(string); ok {
			actor = s
		}
	}

	payment, err := h.paymentService.CreateRefund(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"charge_id": req.ChargeID,
		"actor":     actor,
	}).Info("Refund issued")

	respondOK(c, payment)
}

// GetIntent returns the payment record for an intent id
// @Summary Get payment status
// @Tags Payments
// @Produce json
// @Param intent_id path string true "Intent ID"
// @Success 200 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Router /payments/{intent_id} [get]
func (h *PaymentHandler) GetIntent(c *gin.Context) {
	payment, err := h.paymentService.GetByIntentID(c.Param("intent_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, payment)
}
