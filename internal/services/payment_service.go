package services

import (
	"strings"

	"github.com/aureliahotels/booking-backend/internal/config"
	"github.com/aureliahotels/booking-backend/internal/database"
	"github.com/aureliahotels/booking-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GatewayIntent is the processor-neutral view of a payment intent
type GatewayIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64
	Currency     string
	ChargeID     *string
	CardBrand    *string
	CardLast4    *string
	FailureCode  *string
	FailureMsg   *string
	BookingID    string // carried in processor metadata
}

// GatewayRefund is the processor-neutral view of a refund
type GatewayRefund struct {
	ID       string
	ChargeID string
	Amount   int64
	Status   string
}

// GatewayEvent is a verified webhook event from the processor
type GatewayEvent struct {
	ID     string
	Type   string
	Intent *GatewayIntent
	Refund *GatewayRefund
}

// PaymentGateway abstracts the card processor so the reconciliation logic
// can be exercised without network calls.
type PaymentGateway interface {
	CreateIntent(amount int64, currency string, metadata map[string]string) (*GatewayIntent, error)
	ConfirmIntent(intentID, paymentMethodRef string) (*GatewayIntent, error)
	CreateRefund(chargeID string, amount *int64, reason *string) (*GatewayRefund, error)
	VerifyWebhook(payload []byte, signature string) (*GatewayEvent, error)
}

// PaymentService keeps booking money state consistent with the card
// processor: intent creation guards the charge amount against the booking
// total, confirmation is idempotent, and webhooks are verified and
// deduplicated before they mutate anything.
type PaymentService struct {
	paymentRepo *database.PaymentRepository
	bookingRepo *database.BookingRepository
	bookingSvc  *BookingService
	gateway     PaymentGateway
	bookingCfg  config.BookingConfig
	logger      *logrus.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo *database.PaymentRepository,
	bookingRepo *database.BookingRepository,
	bookingSvc *BookingService,
	gateway PaymentGateway,
	bookingCfg config.BookingConfig,
	logger *logrus.Logger,
) *PaymentService {
	return &PaymentService{
		paymentRepo: paymentRepo,
		bookingRepo: bookingRepo,
		bookingSvc:  bookingSvc,
		gateway:     gateway,
		bookingCfg:  bookingCfg,
		logger:      logger,
	}
}

// CreateIntent opens a payment intent for a pending booking. The requested
// amount must equal the booking total, or the configured deposit fraction
// when deposit confirmation is enabled; anything else is AMOUNT_MISMATCH.
func (s *PaymentService) CreateIntent(req *models.CreateIntentRequest) (*models.CreateIntentResponse, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, models.NewValidationError("booking_id must be a valid uuid")
	}

	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if booking == nil {
		return nil, models.NewNotFoundError("booking")
	}
	if booking.Status != models.BookingStatusPending {
		return nil, models.NewInvalidStateError(booking.Status, "take payment for")
	}

	if !strings.EqualFold(req.Currency, booking.Currency) {
		return nil, models.NewAmountMismatchError(booking.TotalAmount, req.Amount, booking.Currency)
	}
	if err := s.checkAmount(booking, req.Amount); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(req.Amount, booking.Currency, map[string]string{
		"booking_id":        booking.ID.String(),
		"confirmation_code": booking.ConfirmationCode,
	})
	if err != nil {
		return nil, err
	}

	payment := &models.Payment{
		BookingID: booking.ID,
		IntentID:  intent.ID,
		Amount:    req.Amount,
		Currency:  booking.Currency,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"payment_id": payment.ID,
		"intent_id":  intent.ID,
		"amount":     req.Amount,
		"currency":   booking.Currency,
	}).Info("Payment intent created")

	return &models.CreateIntentResponse{
		PaymentID:    payment.ID,
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       req.Amount,
		Currency:     booking.Currency,
	}, nil
}

// checkAmount enforces the amount guard at intent-creation time. The only
// acceptable amounts are the booking total and, when enabled, the deposit
// fraction of it.
func (s *PaymentService) checkAmount(booking *models.Booking, amount int64) error {
	if amount == booking.TotalAmount {
		return nil
	}
	if s.bookingCfg.AllowDepositConfirm {
		deposit := booking.TotalAmount * int64(s.bookingCfg.DepositPercent) / 100
		if amount == deposit {
			return nil
		}
	}
	return models.NewAmountMismatchError(booking.TotalAmount, amount, booking.Currency)
}

// ConfirmIntent drives the processor-side confirmation and, on success,
// the booking confirmation. Re-confirming a settled intent returns the
// stored result without charging again.
func (s *PaymentService) ConfirmIntent(req *models.ConfirmIntentRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByIntentID(req.IntentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment intent")
	}

	switch payment.Status {
	case models.PaymentStatusSucceeded:
		return payment, nil
	case models.PaymentStatusFailed, models.PaymentStatusRefunded:
		code := "intent_closed"
		return nil, models.NewPaymentError(code, "payment intent is no longer confirmable")
	}

	intent, err := s.gateway.ConfirmIntent(req.IntentID, req.PaymentMethodRef)
	if err != nil {
		appErr := models.AsAppError(err)
		if appErr.Code == models.ErrCodePayment {
			failureCode := string(appErr.Code)
			failureMsg := appErr.Message
			if markErr := s.paymentRepo.MarkFailed(req.IntentID, &failureCode, &failureMsg); markErr != nil {
				s.logger.WithError(markErr).WithField("intent_id", req.IntentID).Error("Failed to record payment failure")
			}
		}
		return nil, err
	}

	return s.applyIntentSucceeded(intent)
}

// applyIntentSucceeded records a successful charge and confirms the
// booking. Shared by synchronous confirmation and the webhook path, and
// idempotent on both.
func (s *PaymentService) applyIntentSucceeded(intent *GatewayIntent) (*models.Payment, error) {
	chargeID := ""
	if intent.ChargeID != nil {
		chargeID = *intent.ChargeID
	}
	if _, err := s.paymentRepo.MarkSucceeded(intent.ID, chargeID, intent.CardBrand, intent.CardLast4); err != nil {
		return nil, models.NewInternalError(err)
	}

	payment, err := s.paymentRepo.GetByIntentID(intent.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment intent")
	}

	if _, err := s.bookingSvc.Confirm(payment.BookingID, intent.ID); err != nil {
		return nil, err
	}
	if err := s.bookingRepo.MarkPaymentStatus(payment.BookingID, models.BookingPaymentPaid); err != nil {
		return nil, models.NewInternalError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": payment.BookingID,
		"intent_id":  intent.ID,
		"charge_id":  chargeID,
		"amount":     payment.Amount,
	}).Info("Payment succeeded")

	return payment, nil
}

// HandleWebhook verifies the delivery signature, deduplicates by event id,
// and applies the event. At-least-once delivery makes duplicates routine,
// not errors: a duplicate acknowledges without applying. When applying
// fails the event id is unrecorded again so the processor's retry is not
// swallowed by the dedup check.
func (s *PaymentService) HandleWebhook(payload []byte, signature string) (*models.WebhookOutcome, error) {
	event, err := s.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		return nil, err
	}

	firstSeen, err := s.paymentRepo.RecordWebhookEvent(event.ID, event.Type)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	outcome := &models.WebhookOutcome{EventID: event.ID, EventType: event.Type, Duplicate: !firstSeen}
	if !firstSeen {
		s.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Info("Duplicate webhook delivery acknowledged")
		return outcome, nil
	}

	if err := s.applyWebhookEvent(event, outcome); err != nil {
		if delErr := s.paymentRepo.DeleteWebhookEvent(event.ID); delErr != nil {
			s.logger.WithFields(logrus.Fields{
				"event_id":   event.ID,
				"event_type": event.Type,
				"error":      delErr.Error(),
			}).Error("Failed to unrecord webhook event after apply failure")
		}
		return nil, err
	}

	return outcome, nil
}

func (s *PaymentService) applyWebhookEvent(event *GatewayEvent, outcome *models.WebhookOutcome) error {
	switch event.Type {
	case "payment_intent.succeeded":
		if event.Intent == nil {
			return nil
		}
		if _, err := s.applyIntentSucceeded(event.Intent); err != nil {
			return err
		}
		outcome.Applied = true
	case "payment_intent.payment_failed":
		if event.Intent == nil {
			return nil
		}
		if err := s.paymentRepo.MarkFailed(event.Intent.ID, event.Intent.FailureCode, event.Intent.FailureMsg); err != nil {
			return models.NewInternalError(err)
		}
		outcome.Applied = true
	case "charge.refunded":
		if event.Refund == nil {
			return nil
		}
		if err := s.applyRefund(event.Refund); err != nil {
			return err
		}
		outcome.Applied = true
	default:
		s.logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
		}).Debug("Ignoring unhandled webhook event type")
	}
	return nil
}

// CreateRefund issues a refund against a settled charge. Refunding is an
// administrative money operation and deliberately does not cancel the
// booking or release inventory.
func (s *PaymentService) CreateRefund(req *models.RefundRequest) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByChargeID(req.ChargeID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if payment == nil {
		return nil, models.NewNotFoundError("charge")
	}
	if payment.Status == models.PaymentStatusRefunded {
		return payment, nil
	}
	if payment.Status != models.PaymentStatusSucceeded {
		return nil, models.NewPaymentError("charge_not_settled", "only a succeeded charge can be refunded")
	}
	if req.Amount != nil && (*req.Amount < 1 || *req.Amount > payment.Amount) {
		return nil, models.NewValidationError("refund amount must be between 1 and %d", payment.Amount)
	}

	refund, err := s.gateway.CreateRefund(req.ChargeID, req.Amount, req.Reason)
	if err != nil {
		return nil, err
	}

	return s.applyRefundRecord(payment, refund)
}

// applyRefund is the webhook-driven counterpart of CreateRefund
func (s *PaymentService) applyRefund(refund *GatewayRefund) error {
	payment, err := s.paymentRepo.GetByChargeID(refund.ChargeID)
	if err != nil {
		return models.NewInternalError(err)
	}
	if payment == nil {
		s.logger.WithField("charge_id", refund.ChargeID).Warn("Refund event for unknown charge")
		return nil
	}
	_, err = s.applyRefundRecord(payment, refund)
	return err
}

func (s *PaymentService) applyRefundRecord(payment *models.Payment, refund *GatewayRefund) (*models.Payment, error) {
	marked, err := s.paymentRepo.MarkRefunded(refund.ChargeID, refund.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if marked {
		if err := s.bookingRepo.MarkPaymentStatus(payment.BookingID, models.BookingPaymentRefunded); err != nil {
			return nil, models.NewInternalError(err)
		}
		s.logger.WithFields(logrus.Fields{
			"booking_id": payment.BookingID,
			"charge_id":  refund.ChargeID,
			"refund_id":  refund.ID,
			"amount":     refund.Amount,
		}).Info("Refund recorded")
	}
	return s.paymentRepo.GetByChargeID(refund.ChargeID)
}

// GetByIntentID returns the payment for an intent id or NOT_FOUND
func (s *PaymentService) GetByIntentID(intentID string) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByIntentID(intentID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if payment == nil {
		return nil, models.NewNotFoundError("payment intent")
	}
	return payment, nil
}
