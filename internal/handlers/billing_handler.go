package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/services"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/pkg/logger"
)

type billingApplicationService interface {
	HandleWebhookEvent(ctx context.Context, eventType string, object map[string]interface{}) error
	ConfirmCheckout(ctx context.Context, actorID string, sessionID string) error
	CreateCheckoutSession(ctx context.Context, user *models.User) (string, error)
	CreatePortalSession(ctx context.Context, user *models.User) (string, error)
}

type billingUserReader interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type BillingHandler struct {
	service       billingApplicationService
	userRepo      billingUserReader
	webhookSecret string
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object map[string]interface{} `json:"object"`
	} `json:"data"`
}

type paymentSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

func NewBillingHandler(
	service billingApplicationService,
	userRepo billingUserReader,
	webhookSecret string,
) *BillingHandler {
	return &BillingHandler{
		service:       service,
		userRepo:      userRepo,
		webhookSecret: webhookSecret,
	}
}

// Webhook receives signed provider events. A 4xx is reserved for genuine
// tampering (Stripe does not retry those); anything that fails inside a
// recognized event answers 500 so delivery is retried.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	payload := c.Body()

	signature := c.Get("Stripe-Signature")
	if err := services.VerifyStripeSignature(payload, signature, h.webhookSecret, time.Now()); err != nil {
		logger.Get().Warn().Err(err).Msg("stripe webhook signature rejected")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid payload"})
	}

	if err := h.service.HandleWebhookEvent(c.Context(), event.Type, event.Data.Object); err != nil {
		logger.Get().Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("stripe webhook processing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Webhook processing failed"})
	}

	return c.JSON(fiber.Map{"received": true})
}

// PaymentSuccess is the post-checkout poll endpoint. 409 means "webhook not
// landed yet, retry"; clients poll with a small fixed budget.
func (h *BillingHandler) PaymentSuccess(c *fiber.Ctx) error {
	actorID, _, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req paymentSuccessRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "sessionId is required"})
	}

	if err := h.service.ConfirmCheckout(c.Context(), actorID, req.SessionID); err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	actorID, _, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), actorID)
	if err != nil {
		return mapBillingError(c, err)
	}

	checkoutURL, err := h.service.CreateCheckoutSession(c.Context(), user)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"url": checkoutURL})
}

func (h *BillingHandler) CreatePortal(c *fiber.Ctx) error {
	actorID, _, err := actorFromLocals(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	user, err := h.userRepo.GetByID(c.Context(), actorID)
	if err != nil {
		return mapBillingError(c, err)
	}

	portalURL, err := h.service.CreatePortalSession(c.Context(), user)
	if err != nil {
		return mapBillingError(c, err)
	}

	return c.JSON(fiber.Map{"url": portalURL})
}

func mapBillingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrSessionMismatch):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Session does not belong to this account"})
	case errors.Is(err, services.ErrNotReconciled):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Subscription not active yet"})
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "No billing account yet"})
	case errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process billing request"})
	}
}
