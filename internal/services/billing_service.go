package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ZaaliAi/thelifecoachingcafe-sub002/internal/models"
	"github.com/ZaaliAi/thelifecoachingcafe-sub002/pkg/logger"
)

const stripeAPIBase = "https://api.stripe.com"

type stripeError struct {
	status int
	body   string
}

func (e *stripeError) Error() string {
	return fmt.Sprintf("stripe status %d: %s", e.status, e.body)
}

type subscriptionStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.User, error)
	UpdateSubscription(ctx context.Context, userID, tier, status string) (*models.User, error)
	ApplySubscriptionTransition(ctx context.Context, userID, tier, status string, customerID, subscriptionID *string) (*models.User, error)
}

type BillingConfig struct {
	SecretKey      string
	PremiumPriceID string
	SuccessURL     string
	CancelURL      string
	PortalURL      string
}

// BillingService reconciles stored subscription state with Stripe. The
// webhook path is the only writer of tier/status; the poll path just reads
// what the webhook already wrote.
type BillingService struct {
	users      subscriptionStore
	cfg        BillingConfig
	baseURL    string
	httpClient *http.Client
}

func NewBillingService(users subscriptionStore, cfg BillingConfig) *BillingService {
	return &BillingService{
		users:      users,
		cfg:        cfg,
		baseURL:    stripeAPIBase,
		httpClient: http.DefaultClient,
	}
}

// HandleWebhookEvent applies one provider event to the stored user record.
// Any returned error makes the handler answer 500 so Stripe redelivers;
// unrecognized event types are acknowledged without effect.
func (s *BillingService) HandleWebhookEvent(
	ctx context.Context,
	eventType string,
	object map[string]interface{},
) error {
	logger.Get().Info().
		Str("event_type", eventType).
		Msg("stripe webhook received")

	switch eventType {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, object)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, object)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, object)
	}
	return nil
}

func (s *BillingService) handleCheckoutCompleted(ctx context.Context, object map[string]interface{}) error {
	mode, _ := object["mode"].(string)
	if mode != "subscription" {
		return nil
	}

	reference, _ := object["client_reference_id"].(string)
	if reference == "" {
		// Cannot be linked to a user; never recoverable for this session.
		return ErrMissingReference
	}

	user, err := s.users.GetByID(ctx, reference)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: reference %q", ErrUnknownCustomer, reference)
		}
		return err
	}

	var customerID, subscriptionID *string
	if value, ok := object["customer"].(string); ok && value != "" {
		customerID = &value
	}
	if value, ok := object["subscription"].(string); ok && value != "" {
		subscriptionID = &value
	}

	_, err = s.users.ApplySubscriptionTransition(
		ctx, user.ID, models.TierPremium, models.SubscriptionActive, customerID, subscriptionID,
	)
	return err
}

func (s *BillingService) handleSubscriptionUpdated(ctx context.Context, object map[string]interface{}) error {
	user, err := s.userForCustomer(ctx, object)
	if err != nil {
		return err
	}

	// cancel_at_period_end keeps the tier premium; the status alone records
	// the pending lapse. Clearing the flag covers reactivation.
	status := models.SubscriptionActive
	if cancelAtPeriodEnd, _ := object["cancel_at_period_end"].(bool); cancelAtPeriodEnd {
		status = models.SubscriptionCancelled
	}

	_, err = s.users.UpdateSubscription(ctx, user.ID, models.TierPremium, status)
	return err
}

func (s *BillingService) handleSubscriptionDeleted(ctx context.Context, object map[string]interface{}) error {
	user, err := s.userForCustomer(ctx, object)
	if err != nil {
		return err
	}

	// Customer id stays so a future checkout can reuse it; only the
	// subscription id is cleared.
	_, err = s.users.ApplySubscriptionTransition(
		ctx, user.ID, models.TierFree, models.SubscriptionCancelled, user.StripeCustomerID, nil,
	)
	return err
}

func (s *BillingService) userForCustomer(ctx context.Context, object map[string]interface{}) (*models.User, error) {
	customerID, _ := object["customer"].(string)
	if customerID == "" {
		return nil, fmt.Errorf("%w: event carries no customer id", ErrUnknownCustomer)
	}

	user, err := s.users.GetByStripeCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCustomer, customerID)
		}
		return nil, err
	}
	return user, nil
}

// ConfirmCheckout is the post-redirect poll path. It verifies the session
// belongs to the caller, then answers from stored state only: the webhook
// remains the single writer, and until it lands the caller gets
// ErrNotReconciled and retries.
func (s *BillingService) ConfirmCheckout(ctx context.Context, actorID string, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidInput
	}

	session, err := s.stripeRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		var serr *stripeError
		if errors.As(err, &serr) && serr.status == http.StatusNotFound {
			return pgx.ErrNoRows
		}
		return err
	}

	reference, _ := session["client_reference_id"].(string)
	if reference != actorID {
		return ErrSessionMismatch
	}

	user, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}

	if user.SubscriptionTier == models.TierPremium && user.SubscriptionStatus == models.SubscriptionActive {
		return nil
	}
	return ErrNotReconciled
}

// CreateCheckoutSession starts a subscription-mode checkout. The internal
// user id travels as client_reference_id so the completed-event can be
// linked back without a customer lookup.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, user *models.User) (string, error) {
	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("client_reference_id", user.ID)
	form.Set("line_items[0][price]", s.cfg.PremiumPriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", s.cfg.SuccessURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", s.cfg.CancelURL)
	if user.StripeCustomerID != nil {
		form.Set("customer", *user.StripeCustomerID)
	} else {
		form.Set("customer_email", user.Email)
	}

	resp, err := s.stripeRequest(ctx, http.MethodPost, "/v1/checkout/sessions", form)
	if err != nil {
		return "", fmt.Errorf("stripe checkout creation failed: %w", err)
	}

	checkoutURL, _ := resp["url"].(string)
	if checkoutURL == "" {
		return "", fmt.Errorf("stripe checkout response missing url")
	}
	return checkoutURL, nil
}

// CreatePortalSession opens the provider-hosted subscription management
// page. Requires a stored customer id, which only exists after a completed
// checkout has been reconciled.
func (s *BillingService) CreatePortalSession(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID == nil {
		return "", ErrConflict
	}

	form := url.Values{}
	form.Set("customer", *user.StripeCustomerID)
	if s.cfg.PortalURL != "" {
		form.Set("return_url", s.cfg.PortalURL)
	}

	resp, err := s.stripeRequest(ctx, http.MethodPost, "/v1/billing_portal/sessions", form)
	if err != nil {
		return "", fmt.Errorf("stripe portal creation failed: %w", err)
	}

	portalURL, _ := resp["url"].(string)
	if portalURL == "" {
		return "", fmt.Errorf("stripe portal response missing url")
	}
	return portalURL, nil
}

func (s *BillingService) stripeRequest(
	ctx context.Context,
	method string,
	path string,
	form url.Values,
) (map[string]interface{}, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build stripe request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.cfg.SecretKey)
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read stripe response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &stripeError{status: resp.StatusCode, body: strings.TrimSpace(string(payload))}
	}

	result := make(map[string]interface{})
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode stripe response: %w", err)
	}
	return result, nil
}
