package models

import "time"

const (
	TierFree    = "free"
	TierPremium = "premium"
)

const (
	SubscriptionNone      = "none"
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	Role                 string    `json:"role"`
	SubscriptionTier     string    `json:"subscription_tier"`
	SubscriptionStatus   string    `json:"subscription_status"`
	StripeCustomerID     *string   `json:"-"`
	StripeSubscriptionID *string   `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// IsPremiumActive reports whether the stored subscription state grants
// premium access right now. The (premium, cancelled) pair still counts:
// it means the subscription lapses at period end.
func (u *User) IsPremiumActive() bool {
	return u.SubscriptionTier == TierPremium &&
		(u.SubscriptionStatus == SubscriptionActive || u.SubscriptionStatus == SubscriptionCancelled)
}
