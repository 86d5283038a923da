package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	stripe "github.com/stripe/stripe-go/v82"
	bpsession "github.com/stripe/stripe-go/v82/billingportal/session"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/complyops/compliance-gateway/internal/config"
)

var (
	// ErrNotMember means the caller does not belong to the target org.
	// Handlers translate it to HTTP 403. No Stripe call is made in this case.
	ErrNotMember = errors.New("caller is not a member of the organization")

	// ErrNotConfigured means Stripe credentials or price IDs are missing.
	ErrNotConfigured = errors.New("billing is not configured")
)

// MembershipStore is the slice of the local store billing needs.
type MembershipStore interface {
	IsMember(ctx context.Context, orgID, userID string) (bool, error)
	CustomerID(ctx context.Context, orgID string) (string, error)
	SaveCustomerID(ctx context.Context, orgID, customerID string) error
}

// PlanStatus is the client-facing billing state for one organization.
type PlanStatus struct {
	Plan             string       `json:"plan"`
	Status           string       `json:"status"`
	CurrentPeriodEnd int64        `json:"current_period_end"`
	Features         Entitlements `json:"features"`
}

// Service talks to Stripe on behalf of authenticated org members.
//
// The Stripe calls are function fields (defaulting to the real SDK) so tests
// can count and fake them without network access. The service is constructed
// once in main and injected; it is not a module-level singleton.
type Service struct {
	store MembershipStore
	cfg   config.BillingConfig
	cache *statusCache

	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	createPortalSession   func(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error)
	createCustomer        func(params *stripe.CustomerParams) (*stripe.Customer, error)
	listSubscriptions     func(customerID string) ([]*stripe.Subscription, error)
}

// NewService creates the billing service. Setting the package-level Stripe
// key here is safe: NewService runs once during startup, before any request.
func NewService(store MembershipStore, cfg config.BillingConfig) *Service {
	if key := strings.TrimSpace(cfg.StripeSecretKey); key != "" {
		stripe.Key = key
	}
	return &Service{
		store:                 store,
		cfg:                   cfg,
		cache:                 newStatusCache(config.DefaultPlanCacheEntries),
		createCheckoutSession: stripesession.New,
		createPortalSession:   bpsession.New,
		createCustomer:        customer.New,
		listSubscriptions:     listSubscriptions,
	}
}

func listSubscriptions(customerID string) ([]*stripe.Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Limit = stripe.Int64(10)

	var subs []*stripe.Subscription
	iter := subscription.List(params)
	for iter.Next() {
		subs = append(subs, iter.Subscription())
	}
	return subs, iter.Err()
}

// Configured reports whether checkout/portal can be served.
func (s *Service) Configured() bool {
	return strings.TrimSpace(s.cfg.StripeSecretKey) != "" &&
		s.cfg.ProPriceID != "" && s.cfg.BusinessPriceID != ""
}

func (s *Service) priceFor(plan Plan) string {
	switch plan {
	case PlanPro:
		return s.cfg.ProPriceID
	case PlanBusiness:
		return s.cfg.BusinessPriceID
	default:
		return ""
	}
}

func (s *Service) planForPrice(priceID string) Plan {
	switch priceID {
	case s.cfg.ProPriceID:
		return PlanPro
	case s.cfg.BusinessPriceID:
		return PlanBusiness
	default:
		return PlanFree
	}
}

// requireMember enforces local org authorization before any Stripe call.
func (s *Service) requireMember(ctx context.Context, orgID, userID string) error {
	ok, err := s.store.IsMember(ctx, orgID, userID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !ok {
		return ErrNotMember
	}
	return nil
}

// ensureCustomer returns the org's Stripe customer, creating one on first use.
func (s *Service) ensureCustomer(ctx context.Context, orgID, email string) (string, error) {
	id, err := s.store.CustomerID(ctx, orgID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{"org_id": orgID},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	cust, err := s.createCustomer(params)
	if err != nil {
		return "", fmt.Errorf("creating billing customer: %w", err)
	}
	if cust == nil || cust.ID == "" {
		return "", errors.New("billing provider returned no customer")
	}
	if err := s.store.SaveCustomerID(ctx, orgID, cust.ID); err != nil {
		return "", err
	}
	return cust.ID, nil
}

// Checkout creates a subscription checkout session for the org and returns
// the redirect URL.
func (s *Service) Checkout(ctx context.Context, userID, email, orgID string, plan Plan) (string, error) {
	if err := s.requireMember(ctx, orgID, userID); err != nil {
		return "", err
	}
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, orgID, email)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(customerID),
		SuccessURL: stripe.String(s.cfg.ReturnBaseURL + "/settings/billing?checkout=success"),
		CancelURL:  stripe.String(s.cfg.ReturnBaseURL + "/settings/billing?checkout=cancelled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.priceFor(plan)),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"org_id": orgID,
			"plan":   string(plan),
		},
	}

	sess, err := s.createCheckoutSession(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}
	if sess == nil || strings.TrimSpace(sess.URL) == "" {
		return "", errors.New("checkout session has no redirect URL")
	}

	// The subscription is about to change; drop any memoized status.
	s.cache.invalidate(orgID)
	return sess.URL, nil
}

// Portal creates a customer-portal session for the org and returns the
// redirect URL.
func (s *Service) Portal(ctx context.Context, userID, email, orgID string) (string, error) {
	if err := s.requireMember(ctx, orgID, userID); err != nil {
		return "", err
	}
	if !s.Configured() {
		return "", ErrNotConfigured
	}

	customerID, err := s.ensureCustomer(ctx, orgID, email)
	if err != nil {
		return "", err
	}

	sess, err := s.createPortalSession(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.cfg.ReturnBaseURL + "/settings/billing"),
	})
	if err != nil {
		return "", fmt.Errorf("creating portal session: %w", err)
	}
	if sess == nil || strings.TrimSpace(sess.URL) == "" {
		return "", errors.New("portal session has no redirect URL")
	}
	return sess.URL, nil
}

// Status returns the org's plan state. Results are memoized per org until an
// explicit refresh; concurrent callers for the same org share one fetch.
func (s *Service) Status(ctx context.Context, userID, orgID string, refresh bool) (PlanStatus, error) {
	if err := s.requireMember(ctx, orgID, userID); err != nil {
		return PlanStatus{}, err
	}

	return s.cache.get(orgID, refresh, func() (PlanStatus, error) {
		return s.fetchStatus(ctx, orgID)
	})
}

func (s *Service) fetchStatus(ctx context.Context, orgID string) (PlanStatus, error) {
	free := PlanStatus{
		Plan:     string(PlanFree),
		Status:   "none",
		Features: ResolvePlan(string(PlanFree)),
	}

	customerID, err := s.store.CustomerID(ctx, orgID)
	if err != nil {
		return PlanStatus{}, err
	}
	if customerID == "" {
		return free, nil
	}

	subs, err := s.listSubscriptions(customerID)
	if err != nil {
		return PlanStatus{}, fmt.Errorf("listing subscriptions: %w", err)
	}

	current := pickCurrentSubscription(subs)
	if current == nil {
		return free, nil
	}

	plan := PlanFree
	var periodEnd int64
	if current.Items != nil && len(current.Items.Data) > 0 {
		item := current.Items.Data[0]
		periodEnd = item.CurrentPeriodEnd
		if item.Price != nil {
			plan = s.planForPrice(item.Price.ID)
		}
	}

	return PlanStatus{
		Plan:             string(plan),
		Status:           string(current.Status),
		CurrentPeriodEnd: periodEnd,
		Features:         ResolvePlan(string(plan)),
	}, nil
}

// pickCurrentSubscription returns the first live subscription, or nil when
// everything is canceled/ended (which reads as the free plan).
func pickCurrentSubscription(subs []*stripe.Subscription) *stripe.Subscription {
	for _, sub := range subs {
		if sub == nil {
			continue
		}
		switch sub.Status {
		case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusPastDue:
			return sub
		}
	}
	return nil
}
