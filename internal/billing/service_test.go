package billing

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/complyops/compliance-gateway/internal/config"
)

type fakeStore struct {
	mu        sync.Mutex
	members   map[string]bool
	customers map[string]string
	saves     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{members: map[string]bool{}, customers: map[string]string{}}
}

func (f *fakeStore) IsMember(_ context.Context, orgID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.members[orgID+"|"+userID], nil
}

func (f *fakeStore) CustomerID(_ context.Context, orgID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.customers[orgID], nil
}

func (f *fakeStore) SaveCustomerID(_ context.Context, orgID, customerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[orgID] = customerID
	f.saves++
	return nil
}

func testBillingConfig() config.BillingConfig {
	return config.BillingConfig{
		StripeSecretKey: "sk_test_fake",
		ProPriceID:      "price_pro",
		BusinessPriceID: "price_biz",
		ReturnBaseURL:   "https://app.example.com",
	}
}

// stripeCounters replaces the SDK calls with counted fakes.
type stripeCounters struct {
	checkouts, portals, customers, lists int
}

func newTestService(store MembershipStore, cfg config.BillingConfig) (*Service, *stripeCounters) {
	svc := NewService(store, cfg)
	c := &stripeCounters{}
	svc.createCheckoutSession = func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		c.checkouts++
		return &stripe.CheckoutSession{URL: "https://checkout.stripe.com/c/sess_1"}, nil
	}
	svc.createPortalSession = func(params *stripe.BillingPortalSessionParams) (*stripe.BillingPortalSession, error) {
		c.portals++
		return &stripe.BillingPortalSession{URL: "https://billing.stripe.com/p/sess_1"}, nil
	}
	svc.createCustomer = func(params *stripe.CustomerParams) (*stripe.Customer, error) {
		c.customers++
		return &stripe.Customer{ID: "cus_123"}, nil
	}
	svc.listSubscriptions = func(customerID string) ([]*stripe.Subscription, error) {
		c.lists++
		return nil, nil
	}
	return svc, c
}

func proSubscription(priceID string, status stripe.SubscriptionStatus) *stripe.Subscription {
	return &stripe.Subscription{
		Status: status,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{
					CurrentPeriodEnd: 1757000000,
					Price:            &stripe.Price{ID: priceID},
				},
			},
		},
	}
}

func TestCheckoutNonMemberMakesNoStripeCalls(t *testing.T) {
	svc, counters := newTestService(newFakeStore(), testBillingConfig())

	_, err := svc.Checkout(context.Background(), "user-1", "u@example.com", "org-1", PlanPro)

	require.ErrorIs(t, err, ErrNotMember)
	assert.Zero(t, counters.checkouts)
	assert.Zero(t, counters.customers)
}

func TestCheckoutCreatesCustomerOnce(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	svc, counters := newTestService(store, testBillingConfig())

	url, err := svc.Checkout(context.Background(), "user-1", "u@example.com", "org-1", PlanPro)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/sess_1", url)
	assert.Equal(t, 1, counters.customers)
	assert.Equal(t, "cus_123", store.customers["org-1"])

	// Second checkout reuses the stored customer.
	_, err = svc.Checkout(context.Background(), "user-1", "u@example.com", "org-1", PlanBusiness)
	require.NoError(t, err)
	assert.Equal(t, 1, counters.customers, "stored customer must be reused")
	assert.Equal(t, 2, counters.checkouts)
}

func TestCheckoutUnconfigured(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	svc, counters := newTestService(store, config.BillingConfig{})

	_, err := svc.Checkout(context.Background(), "user-1", "u@example.com", "org-1", PlanPro)

	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, counters.checkouts)
}

func TestPortal(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_existing"
	svc, counters := newTestService(store, testBillingConfig())

	url, err := svc.Portal(context.Background(), "user-1", "u@example.com", "org-1")

	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/sess_1", url)
	assert.Equal(t, 1, counters.portals)
	assert.Zero(t, counters.customers, "existing customer must be reused")
}

func TestStatusWithoutCustomerIsFree(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	svc, counters := newTestService(store, testBillingConfig())

	st, err := svc.Status(context.Background(), "user-1", "org-1", false)

	require.NoError(t, err)
	assert.Equal(t, "free", st.Plan)
	assert.Equal(t, "none", st.Status)
	assert.Zero(t, st.CurrentPeriodEnd)
	assert.Zero(t, counters.lists, "no customer means no subscription lookup")
}

func TestStatusMapsActiveSubscription(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_123"
	svc, _ := newTestService(store, testBillingConfig())
	svc.listSubscriptions = func(string) ([]*stripe.Subscription, error) {
		return []*stripe.Subscription{proSubscription("price_pro", stripe.SubscriptionStatusActive)}, nil
	}

	st, err := svc.Status(context.Background(), "user-1", "org-1", false)

	require.NoError(t, err)
	assert.Equal(t, "pro", st.Plan)
	assert.Equal(t, "active", st.Status)
	assert.EqualValues(t, 1757000000, st.CurrentPeriodEnd)
	assert.True(t, st.Features.Integrations)
}

func TestStatusUnknownPriceFailsClosedToFree(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_123"
	svc, _ := newTestService(store, testBillingConfig())
	svc.listSubscriptions = func(string) ([]*stripe.Subscription, error) {
		return []*stripe.Subscription{proSubscription("price_retired", stripe.SubscriptionStatusActive)}, nil
	}

	st, err := svc.Status(context.Background(), "user-1", "org-1", false)

	require.NoError(t, err)
	assert.Equal(t, "free", st.Plan)
	assert.False(t, st.Features.Exports)
}

func TestStatusSkipsCanceledSubscriptions(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_123"
	svc, _ := newTestService(store, testBillingConfig())
	svc.listSubscriptions = func(string) ([]*stripe.Subscription, error) {
		return []*stripe.Subscription{
			proSubscription("price_pro", stripe.SubscriptionStatusCanceled),
			proSubscription("price_biz", stripe.SubscriptionStatusTrialing),
		}, nil
	}

	st, err := svc.Status(context.Background(), "user-1", "org-1", false)

	require.NoError(t, err)
	assert.Equal(t, "business", st.Plan)
	assert.Equal(t, "trialing", st.Status)
}

func TestStatusIsMemoizedUntilRefresh(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_123"
	svc, _ := newTestService(store, testBillingConfig())

	fetches := 0
	svc.listSubscriptions = func(string) ([]*stripe.Subscription, error) {
		fetches++
		return []*stripe.Subscription{proSubscription("price_pro", stripe.SubscriptionStatusActive)}, nil
	}

	for i := 0; i < 3; i++ {
		_, err := svc.Status(context.Background(), "user-1", "org-1", false)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fetches, "repeat reads must come from the memo")

	_, err := svc.Status(context.Background(), "user-1", "org-1", true)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "refresh must bypass the memo")
}

func TestCheckoutInvalidatesStatusMemo(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_123"
	svc, _ := newTestService(store, testBillingConfig())

	fetches := 0
	svc.listSubscriptions = func(string) ([]*stripe.Subscription, error) {
		fetches++
		return nil, nil
	}

	_, err := svc.Status(context.Background(), "user-1", "org-1", false)
	require.NoError(t, err)
	require.Equal(t, 1, fetches)

	_, err = svc.Checkout(context.Background(), "user-1", "u@example.com", "org-1", PlanPro)
	require.NoError(t, err)

	_, err = svc.Status(context.Background(), "user-1", "org-1", false)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "checkout must drop the memoized status")
}

func TestConcurrentStatusSharesOneFetch(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	store.customers["org-1"] = "cus_123"
	svc, _ := newTestService(store, testBillingConfig())

	var mu sync.Mutex
	fetches := 0
	gate := make(chan struct{})
	svc.listSubscriptions = func(string) ([]*stripe.Subscription, error) {
		mu.Lock()
		fetches++
		mu.Unlock()
		<-gate
		return nil, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := svc.Status(context.Background(), "user-1", "org-1", false)
			assert.NoError(t, err)
		}()
	}
	close(start)
	close(gate)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, fetches, 2, "concurrent readers must share in-flight fetches")
}

func TestCheckoutNilCustomerIsACleanError(t *testing.T) {
	store := newFakeStore()
	store.members["org-1|user-1"] = true
	svc, counters := newTestService(store, testBillingConfig())
	svc.createCustomer = func(*stripe.CustomerParams) (*stripe.Customer, error) {
		return nil, nil
	}

	_, err := svc.Checkout(context.Background(), "user-1", "u@example.com", "org-1", PlanPro)

	require.Error(t, err)
	assert.Equal(t, "billing provider returned no customer", err.Error())
	assert.NotContains(t, err.Error(), "%!w", "nil errors must not be wrapped")
	assert.Equal(t, 0, counters.checkouts, "no checkout session without a customer")
}
