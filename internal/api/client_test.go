package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/fieldcrm/internal/cache"
	"github.com/kingrea/fieldcrm/internal/fakecrm"
	"github.com/kingrea/fieldcrm/internal/listing"
	"github.com/kingrea/fieldcrm/internal/models"
)

type harness struct {
	fake     *fakecrm.Server
	client   *Client
	token    atomic.Value
	unauthed atomic.Int32
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{fake: fakecrm.New()}
	srv := httptest.NewServer(h.fake)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithReadRetries(1, time.Millisecond)}, opts...)
	client, err := New(srv.URL, opts...)
	require.NoError(t, err)
	h.client = client
	h.token.Store("")
	client.Authorize(TokenFunc(func() string { return h.token.Load().(string) }), func() {
		h.unauthed.Add(1)
		h.token.Store("")
	})
	return h
}

func (h *harness) loginAs(t *testing.T, user string) {
	t.Helper()
	h.token.Store(h.fake.IssueToken(user, time.Hour))
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	_, err := New("ftp://example.com")
	require.Error(t, err)
	_, err = New("::")
	require.Error(t, err)
}

func TestLoginAndProfile(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res, err := h.client.Login(ctx, models.Credentials{UserName: fakecrm.AdminUser, Password: fakecrm.AdminPassword})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, []string{models.RoleAdmin}, res.Roles)

	h.token.Store(res.Token)
	profile, err := h.client.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, fakecrm.AdminUser, profile.UserName)

	reqs := h.fake.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "Bearer "+res.Token, last.Auth)
	assert.NotEmpty(t, last.RequestID)
}

func TestLoginFailureDoesNotFireUnauthorizedHook(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.Login(context.Background(), models.Credentials{UserName: "admin", Password: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, "Invalid username or password", Message(err))
	assert.Zero(t, h.unauthed.Load())
}

func TestUnauthorizedFiresHook(t *testing.T) {
	h := newHarness(t)
	h.token.Store("stale")

	_, err := h.client.Orders(context.Background(), nil)
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), h.unauthed.Load())
	assert.Equal(t, "", h.token.Load())
	assert.Equal(t, 1, h.fake.Count(http.MethodGet, "/api/order"), "4xx must not be retried")
}

func TestListQueryParameters(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, fakecrm.AdminUser)
	for i, name := range [][2]string{{"Ada", "Lovelace"}, {"Alan", "Turing"}, {"Grace", "Hopper"}} {
		h.fake.SeedCustomer(models.Customer{CustomerNumber: 10001 + i, FirstName: name[0], SecondName: name[1]})
	}

	q := listing.Query{Search: " a ", SortBy: listing.SortByName, Descending: true}
	got, err := h.client.Customers(context.Background(), q.Values())
	require.NoError(t, err)

	reqs := h.fake.Requests()
	assert.Equal(t, "isDescending=true&search=a&sortBy=name", reqs[len(reqs)-1].Query)
	names := make([]string, len(got))
	for i, c := range got {
		names[i] = c.FullName()
	}
	assert.Equal(t, []string{"Grace Hopper", "Alan Turing", "Ada Lovelace"}, names)
}

func TestProblemDetailsAreParsed(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, fakecrm.AdminUser)
	h.fake.SeedCustomer(models.Customer{CustomerNumber: 12345, FirstName: "Ada", SecondName: "Lovelace"})

	_, err := h.client.CreateCustomer(context.Background(), models.CustomerInput{CustomerNumber: 12345, FirstName: "Dup", SecondName: "Licate"})
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, []string{"Customer number already exists."}, FieldErrors(err)["CustomerNumber"])
	assert.Equal(t, "One or more validation errors occurred.", apiErr.Message())
}

func TestReadsRetryOnServerErrorsWritesDoNot(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, fakecrm.AdminUser)
	ctx := context.Background()

	h.fake.FailNext(http.MethodGet, "/api/order", http.StatusServiceUnavailable)
	_, err := h.client.Orders(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.fake.Count(http.MethodGet, "/api/order"))

	h.fake.FailNext(http.MethodPost, "/api/order/delete-multiple", http.StatusInternalServerError)
	err = h.client.DeleteOrders(ctx, []int{1})
	require.Error(t, err)
	assert.Equal(t, 1, h.fake.Count(http.MethodPost, "/api/order/delete-multiple"))
}

func TestOrderLifecycleCalls(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SeedCustomer(models.Customer{CustomerNumber: 20000, FirstName: "Ada", SecondName: "Lovelace"})

	h.loginAs(t, fakecrm.AdminUser)
	created, err := h.client.CreateOrder(ctx, 20000, models.OrderInput{Title: "Boiler", Description: "Annual boiler service", Status: "Pending"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", created.CustomerFullName)

	h.loginAs(t, fakecrm.WorkerUser)
	require.NoError(t, h.client.Transition(ctx, OrderTake, created.ID))
	mine, err := h.client.MyOrders(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.True(t, mine[0].IsTaken)

	require.NoError(t, h.client.Transition(ctx, OrderComplete, created.ID))
	fresh, err := h.client.Order(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Completed", fresh.Status)

	require.Error(t, h.client.Transition(ctx, OrderAction("steal"), created.ID))

	h.loginAs(t, fakecrm.AdminUser)
	updated, err := h.client.UpdateOrderStatus(ctx, created.ID, "Pending")
	require.NoError(t, err)
	assert.Equal(t, "Pending", updated.Status)
	assert.False(t, updated.IsTaken)

	reqs := h.fake.Requests()
	paths := make([]string, 0, len(reqs))
	for _, r := range reqs {
		paths = append(paths, r.Method+" "+r.Path)
	}
	assert.Contains(t, paths, "PUT /api/order/take/1")
	assert.Contains(t, paths, "PUT /api/order/complete/1")
	assert.Contains(t, paths, "PATCH /api/order/1/update-status")
	assert.Contains(t, paths, "POST /api/order/by-number/20000")
}

func TestGenerateAndBulkDeleteCustomers(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, fakecrm.AdminUser)
	ctx := context.Background()

	require.NoError(t, h.client.GenerateCustomers(ctx, 3))
	reqs := h.fake.Requests()
	assert.Equal(t, "count=3", reqs[len(reqs)-1].Query)

	all, err := h.client.Customers(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, h.client.DeleteCustomers(ctx, []int{all[0].ID, all[1].ID}))
	reqs = h.fake.Requests()
	assert.Equal(t, "[1,2]", strings.TrimSpace(reqs[len(reqs)-1].Body))

	left, err := h.client.Customers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestCacheServesReadsUntilAWrite(t *testing.T) {
	store := cache.NewMemory()
	reg := prometheus.NewRegistry()
	h := newHarness(t, WithCache(store, time.Minute), WithRegisterer(reg))
	h.loginAs(t, fakecrm.AdminUser)
	ctx := context.Background()
	h.fake.SeedCustomer(models.Customer{CustomerNumber: 30000, FirstName: "Ada", SecondName: "Lovelace"})

	_, err := h.client.Customers(ctx, nil)
	require.NoError(t, err)
	_, err = h.client.Customers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h.fake.Count(http.MethodGet, "/api/customer"))

	require.NoError(t, h.client.GenerateCustomers(ctx, 1))
	all, err := h.client.Customers(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, h.fake.Count(http.MethodGet, "/api/customer"))

	assert.Equal(t, 1.0, counterValue(t, reg, "fieldcrm_api_cache_lookups_total", "hit"))
	assert.Equal(t, 2.0, counterValue(t, reg, "fieldcrm_api_cache_lookups_total", "miss"))
	assert.Equal(t, 2.0, counterValue(t, reg, "fieldcrm_api_requests_total", "GET", "/api/customer", "200"))
}

// counterValue sums the samples of name whose label values include all of want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want ...string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			values := map[string]bool{}
			for _, lp := range m.GetLabel() {
				values[lp.GetValue()] = true
			}
			for _, w := range want {
				if !values[w] {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestCacheIsKeyedByToken(t *testing.T) {
	store := cache.NewMemory()
	h := newHarness(t, WithCache(store, time.Minute))
	ctx := context.Background()

	h.loginAs(t, fakecrm.AdminUser)
	_, err := h.client.Orders(ctx, nil)
	require.NoError(t, err)
	h.loginAs(t, fakecrm.WorkerUser)
	_, err = h.client.Orders(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.fake.Count(http.MethodGet, "/api/order"))
}

// unreachableGeneration fails reads of the generation key the way a redis
// timeout would.
type unreachableGeneration struct {
	*cache.Memory
}

func (s unreachableGeneration) Get(ctx context.Context, key string) ([]byte, error) {
	if key == generationKey {
		return nil, context.DeadlineExceeded
	}
	return s.Memory.Get(ctx, key)
}

func TestCacheSkippedWhenGenerationUnreadable(t *testing.T) {
	mem := cache.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.Set(ctx, generationKey, []byte("newer"), 0))
	h := newHarness(t, WithCache(unreachableGeneration{mem}, time.Minute))
	h.loginAs(t, fakecrm.AdminUser)

	for i := 0; i < 2; i++ {
		_, err := h.client.Orders(ctx, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, h.fake.Count(http.MethodGet, "/api/order"))

	gen, err := mem.Get(ctx, generationKey)
	require.NoError(t, err)
	assert.Equal(t, "newer", string(gen), "an unreadable generation must not be overwritten")
}

func TestCacheSeedsGenerationOnMiss(t *testing.T) {
	mem := cache.NewMemory()
	ctx := context.Background()
	h := newHarness(t, WithCache(mem, time.Minute))
	h.loginAs(t, fakecrm.AdminUser)

	_, err := h.client.Orders(ctx, nil)
	require.NoError(t, err)
	gen, err := mem.Get(ctx, generationKey)
	require.NoError(t, err)
	assert.NotEmpty(t, gen)
}

func TestUsersAndInvite(t *testing.T) {
	h := newHarness(t)
	h.loginAs(t, fakecrm.AdminUser)
	ctx := context.Background()

	require.NoError(t, h.client.Invite(ctx, models.Invitation{Email: "new@example.com", ValidDays: 7}))
	token, ok := h.fake.Invitation("new@example.com")
	require.True(t, ok)
	require.NoError(t, h.client.Register(ctx, models.Registration{UserName: "newbie", Email: "new@example.com", Password: "pw", Token: token}))

	users, err := h.client.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	id := h.fake.UserID("newbie")
	require.NoError(t, h.client.UpdateUser(ctx, id, models.UserUpdate{UserName: "newbie", Email: "n@example.com", Roles: []string{"Worker"}}))
	u, err := h.client.User(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "n@example.com", u.Email)

	require.NoError(t, h.client.DeleteUser(ctx, id))
	_, err = h.client.User(ctx, id)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestMessageFallsBackToStatusText(t *testing.T) {
	e := newError("GET", "/x", http.StatusBadGateway, nil)
	assert.Equal(t, "Bad Gateway", e.Message())
	e = newError("GET", "/x", http.StatusBadRequest, []byte(`{"message":"nope"}`))
	assert.Equal(t, "nope", e.Message())
	assert.Equal(t, "plain", Message(errors.New("plain")))
}
