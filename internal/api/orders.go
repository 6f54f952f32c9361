package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kingrea/fieldcrm/internal/models"
)

// OrderAction names the per-order state transitions exposed as
// PUT /api/order/{action}/{id}.
type OrderAction string

const (
	OrderTake     OrderAction = "take"
	OrderRelease  OrderAction = "release"
	OrderComplete OrderAction = "complete"
	OrderCancel   OrderAction = "cancel"
)

// Orders lists all orders; query carries search, sortBy and isDescending.
func (c *Client) Orders(ctx context.Context, query url.Values) ([]models.Order, error) {
	var out []models.Order
	err := c.get(ctx, "/api/order", "/api/order", query, &out)
	return out, err
}

// MyOrders lists the orders the caller has taken.
func (c *Client) MyOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.get(ctx, "/api/order/my-orders", "/api/order/my-orders", nil, &out)
	return out, err
}

// Order fetches one order, bypassing the cache so a detail refresh always
// reflects the service.
func (c *Client) Order(ctx context.Context, id int) (models.Order, error) {
	var out models.Order
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/order/{id}", path: orderPath(id), fresh: true}, &out)
	return out, err
}

func (c *Client) OrdersByCustomer(ctx context.Context, customerNumber int) ([]models.Order, error) {
	var out []models.Order
	err := c.get(ctx, "/api/order/by-customer/{number}", "/api/order/by-customer/"+strconv.Itoa(customerNumber), nil, &out)
	return out, err
}

// CreateOrder adds an order to the customer with the given number.
func (c *Client) CreateOrder(ctx context.Context, customerNumber int, in models.OrderInput) (models.Order, error) {
	var out models.Order
	err := c.send(ctx, http.MethodPost, "/api/order/by-number/{number}", "/api/order/by-number/"+strconv.Itoa(customerNumber), in, &out)
	return out, err
}

func (c *Client) UpdateOrder(ctx context.Context, id int, in models.OrderUpdate) error {
	return c.send(ctx, http.MethodPut, "/api/order/{id}", orderPath(id), in, nil)
}

// UpdateOrderStatus sets status and returns the updated order.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int, status string) (models.Order, error) {
	var out models.Order
	err := c.send(ctx, http.MethodPatch, "/api/order/{id}/update-status", orderPath(id)+"/update-status", models.StatusUpdate{Status: status}, &out)
	return out, err
}

// Transition runs one of the take/release/complete/cancel calls.
func (c *Client) Transition(ctx context.Context, action OrderAction, id int) error {
	switch action {
	case OrderTake, OrderRelease, OrderComplete, OrderCancel:
	default:
		return fmt.Errorf("api: unknown order action %q", action)
	}
	route := "/api/order/" + string(action) + "/{id}"
	path := "/api/order/" + string(action) + "/" + strconv.Itoa(id)
	return c.send(ctx, http.MethodPut, route, path, nil, nil)
}

func (c *Client) DeleteOrder(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, "/api/order/{id}", orderPath(id), nil, nil)
}

// DeleteOrders removes every order in ids with one call.
func (c *Client) DeleteOrders(ctx context.Context, ids []int) error {
	return c.send(ctx, http.MethodPost, "/api/order/delete-multiple", "/api/order/delete-multiple", nonNil(ids), nil)
}

func orderPath(id int) string {
	return "/api/order/" + strconv.Itoa(id)
}
