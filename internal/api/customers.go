package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Customers lists customers; query carries search, sortBy and isDescending.
func (c *Client) Customers(ctx context.Context, query url.Values) ([]models.Customer, error) {
	var out []models.Customer
	err := c.get(ctx, "/api/customer", "/api/customer", query, &out)
	return out, err
}

func (c *Client) Customer(ctx context.Context, id int) (models.Customer, error) {
	var out models.Customer
	err := c.get(ctx, "/api/customer/{id}", customerPath(id), nil, &out)
	return out, err
}

func (c *Client) CreateCustomer(ctx context.Context, in models.CustomerInput) (models.Customer, error) {
	var out models.Customer
	err := c.send(ctx, http.MethodPost, "/api/customer", "/api/customer", in, &out)
	return out, err
}

func (c *Client) UpdateCustomer(ctx context.Context, id int, in models.CustomerInput) error {
	return c.send(ctx, http.MethodPut, "/api/customer/{id}", customerPath(id), in, nil)
}

func (c *Client) DeleteCustomer(ctx context.Context, id int) error {
	return c.send(ctx, http.MethodDelete, "/api/customer/{id}", customerPath(id), nil, nil)
}

// DeleteCustomers removes every customer in ids with one call.
func (c *Client) DeleteCustomers(ctx context.Context, ids []int) error {
	return c.send(ctx, http.MethodPost, "/api/customer/delete-multiple", "/api/customer/delete-multiple", nonNil(ids), nil)
}

// GenerateCustomers asks the service to create count sample customers.
func (c *Client) GenerateCustomers(ctx context.Context, count int) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/api/customer/generate-customers",
		path:   "/api/customer/generate-customers",
		query:  url.Values{"count": {strconv.Itoa(count)}},
	}, nil)
}

func customerPath(id int) string {
	return "/api/customer/" + strconv.Itoa(id)
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
