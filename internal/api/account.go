package api

import (
	"context"
	"net/http"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Login exchanges credentials for a token. A 401 here does not fire the
// unauthorized hook.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	var out models.LoginResult
	err := c.do(ctx, request{
		method:    http.MethodPost,
		route:     "/api/account/login",
		path:      "/api/account/login",
		body:      creds,
		anonymous: true,
	}, &out)
	return out, err
}

// Register redeems an invitation token.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	return c.do(ctx, request{
		method:    http.MethodPost,
		route:     "/api/account/register",
		path:      "/api/account/register",
		body:      reg,
		anonymous: true,
	}, nil)
}

// Profile returns the account behind the current token. It is never
// served from the cache.
func (c *Client) Profile(ctx context.Context) (models.User, error) {
	var out models.User
	err := c.do(ctx, request{method: http.MethodGet, route: "/api/account/profile", path: "/api/account/profile", fresh: true}, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var out []models.User
	err := c.get(ctx, "/api/account/users", "/api/account/users", nil, &out)
	return out, err
}

func (c *Client) User(ctx context.Context, id string) (models.User, error) {
	var out models.User
	err := c.get(ctx, "/api/account/users/{id}", "/api/account/users/"+id, nil, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, update models.UserUpdate) error {
	return c.send(ctx, http.MethodPut, "/api/account/users/{id}", "/api/account/users/"+id, update, nil)
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/account/users/{id}", "/api/account/users/"+id, nil, nil)
}

// Invite sends an invitation valid for inv.ValidDays days.
func (c *Client) Invite(ctx context.Context, inv models.Invitation) error {
	return c.send(ctx, http.MethodPost, "/api/account/invite", "/api/account/invite", inv, nil)
}
