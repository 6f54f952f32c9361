package models

// Order mirrors the service's order resource.
type Order struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Status           string    `json:"status"`
	IsTaken          bool      `json:"isTaken"`
	CreatedOn        Timestamp `json:"createdOn"`
	CustomerNumber   int       `json:"customerNumber"`
	CustomerFullName string    `json:"customerFullName"`
}

// OrderInput is the create payload for an order.
type OrderInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
}

// OrderUpdate is the edit payload for an order.
type OrderUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// StatusUpdate is the body of the update-status call.
type StatusUpdate struct {
	Status string `json:"status"`
}
