package models

import (
	"encoding/json"
	"testing"
)

func TestFormatDate(t *testing.T) {
	cases := map[string]string{
		"2024-03-07T10:15:00Z":          "07.03.2024",
		"2024-03-07T10:15:00.1234567":   "07.03.2024",
		"2024-12-31T23:59:59+02:00":     "31.12.2024",
		"2024-01-02":                    "02.01.2024",
		"not a date":                    "",
		"":                              "",
	}
	for raw, want := range cases {
		if got := FormatDate(raw); got != want {
			t.Fatalf("FormatDate(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestOrderDecodesOffsetlessTimestamp(t *testing.T) {
	body := `{"id":4,"title":"Fix","status":"Pending","createdOn":"2024-05-01T08:00:00.5","customerNumber":12345,"customerFullName":"Ada Lovelace"}`
	var order Order
	if err := json.Unmarshal([]byte(body), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if order.CreatedOn.IsZero() {
		t.Fatalf("expected createdOn to be parsed")
	}
	if got := order.CreatedOn.FormatDate(); got != "01.05.2024" {
		t.Fatalf("date = %q", got)
	}
}

func TestCustomerFullNameAndAddress(t *testing.T) {
	zip := 1010
	c := Customer{FirstName: " Ada ", SecondName: "Lovelace", Address: &Address{ZipCode: &zip, City: "Vienna", Street: "Ring", HouseNumber: "1"}}
	if got := c.FullName(); got != "Ada Lovelace" {
		t.Fatalf("full name = %q", got)
	}
	if got := c.Address.String(); got != "Ring 1, 1010 Vienna" {
		t.Fatalf("address = %q", got)
	}
	var empty *Address
	if !empty.IsEmpty() || empty.String() != "" {
		t.Fatalf("nil address must be empty")
	}
}

func TestUserHasRole(t *testing.T) {
	u := User{Roles: []string{"admin", "Worker"}}
	if !u.HasRole(RoleAdmin) || !u.HasRole(RoleWorker) {
		t.Fatalf("expected both roles, got %v", u.Roles)
	}
	if (User{}).HasRole(RoleAdmin) {
		t.Fatalf("empty user must have no roles")
	}
}
