package models

import (
	"strconv"
	"strings"
)

// Address is the optional postal address attached to a customer.
type Address struct {
	ZipCode     *int   `json:"zipCode,omitempty"`
	Country     string `json:"country,omitempty"`
	City        string `json:"city,omitempty"`
	Street      string `json:"street,omitempty"`
	HouseNumber string `json:"houseNumber,omitempty"`
	Apartment   string `json:"apartment,omitempty"`
}

// IsEmpty reports whether no address field carries a value.
func (a *Address) IsEmpty() bool {
	if a == nil {
		return true
	}
	return a.ZipCode == nil &&
		strings.TrimSpace(a.Country) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.HouseNumber) == "" &&
		strings.TrimSpace(a.Apartment) == ""
}

// String renders the address on one line, skipping blank parts.
func (a *Address) String() string {
	if a.IsEmpty() {
		return ""
	}
	street := strings.TrimSpace(strings.Join([]string{a.Street, a.HouseNumber}, " "))
	if apt := strings.TrimSpace(a.Apartment); apt != "" {
		street = strings.TrimSpace(street + " / " + apt)
	}
	city := strings.TrimSpace(a.City)
	if a.ZipCode != nil {
		city = strings.TrimSpace(strconv.Itoa(*a.ZipCode) + " " + city)
	}
	var parts []string
	for _, p := range []string{street, city, strings.TrimSpace(a.Country)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Customer mirrors the service's customer resource.
type Customer struct {
	ID             int       `json:"id"`
	CustomerNumber int       `json:"customerNumber"`
	FirstName      string    `json:"firstName"`
	SecondName     string    `json:"secondName"`
	Email          string    `json:"email,omitempty"`
	PhoneNumber    string    `json:"phoneNumber,omitempty"`
	Address        *Address  `json:"address,omitempty"`
	OverallStatus  string    `json:"overallStatus,omitempty"`
	CreatedOn      Timestamp `json:"createdOn"`
}

// FullName joins first and second name.
func (c Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.SecondName))
}

// CustomerInput is the create/update payload for a customer.
type CustomerInput struct {
	CustomerNumber int      `json:"customerNumber"`
	FirstName      string   `json:"firstName"`
	SecondName     string   `json:"secondName"`
	Email          string   `json:"email,omitempty"`
	PhoneNumber    string   `json:"phoneNumber,omitempty"`
	Address        *Address `json:"address,omitempty"`
}
