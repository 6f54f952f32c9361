package forms

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kingrea/fieldcrm/internal/models"
)

// Customer field keys.
const (
	FieldCustomerNumber = "CustomerNumber"
	FieldFirstName      = "FirstName"
	FieldSecondName     = "SecondName"
	FieldEmail          = "Email"
	FieldPhoneNumber    = "PhoneNumber"
	FieldZipCode        = "Address.ZipCode"
	FieldCountry        = "Address.Country"
	FieldCity           = "Address.City"
	FieldStreet         = "Address.Street"
	FieldHouseNumber    = "Address.HouseNumber"
	FieldApartment      = "Address.Apartment"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-\(\)]{7,25}$`)
)

// CustomerForm holds the raw text of the add/edit customer screen.
type CustomerForm struct {
	CustomerNumber string
	FirstName      string
	SecondName     string
	Email          string
	PhoneNumber    string
	ZipCode        string
	Country        string
	City           string
	Street         string
	HouseNumber    string
	Apartment      string
}

// CustomerFormFrom prefills the form for editing c.
func CustomerFormFrom(c models.Customer) CustomerForm {
	f := CustomerForm{
		CustomerNumber: strconv.Itoa(c.CustomerNumber),
		FirstName:      c.FirstName,
		SecondName:     c.SecondName,
		Email:          c.Email,
		PhoneNumber:    c.PhoneNumber,
	}
	if a := c.Address; a != nil {
		if a.ZipCode != nil {
			f.ZipCode = strconv.Itoa(*a.ZipCode)
		}
		f.Country = a.Country
		f.City = a.City
		f.Street = a.Street
		f.HouseNumber = a.HouseNumber
		f.Apartment = a.Apartment
	}
	return f
}

// HasAddress reports whether any address field was filled in.
func (f CustomerForm) HasAddress() bool {
	for _, v := range []string{f.ZipCode, f.Country, f.City, f.Street, f.HouseNumber, f.Apartment} {
		if !blank(v) {
			return true
		}
	}
	return false
}

// Validate checks the form and returns the field errors, empty when valid.
func (f CustomerForm) Validate() FieldErrors {
	errs := FieldErrors{}

	num, err := strconv.Atoi(strings.TrimSpace(f.CustomerNumber))
	if err != nil {
		errs.Add(FieldCustomerNumber, "Customer number is required and must be a number.")
	} else if num < 10000 || num > 99999 {
		errs.Add(FieldCustomerNumber, "Customer number must be a 5-digit number.")
	}
	if blank(f.FirstName) {
		errs.Add(FieldFirstName, "First name is required.")
	}
	if blank(f.SecondName) {
		errs.Add(FieldSecondName, "Second name is required.")
	}
	if email := strings.TrimSpace(f.Email); email != "" && !emailPattern.MatchString(email) {
		errs.Add(FieldEmail, "Invalid email address.")
	}
	if phone := strings.TrimSpace(f.PhoneNumber); phone != "" && !phonePattern.MatchString(phone) {
		errs.Add(FieldPhoneNumber, "Invalid phone number format.")
	}
	if zip := strings.TrimSpace(f.ZipCode); zip != "" {
		if _, err := strconv.Atoi(zip); err != nil {
			errs.Add(FieldZipCode, "Zip code must be a number.")
		}
	}
	return errs
}

// Build validates the form and returns the payload. Optional fields are
// trimmed and left empty when blank; the address is only attached when at
// least one address field is filled in.
func (f CustomerForm) Build() (models.CustomerInput, FieldErrors) {
	if errs := f.Validate(); len(errs) > 0 {
		return models.CustomerInput{}, errs
	}
	num, _ := strconv.Atoi(strings.TrimSpace(f.CustomerNumber))
	in := models.CustomerInput{
		CustomerNumber: num,
		FirstName:      strings.TrimSpace(f.FirstName),
		SecondName:     strings.TrimSpace(f.SecondName),
		Email:          strings.TrimSpace(f.Email),
		PhoneNumber:    strings.TrimSpace(f.PhoneNumber),
	}
	if f.HasAddress() {
		addr := &models.Address{
			Country:     strings.TrimSpace(f.Country),
			City:        strings.TrimSpace(f.City),
			Street:      strings.TrimSpace(f.Street),
			HouseNumber: strings.TrimSpace(f.HouseNumber),
			Apartment:   strings.TrimSpace(f.Apartment),
		}
		if zip := strings.TrimSpace(f.ZipCode); zip != "" {
			z, _ := strconv.Atoi(zip)
			addr.ZipCode = &z
		}
		in.Address = addr
	}
	return in, nil
}
