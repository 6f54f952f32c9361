package forms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/fieldcrm/internal/models"
)

func TestCustomerFormRequiredFields(t *testing.T) {
	_, errs := CustomerForm{}.Build()
	require.NotEmpty(t, errs)
	assert.Equal(t, "Customer number is required and must be a number.", errs.First(FieldCustomerNumber))
	assert.True(t, errs.Has(FieldFirstName))
	assert.True(t, errs.Has(FieldSecondName))
	assert.False(t, errs.Has(FieldEmail))
}

func TestCustomerNumberRange(t *testing.T) {
	for _, raw := range []string{"9999", "100000"} {
		errs := CustomerForm{CustomerNumber: raw, FirstName: "a", SecondName: "b"}.Validate()
		assert.Equal(t, "Customer number must be a 5-digit number.", errs.First(FieldCustomerNumber), raw)
	}
	assert.Empty(t, CustomerForm{CustomerNumber: " 10000 ", FirstName: "a", SecondName: "b"}.Validate())
}

func TestCustomerOptionalFieldFormats(t *testing.T) {
	f := CustomerForm{CustomerNumber: "12345", FirstName: "Ada", SecondName: "L", Email: "nope", PhoneNumber: "12", ZipCode: "A1"}
	errs := f.Validate()
	assert.ElementsMatch(t, []string{FieldEmail, FieldPhoneNumber, FieldZipCode}, errs.Keys())

	f.Email = "ada@example.com"
	f.PhoneNumber = "+43 (1) 555-1234"
	f.ZipCode = "1010"
	assert.Empty(t, f.Validate())
}

func TestCustomerBuildOmitsBlankAddress(t *testing.T) {
	in, errs := CustomerForm{CustomerNumber: "12345", FirstName: " Ada ", SecondName: "Lovelace ", Email: "  "}.Build()
	require.Empty(t, errs)
	assert.Equal(t, 12345, in.CustomerNumber)
	assert.Equal(t, "Ada", in.FirstName)
	assert.Equal(t, "Lovelace", in.SecondName)
	assert.Equal(t, "", in.Email)
	assert.Nil(t, in.Address)
}

func TestCustomerBuildKeepsFilledAddressFields(t *testing.T) {
	in, errs := CustomerForm{CustomerNumber: "12345", FirstName: "A", SecondName: "B", City: " Vienna ", ZipCode: "1010"}.Build()
	require.Empty(t, errs)
	require.NotNil(t, in.Address)
	require.NotNil(t, in.Address.ZipCode)
	assert.Equal(t, 1010, *in.Address.ZipCode)
	assert.Equal(t, "Vienna", in.Address.City)
	assert.Equal(t, "", in.Address.Street)
}

func TestCustomerFormFromRoundTripsEditableFields(t *testing.T) {
	zip := 4020
	c := models.Customer{CustomerNumber: 54321, FirstName: "A", SecondName: "B", Address: &models.Address{ZipCode: &zip, City: "Linz"}}
	f := CustomerFormFrom(c)
	assert.Equal(t, "54321", f.CustomerNumber)
	assert.Equal(t, "4020", f.ZipCode)
	assert.Equal(t, "Linz", f.City)
}

func TestOrderFormLimits(t *testing.T) {
	_, errs := OrderForm{Title: "x", Description: "short"}.BuildCreate()
	assert.True(t, errs.Has(FieldTitle))
	assert.True(t, errs.Has(FieldDescription))

	in, errs := OrderForm{Title: "Fix roof", Description: "Leaking near the chimney"}.BuildCreate()
	require.Empty(t, errs)
	assert.Equal(t, "Pending", in.Status)

	_, errs = OrderForm{Title: "   "}.BuildUpdate()
	assert.Equal(t, "Title is required", errs.First(FieldTitle))
	upd, errs := OrderForm{Title: " New ", Description: ""}.BuildUpdate()
	require.Empty(t, errs)
	assert.Equal(t, "New", upd.Title)
}

func TestInviteAndRegister(t *testing.T) {
	_, errs := InviteForm{}.Build()
	assert.Equal(t, "Email is required", errs.First(FieldEmail))
	_, errs = InviteForm{Email: "a@b.c", ValidDays: "400"}.Build()
	assert.True(t, errs.Has(FieldValidDays))
	inv, errs := InviteForm{Email: " a@b.c "}.Build()
	require.Empty(t, errs)
	assert.Equal(t, models.Invitation{Email: "a@b.c", ValidDays: 1}, inv)

	_, errs = RegisterForm{UserName: "x"}.Build()
	assert.Equal(t, "Token is required", errs.First(FieldToken))
	_, errs = RegisterForm{Token: "t"}.Build()
	assert.Equal(t, "Username is required", errs.First(FieldUserName))
}

func TestParseCount(t *testing.T) {
	n, errs := ParseCount("")
	assert.Empty(t, errs)
	assert.Equal(t, 10, n)
	_, errs = ParseCount("0")
	assert.Equal(t, "Enter a valid number", errs.First(FieldCount))
	_, errs = ParseCount("abc")
	assert.NotEmpty(t, errs)
}

func TestMergeErrorsPrefersServer(t *testing.T) {
	local := FieldErrors{FieldEmail: {"local"}, FieldFirstName: {"first"}}
	merged := MergeErrors(local, map[string][]string{FieldEmail: {"taken"}})
	assert.Equal(t, "taken", merged.First(FieldEmail))
	assert.Equal(t, "first", merged.First(FieldFirstName))
	assert.Equal(t, "local", local.First(FieldEmail))
}

func TestUserFormRoles(t *testing.T) {
	upd, errs := UserForm{UserName: "bob", Roles: "Admin, , Worker"}.Build()
	require.Empty(t, errs)
	assert.Equal(t, []string{"Admin", "Worker"}, upd.Roles)
	assert.Equal(t, "Admin, Worker", UserFormFrom(models.User{Roles: []string{"Admin", "Worker"}}).Roles)
}
