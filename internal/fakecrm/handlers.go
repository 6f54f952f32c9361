package fakecrm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/kingrea/fieldcrm/internal/listing"
	"github.com/kingrea/fieldcrm/internal/models"
	"github.com/kingrea/fieldcrm/internal/workflow"
)

func readAll(r *http.Request) []byte {
	data, _ := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	return true
}

func pathInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(mux.Vars(r)[name])
	return n
}

func queryFrom(r *http.Request) listing.Query {
	q := r.URL.Query()
	desc, _ := strconv.ParseBool(q.Get("isDescending"))
	query := listing.NewQuery(q.Get("sortBy"), desc)
	query.Search = q.Get("search")
	return query
}

// account

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if !decodeBody(w, r, &creds) {
		return
	}
	s.mu.Lock()
	a := s.accountByName(creds.UserName)
	if a == nil || a.password != creds.Password {
		s.mu.Unlock()
		writeProblem(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}
	token := s.issueLocked(a, time.Hour)
	user := a.user
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.LoginResult{
		Token:    token,
		UserName: user.UserName,
		Email:    user.Email,
		Roles:    user.Roles,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if !decodeBody(w, r, &reg) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.invites[reg.Token]
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid or expired invitation", nil)
		return
	}
	if s.accountByName(reg.UserName) != nil {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.",
			map[string][]string{"UserName": {"User name is already taken."}})
		return
	}
	if reg.Email == "" {
		reg.Email = email
	}
	delete(s.invites, reg.Token)
	s.addAccount(reg.UserName, reg.Email, reg.Password, models.RoleWorker)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleProfile(w http.ResponseWriter, _ *http.Request, caller *account) {
	writeJSON(w, http.StatusOK, caller.user)
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request, _ *account) {
	s.mu.Lock()
	users := make([]models.User, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, a.user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].UserName < users[j].UserName })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	a, ok := s.accounts[mux.Vars(r)["id"]]
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, a.user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request, _ *account) {
	var update models.UserUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[mux.Vars(r)["id"]]
	if !ok {
		writeProblem(w, http.StatusNotFound, "User not found", nil)
		return
	}
	a.user.UserName = update.UserName
	a.user.Email = update.Email
	if update.Roles != nil {
		a.user.Roles = update.Roles
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request, caller *account) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		writeProblem(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if id == caller.user.ID {
		writeProblem(w, http.StatusBadRequest, "You cannot delete your own account", nil)
		return
	}
	delete(s.accounts, id)
	for token, owner := range s.tokens {
		if owner == id {
			delete(s.tokens, token)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInvite(w http.ResponseWriter, r *http.Request, _ *account) {
	var inv models.Invitation
	if !decodeBody(w, r, &inv) {
		return
	}
	if inv.ValidDays < 1 || inv.ValidDays > 365 {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.",
			map[string][]string{"ValidDays": {"Valid days must be between 1 and 365."}})
		return
	}
	s.mu.Lock()
	s.invites[uuid.NewString()] = inv.Email
	s.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

// customers

// SeedCustomer stores c, assigning an id and createdOn when missing.
func (s *Server) SeedCustomer(c models.Customer) models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertCustomerLocked(c)
}

func (s *Server) insertCustomerLocked(c models.Customer) models.Customer {
	c.ID = s.nextCustomer
	s.nextCustomer++
	if c.CreatedOn.IsZero() {
		c.CreatedOn = models.Timestamp{Time: s.now().UTC().Truncate(time.Second)}
	}
	if c.OverallStatus == "" {
		c.OverallStatus = "New"
	}
	stored := c
	s.customers[c.ID] = &stored
	return c
}

func (s *Server) customerByNumberLocked(number int) *models.Customer {
	for _, c := range s.customers {
		if c.CustomerNumber == number {
			return c
		}
	}
	return nil
}

func (s *Server) handleCustomers(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	all := make([]models.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		all = append(all, *c)
	}
	s.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	writeJSON(w, http.StatusOK, listing.Apply(all, queryFrom(r), listing.CustomerMatches, listing.CustomerKeys))
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	c, ok := s.customers[pathInt(r, "id")]
	var out models.Customer
	if ok {
		out = *c
	}
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func validateCustomer(in models.CustomerInput) map[string][]string {
	errs := map[string][]string{}
	if in.CustomerNumber < 10000 || in.CustomerNumber > 99999 {
		errs["CustomerNumber"] = []string{"Customer number must be a 5-digit number."}
	}
	if strings.TrimSpace(in.FirstName) == "" {
		errs["FirstName"] = []string{"First name is required."}
	}
	if strings.TrimSpace(in.SecondName) == "" {
		errs["SecondName"] = []string{"Second name is required."}
	}
	return errs
}

func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request, _ *account) {
	var in models.CustomerInput
	if !decodeBody(w, r, &in) {
		return
	}
	errs := validateCustomer(in)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerByNumberLocked(in.CustomerNumber) != nil {
		errs["CustomerNumber"] = append(errs["CustomerNumber"], "Customer number already exists.")
	}
	if len(errs) > 0 {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.", errs)
		return
	}
	c := s.insertCustomerLocked(models.Customer{
		CustomerNumber: in.CustomerNumber,
		FirstName:      in.FirstName,
		SecondName:     in.SecondName,
		Email:          in.Email,
		PhoneNumber:    in.PhoneNumber,
		Address:        in.Address,
	})
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCustomer(w http.ResponseWriter, r *http.Request, _ *account) {
	var in models.CustomerInput
	if !decodeBody(w, r, &in) {
		return
	}
	id := pathInt(r, "id")
	errs := validateCustomer(in)
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	if other := s.customerByNumberLocked(in.CustomerNumber); other != nil && other.ID != id {
		errs["CustomerNumber"] = append(errs["CustomerNumber"], "Customer number already exists.")
	}
	if len(errs) > 0 {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.", errs)
		return
	}
	for _, o := range s.orders {
		if o.CustomerNumber == c.CustomerNumber {
			o.CustomerNumber = in.CustomerNumber
			o.CustomerFullName = strings.TrimSpace(in.FirstName + " " + in.SecondName)
		}
	}
	c.CustomerNumber = in.CustomerNumber
	c.FirstName = in.FirstName
	c.SecondName = in.SecondName
	c.Email = in.Email
	c.PhoneNumber = in.PhoneNumber
	c.Address = in.Address
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCustomerLocked(id int) bool {
	c, ok := s.customers[id]
	if !ok {
		return false
	}
	for oid, o := range s.orders {
		if o.CustomerNumber == c.CustomerNumber {
			delete(s.orders, oid)
		}
	}
	delete(s.customers, id)
	return true
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	ok := s.deleteCustomerLocked(pathInt(r, "id"))
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCustomers(w http.ResponseWriter, r *http.Request, _ *account) {
	var ids []int
	if !decodeBody(w, r, &ids) {
		return
	}
	s.mu.Lock()
	for _, id := range ids {
		s.deleteCustomerLocked(id)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

var sampleNames = [][2]string{
	{"Anna", "Berg"}, {"Jonas", "Keller"}, {"Mia", "Wagner"}, {"Lukas", "Huber"},
	{"Lea", "Bauer"}, {"Felix", "Wolf"}, {"Sara", "Frank"}, {"Paul", "Lang"},
}

func (s *Server) handleGenerateCustomers(w http.ResponseWriter, r *http.Request, _ *account) {
	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 {
		writeProblem(w, http.StatusBadRequest, "count must be a positive number", nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	number := 10000
	for i := 0; i < count; i++ {
		for s.customerByNumberLocked(number) != nil {
			number++
		}
		if number > 99999 {
			break
		}
		name := sampleNames[(s.nextCustomer+i)%len(sampleNames)]
		s.insertCustomerLocked(models.Customer{
			CustomerNumber: number,
			FirstName:      name[0],
			SecondName:     name[1],
			Email:          fmt.Sprintf("%s.%s%d@example.com", strings.ToLower(name[0]), strings.ToLower(name[1]), number),
		})
	}
	w.WriteHeader(http.StatusOK)
}

// orders

// SeedOrder stores o for the customer with o.CustomerNumber. takenBy names
// the worker holding the order, or "".
func (s *Server) SeedOrder(o models.Order, takenBy string) models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var holder string
	if a := s.accountByName(takenBy); a != nil {
		holder = a.user.ID
	}
	return s.insertOrderLocked(o, holder)
}

func (s *Server) insertOrderLocked(o models.Order, holder string) models.Order {
	o.ID = s.nextOrder
	s.nextOrder++
	if o.CreatedOn.IsZero() {
		o.CreatedOn = models.Timestamp{Time: s.now().UTC().Truncate(time.Second)}
	}
	if o.Status == "" {
		o.Status = string(workflow.StatusPending)
	}
	if c := s.customerByNumberLocked(o.CustomerNumber); c != nil {
		o.CustomerFullName = c.FullName()
	}
	o.IsTaken = holder != ""
	s.orders[o.ID] = &order{Order: o, takenBy: holder}
	return o
}

// Order returns the stored order with id.
func (s *Server) Order(id int) (models.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return models.Order{}, false
	}
	return o.Order, true
}

func (s *Server) ordersLocked(keep func(*order) bool) []models.Order {
	out := make([]models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if keep == nil || keep(o) {
			out = append(out, o.Order)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request, _ *account) {
	s.mu.Lock()
	all := s.ordersLocked(nil)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, listing.Apply(all, queryFrom(r), listing.OrderMatches, listing.OrderKeys))
}

func (s *Server) handleMyOrders(w http.ResponseWriter, _ *http.Request, caller *account) {
	s.mu.Lock()
	mine := s.ordersLocked(func(o *order) bool { return o.takenBy == caller.user.ID })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, mine)
}

func (s *Server) handleOrdersByCustomer(w http.ResponseWriter, r *http.Request, _ *account) {
	number := pathInt(r, "number")
	s.mu.Lock()
	out := s.ordersLocked(func(o *order) bool { return o.CustomerNumber == number })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request, _ *account) {
	o, ok := s.Order(pathInt(r, "id"))
	if !ok {
		writeProblem(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request, _ *account) {
	var in models.OrderInput
	if !decodeBody(w, r, &in) {
		return
	}
	number := pathInt(r, "number")
	errs := map[string][]string{}
	if n := len([]rune(strings.TrimSpace(in.Title))); n < 2 || n > 25 {
		errs["Title"] = []string{"Title must be between 2 and 25 characters."}
	}
	if n := len([]rune(strings.TrimSpace(in.Description))); n < 10 || n > 300 {
		errs["Description"] = []string{"Description must be between 10 and 300 characters."}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.customerByNumberLocked(number) == nil {
		writeProblem(w, http.StatusNotFound, "Customer not found", nil)
		return
	}
	if len(errs) > 0 {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.", errs)
		return
	}
	o := s.insertOrderLocked(models.Order{
		Title:          in.Title,
		Description:    in.Description,
		Status:         in.Status,
		CustomerNumber: number,
	}, "")
	writeJSON(w, http.StatusCreated, o)
}

func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request, _ *account) {
	var in models.OrderUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	if strings.TrimSpace(in.Title) == "" {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.",
			map[string][]string{"Title": {"Title is required."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[pathInt(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	o.Title = in.Title
	o.Description = in.Description
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request, _ *account) {
	var in models.StatusUpdate
	if !decodeBody(w, r, &in) {
		return
	}
	status, ok := workflow.ParseStatus(in.Status)
	if !ok {
		writeProblem(w, http.StatusBadRequest, "One or more validation errors occurred.",
			map[string][]string{"Status": {"Unknown status."}})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	o, found := s.orders[pathInt(r, "id")]
	if !found {
		writeProblem(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	o.Status = string(status)
	if status == workflow.StatusPending {
		o.takenBy = ""
		o.IsTaken = false
	}
	writeJSON(w, http.StatusOK, o.Order)
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request, caller *account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[pathInt(r, "id")]
	if !ok {
		writeProblem(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	action := mux.Vars(r)["action"]
	if action == "take" {
		if o.takenBy != "" {
			writeProblem(w, http.StatusConflict, "Order is already taken", nil)
			return
		}
		if workflow.Status(o.Status).IsFinal() {
			writeProblem(w, http.StatusConflict, "Order is already closed", nil)
			return
		}
		o.takenBy = caller.user.ID
		o.IsTaken = true
		o.Status = string(workflow.StatusInProgress)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if o.takenBy != caller.user.ID {
		writeProblem(w, http.StatusForbidden, "Order is not taken by you", nil)
		return
	}
	switch action {
	case "release":
		o.takenBy = ""
		o.IsTaken = false
		o.Status = string(workflow.StatusPending)
	case "complete":
		o.Status = string(workflow.StatusCompleted)
	case "cancel":
		o.Status = string(workflow.StatusCanceled)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteOrder(w http.ResponseWriter, r *http.Request, _ *account) {
	id := pathInt(r, "id")
	s.mu.Lock()
	_, ok := s.orders[id]
	delete(s.orders, id)
	s.mu.Unlock()
	if !ok {
		writeProblem(w, http.StatusNotFound, "Order not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteOrders(w http.ResponseWriter, r *http.Request, _ *account) {
	var ids []int
	if !decodeBody(w, r, &ids) {
		return
	}
	s.mu.Lock()
	for _, id := range ids {
		delete(s.orders, id)
	}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}
