package invoicing

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/clients/stripeapi"
	"github.com/acm-uiuc/core-sub001/internal/app/store/customers"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

type fakePayments struct {
	identities map[string]models.CustomerIdentity

	createCalls  int
	createdName  string
	createdEmail string
	createErr    error

	linkCalls int
}

func (f *fakePayments) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	f.createCalls++
	f.createdName, f.createdEmail = name, email
	if f.createErr != nil {
		return "", f.createErr
	}
	id := "cus_new"
	f.identities[id] = models.CustomerIdentity{Name: name, Email: email}
	return id, nil
}

func (f *fakePayments) GetCustomer(ctx context.Context, customerID string) (models.CustomerIdentity, error) {
	id, ok := f.identities[customerID]
	if !ok {
		return models.CustomerIdentity{}, errors.New("no such customer")
	}
	return id, nil
}

func (f *fakePayments) CreatePaymentLink(ctx context.Context, invoiceID string, amount int64, contactName, contactEmail, createdBy string) (stripeapi.PaymentLink, error) {
	f.linkCalls++
	return stripeapi.PaymentLink{LinkID: "plink_1", URL: "https://pay.example/plink_1"}, nil
}

type fakeCustomers struct {
	scopes map[string]*models.CustomerScopeRecord

	createScopeErr error
	// winner is installed as the stored scope when createScopeErr fires,
	// simulating a concurrent creator whose write landed first.
	winner *models.CustomerScopeRecord

	mappingCalls int
	mappingErr   error

	chargeCalls []string
	chargeErr   error

	getScopeCalls int
}

func scopeKey(org, domain string) string { return org + "#" + domain }

func (f *fakeCustomers) GetScope(ctx context.Context, org, domain string) (*models.CustomerScopeRecord, error) {
	f.getScopeCalls++
	return f.scopes[scopeKey(org, domain)], nil
}

func (f *fakeCustomers) CreateScope(ctx context.Context, org, domain, customerID, email string) error {
	if f.createScopeErr != nil {
		if f.winner != nil {
			f.scopes[scopeKey(org, domain)] = f.winner
		}
		return f.createScopeErr
	}
	f.scopes[scopeKey(org, domain)] = &models.CustomerScopeRecord{
		PrimaryKey: "STRIPE#" + org + "#" + domain,
		EntryID:    "CUSTOMER",
		CustomerID: customerID,
	}
	return nil
}

func (f *fakeCustomers) EnsureEmailMapping(ctx context.Context, org, domain, email, customerID string) error {
	f.mappingCalls++
	return f.mappingErr
}

func (f *fakeCustomers) AddCharge(ctx context.Context, org, domain, invoiceID string, amount int64) error {
	if f.chargeErr != nil {
		return f.chargeErr
	}
	f.chargeCalls = append(f.chargeCalls, invoiceID)
	return nil
}

type fakeLocker struct {
	keys []string
}

func (f *fakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	f.keys = append(f.keys, key)
	return fn(ctx)
}

type fakeAuditor struct {
	entries []models.AuditLogEntry
}

func (f *fakeAuditor) Log(ctx context.Context, entry models.AuditLogEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fixture struct {
	h         *Handler
	payments  *fakePayments
	customers *fakeCustomers
	locks     *fakeLocker
	audit     *fakeAuditor
}

func newFixture() *fixture {
	payments := &fakePayments{identities: map[string]models.CustomerIdentity{}}
	customers := &fakeCustomers{scopes: map[string]*models.CustomerScopeRecord{}}
	locks := &fakeLocker{}
	auditor := &fakeAuditor{}
	h := NewHandler(payments, customers, locks, auditor, zap.NewNop())
	return &fixture{h: h, payments: payments, customers: customers, locks: locks, audit: auditor}
}

func TestCheckOrCreateCustomer_CreatesExactlyOnce(t *testing.T) {
	f := newFixture()
	in := CustomerInput{Org: "ACM", Name: "Jane Doe", Email: "jdoe@example.com"}

	first, err := f.h.CheckOrCreateCustomer(context.Background(), in)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if !first.Created || first.CustomerID != "cus_new" {
		t.Errorf("first = %+v, want created cus_new", first)
	}

	second, err := f.h.CheckOrCreateCustomer(context.Background(), in)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if second.Created || second.NeedsConfirmation || second.CustomerID != "cus_new" {
		t.Errorf("second = %+v, want existing customer with no confirmation", second)
	}
	if f.payments.createCalls != 1 {
		t.Errorf("CreateCustomer calls = %d, want exactly 1", f.payments.createCalls)
	}
}

func TestCheckOrCreateCustomer_NormalizesBeforeAnything(t *testing.T) {
	f := newFixture()

	_, err := f.h.CheckOrCreateCustomer(context.Background(), CustomerInput{
		Org: "ACM", Name: "  Jane Doe ", Email: " A@Example.com ",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(f.locks.keys) != 1 || f.locks.keys[0] != "stripe:ACM#example.com" {
		t.Errorf("lock keys = %v, want [stripe:ACM#example.com]", f.locks.keys)
	}
	if f.payments.createdEmail != "a@example.com" || f.payments.createdName != "Jane Doe" {
		t.Errorf("created identity = %q / %q, want normalized", f.payments.createdName, f.payments.createdEmail)
	}
}

func TestCheckOrCreateCustomer_RejectsBadEmailBeforeIO(t *testing.T) {
	f := newFixture()

	_, err := f.h.CheckOrCreateCustomer(context.Background(), CustomerInput{
		Org: "ACM", Name: "Jane", Email: "not-an-email",
	})
	if err == nil {
		t.Fatal("expected an error for an email with no domain")
	}
	if len(f.locks.keys) != 0 || f.customers.getScopeCalls != 0 || f.payments.createCalls != 0 {
		t.Error("malformed email must be rejected before any lock, store, or processor call")
	}
}

func TestCheckOrCreateCustomer_DriftNeedsConfirmation(t *testing.T) {
	f := newFixture()
	f.customers.scopes[scopeKey("ACM", "example.com")] = &models.CustomerScopeRecord{CustomerID: "cus_1"}
	f.payments.identities["cus_1"] = models.CustomerIdentity{Name: "Janet Doe", Email: "jdoe@example.com"}

	res, err := f.h.CheckOrCreateCustomer(context.Background(), CustomerInput{
		Org: "ACM", Name: "Jane Doe", Email: "jdoe@example.com",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.NeedsConfirmation {
		t.Fatal("expected NeedsConfirmation for a changed name")
	}
	if res.Current == nil || res.Current.Name != "Janet Doe" {
		t.Errorf("Current = %+v, want live identity", res.Current)
	}
	if res.Incoming == nil || res.Incoming.Name != "Jane Doe" {
		t.Errorf("Incoming = %+v, want request identity", res.Incoming)
	}
	if f.customers.mappingCalls != 1 {
		t.Errorf("mapping calls = %d, want 1 even while unconfirmed", f.customers.mappingCalls)
	}
}

func TestCheckOrCreateCustomer_EmailComparisonIsCaseInsensitive(t *testing.T) {
	f := newFixture()
	f.customers.scopes[scopeKey("ACM", "example.com")] = &models.CustomerScopeRecord{CustomerID: "cus_1"}
	f.payments.identities["cus_1"] = models.CustomerIdentity{Name: "Jane Doe", Email: "JDoe@Example.com"}

	res, err := f.h.CheckOrCreateCustomer(context.Background(), CustomerInput{
		Org: "ACM", Name: "Jane Doe", Email: "jdoe@example.com",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.NeedsConfirmation {
		t.Error("case-only email difference must not count as drift")
	}
	if f.customers.mappingCalls != 1 {
		t.Errorf("mapping calls = %d, want 1", f.customers.mappingCalls)
	}
}

func TestCheckOrCreateCustomer_LostCreateRaceUsesWinner(t *testing.T) {
	f := newFixture()
	f.customers.createScopeErr = customerstore.ErrScopeExists
	f.customers.winner = &models.CustomerScopeRecord{CustomerID: "cus_winner"}
	f.payments.identities["cus_winner"] = models.CustomerIdentity{Name: "Jane Doe", Email: "jdoe@example.com"}

	res, err := f.h.CheckOrCreateCustomer(context.Background(), CustomerInput{
		Org: "ACM", Name: "Jane Doe", Email: "jdoe@example.com",
	})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Created {
		t.Error("losing the create race must not report Created")
	}
	if res.CustomerID != "cus_winner" {
		t.Errorf("CustomerID = %q, want the concurrent winner's cus_winner", res.CustomerID)
	}
}

func TestCheckOrCreateCustomer_MappingFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.customers.scopes[scopeKey("ACM", "example.com")] = &models.CustomerScopeRecord{CustomerID: "cus_1"}
	f.payments.identities["cus_1"] = models.CustomerIdentity{Name: "Jane Doe", Email: "jdoe@example.com"}
	f.customers.mappingErr = errors.New("throughput exceeded")

	res, err := f.h.CheckOrCreateCustomer(context.Background(), CustomerInput{
		Org: "ACM", Name: "Jane Doe", Email: "jdoe@example.com",
	})
	if err != nil {
		t.Fatalf("check = %v, mapping failure must not fail the check", err)
	}
	if res.CustomerID != "cus_1" {
		t.Errorf("CustomerID = %q", res.CustomerID)
	}
}
