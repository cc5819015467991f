// internal/domain/models/customer.go
package models

import "time"

// CustomerScopeRecord is the CUSTOMER row for one (organization, email-domain)
// scope. There is at most one per scope; it is created exactly once with a
// conditioned put and afterwards only its TotalAmount counter is incremented.
type CustomerScopeRecord struct {
	// PrimaryKey is "STRIPE#<org>#<domain>", EntryID is "CUSTOMER".
	PrimaryKey string `dynamodbav:"primaryKey"`
	EntryID    string `dynamodbav:"entryId"`

	CustomerID string `dynamodbav:"customerId"`

	// TotalAmount is a running total of charges against this scope, in the
	// smallest currency unit (cents). Maintained via an atomic ADD expression.
	TotalAmount int64     `dynamodbav:"totalAmount"`
	CreatedAt   time.Time `dynamodbav:"createdAt"`
}

// EmailMapRecord maps one normalized email address within a scope to the
// scope's external customer id. Created opportunistically; a pre-existing
// mapping is left untouched.
type EmailMapRecord struct {
	PrimaryKey string    `dynamodbav:"primaryKey"`
	EntryID    string    `dynamodbav:"entryId"` // "EMAIL#<address>"
	CustomerID string    `dynamodbav:"customerId"`
	CreatedAt  time.Time `dynamodbav:"createdAt"`
}

// ChargeRecord is one invoice charged against a scope, created exactly once
// per invoice id.
type ChargeRecord struct {
	PrimaryKey string    `dynamodbav:"primaryKey"`
	EntryID    string    `dynamodbav:"entryId"` // "CHARGE#<invoiceId>"
	Amount     int64     `dynamodbav:"amount"`
	CreatedAt  time.Time `dynamodbav:"createdAt"`
}

// CustomerIdentity is the drift-relevant slice of a payment-processor
// customer record.
type CustomerIdentity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
