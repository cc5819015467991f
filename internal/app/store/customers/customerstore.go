// internal/app/store/customers/customerstore.go
package customerstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

var (
	// ErrScopeExists reports a create-scope put finding the CUSTOMER row
	// already present (a concurrent creator won the race).
	ErrScopeExists = errors.New("customer scope already exists")

	// ErrMappingExists reports an email mapping that is already in place.
	ErrMappingExists = errors.New("email mapping already exists")

	// ErrDuplicateCharge reports an invoice id that has already been charged.
	ErrDuplicateCharge = errors.New("invoice has already been charged")
)

func scopePK(org, domain string) string { return "STRIPE#" + org + "#" + domain }

const customerSK = "CUSTOMER"

func emailSK(email string) string      { return "EMAIL#" + email }
func chargeSK(invoiceID string) string { return "CHARGE#" + invoiceID }

// Store manages the per-(org, domain) customer scope rows: one CUSTOMER row,
// EMAIL# mappings, and CHARGE# rows, all in one partition.
type Store struct {
	db    dynamo.API
	tx    *dynamo.Transactor
	table string
	log   *zap.Logger
}

func New(db dynamo.API, tx *dynamo.Transactor, table string, logger *zap.Logger) *Store {
	return &Store{db: db, tx: tx, table: table, log: logger}
}

// GetScope returns the CUSTOMER row for a scope, or nil when none exists.
// Consistent read: callers hold the scope lock while deciding what to do.
func (s *Store) GetScope(ctx context.Context, org, domain string) (*models.CustomerScopeRecord, error) {
	out, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"primaryKey": &types.AttributeValueMemberS{Value: scopePK(org, domain)},
			"entryId":    &types.AttributeValueMemberS{Value: customerSK},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get customer scope %s/%s: %w", org, domain, err)
	}
	if out.Item == nil {
		return nil, nil
	}
	var rec models.CustomerScopeRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal customer scope %s/%s: %w", org, domain, err)
	}
	return &rec, nil
}

// CreateScope writes the CUSTOMER row and the first EMAIL# mapping in one
// transaction, each conditioned on non-existence. The conditions defend
// against a concurrent creator that slipped past the scope lock.
func (s *Store) CreateScope(ctx context.Context, org, domain, customerID, email string) error {
	now := time.Now().UTC()
	scope, err := attributevalue.MarshalMap(models.CustomerScopeRecord{
		PrimaryKey:  scopePK(org, domain),
		EntryID:     customerSK,
		CustomerID:  customerID,
		TotalAmount: 0,
		CreatedAt:   now,
	})
	if err != nil {
		return fmt.Errorf("marshal customer scope: %w", err)
	}
	mapping, err := attributevalue.MarshalMap(models.EmailMapRecord{
		PrimaryKey: scopePK(org, domain),
		EntryID:    emailSK(email),
		CustomerID: customerID,
		CreatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("marshal email mapping: %w", err)
	}

	notExists := aws.String("attribute_not_exists(primaryKey) AND attribute_not_exists(entryId)")
	items := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(s.table), Item: scope, ConditionExpression: notExists}},
		{Put: &types.Put{TableName: aws.String(s.table), Item: mapping, ConditionExpression: notExists}},
	}

	err = s.tx.Write(ctx, fmt.Sprintf("create customer scope %s/%s", org, domain), items)
	if errors.Is(err, dynamo.ErrConditionFailed) {
		return ErrScopeExists
	}
	return err
}

// EnsureEmailMapping writes an EMAIL# mapping conditioned on non-existence.
// Returns ErrMappingExists when one is already in place; callers treat that
// as success.
func (s *Store) EnsureEmailMapping(ctx context.Context, org, domain, email, customerID string) error {
	item, err := attributevalue.MarshalMap(models.EmailMapRecord{
		PrimaryKey: scopePK(org, domain),
		EntryID:    emailSK(email),
		CustomerID: customerID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal email mapping: %w", err)
	}

	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(primaryKey) AND attribute_not_exists(entryId)"),
	})
	if err != nil {
		if dynamo.IsConditionalCancellation(err) {
			return ErrMappingExists
		}
		return fmt.Errorf("put email mapping %s: %w", email, err)
	}
	return nil
}

// AddCharge records one invoice exactly once: a CHARGE# put conditioned on
// non-existence, paired in the same transaction with an atomic ADD on the
// scope's running total. The increment never reads the counter, so
// concurrent invoices for the same scope cannot lose updates.
func (s *Store) AddCharge(ctx context.Context, org, domain, invoiceID string, amount int64) error {
	charge, err := attributevalue.MarshalMap(models.ChargeRecord{
		PrimaryKey: scopePK(org, domain),
		EntryID:    chargeSK(invoiceID),
		Amount:     amount,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal charge: %w", err)
	}

	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(s.table),
				Item:                charge,
				ConditionExpression: aws.String("attribute_not_exists(primaryKey) AND attribute_not_exists(entryId)"),
			},
		},
		{
			Update: &types.Update{
				TableName: aws.String(s.table),
				Key: map[string]types.AttributeValue{
					"primaryKey": &types.AttributeValueMemberS{Value: scopePK(org, domain)},
					"entryId":    &types.AttributeValueMemberS{Value: customerSK},
				},
				UpdateExpression:    aws.String("ADD totalAmount :amount"),
				ConditionExpression: aws.String("attribute_exists(primaryKey) AND attribute_exists(entryId)"),
				ExpressionAttributeValues: map[string]types.AttributeValue{
					":amount": &types.AttributeValueMemberN{Value: strconv.FormatInt(amount, 10)},
				},
			},
		},
	}

	err = s.tx.Write(ctx, fmt.Sprintf("add charge %s to %s/%s", invoiceID, org, domain), items)
	if errors.Is(err, dynamo.ErrConditionFailed) {
		// Two conditions ride this transaction. Only the CHARGE# put
		// failing means the invoice was already recorded; the guard on the
		// CUSTOMER row failing alone means the scope row is gone.
		if dynamo.FailedCondition(err, 1) && !dynamo.FailedCondition(err, 0) {
			return fmt.Errorf("customer row for %s/%s is missing: %w", org, domain, err)
		}
		return ErrDuplicateCharge
	}
	return err
}
