package customerstore

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

type fakeDB struct {
	dynamo.API

	getOut *dynamodb.GetItemOutput
	getErr error

	putInput *dynamodb.PutItemInput
	putErr   error

	txInput *dynamodb.TransactWriteItemsInput
	txErr   error
}

func (f *fakeDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getOut == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOut, nil
}

func (f *fakeDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInput = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDB) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.txInput = in
	if f.txErr != nil {
		return nil, f.txErr
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func newStore(db *fakeDB) *Store {
	logger := zap.NewNop()
	return New(db, dynamo.NewTransactor(db, logger), "infra-core-api-stripe", logger)
}

func conditionFailure() error {
	return &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("ConditionalCheckFailed")},
			{Code: aws.String("None")},
		},
	}
}

func TestGetScope_NotFound(t *testing.T) {
	s := newStore(&fakeDB{})

	rec, err := s.GetScope(context.Background(), "ACM", "example.com")
	if err != nil {
		t.Fatalf("GetScope: %v", err)
	}
	if rec != nil {
		t.Errorf("GetScope = %+v, want nil for missing scope", rec)
	}
}

func TestGetScope_Found(t *testing.T) {
	item, err := attributevalue.MarshalMap(models.CustomerScopeRecord{
		PrimaryKey:  "STRIPE#ACM#example.com",
		EntryID:     "CUSTOMER",
		CustomerID:  "cus_123",
		TotalAmount: 5000,
	})
	if err != nil {
		t.Fatal(err)
	}
	s := newStore(&fakeDB{getOut: &dynamodb.GetItemOutput{Item: item}})

	rec, err := s.GetScope(context.Background(), "ACM", "example.com")
	if err != nil {
		t.Fatalf("GetScope: %v", err)
	}
	if rec == nil || rec.CustomerID != "cus_123" || rec.TotalAmount != 5000 {
		t.Errorf("GetScope = %+v, want cus_123 with total 5000", rec)
	}
}

func TestCreateScope_WritesCustomerAndMapping(t *testing.T) {
	db := &fakeDB{}
	s := newStore(db)

	if err := s.CreateScope(context.Background(), "ACM", "example.com", "cus_123", "jdoe@example.com"); err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	if db.txInput == nil || len(db.txInput.TransactItems) != 2 {
		t.Fatalf("expected 2 transact items, got %+v", db.txInput)
	}
	for i, ti := range db.txInput.TransactItems {
		if ti.Put == nil {
			t.Fatalf("item %d should be a put", i)
		}
		wantCond := "attribute_not_exists(primaryKey) AND attribute_not_exists(entryId)"
		if got := aws.ToString(ti.Put.ConditionExpression); got != wantCond {
			t.Errorf("item %d ConditionExpression = %q, want %q", i, got, wantCond)
		}
		pk := ti.Put.Item["primaryKey"].(*types.AttributeValueMemberS).Value
		if pk != "STRIPE#ACM#example.com" {
			t.Errorf("item %d primaryKey = %q, want STRIPE#ACM#example.com", i, pk)
		}
	}
	sk0 := db.txInput.TransactItems[0].Put.Item["entryId"].(*types.AttributeValueMemberS).Value
	sk1 := db.txInput.TransactItems[1].Put.Item["entryId"].(*types.AttributeValueMemberS).Value
	if sk0 != "CUSTOMER" || sk1 != "EMAIL#jdoe@example.com" {
		t.Errorf("sort keys = %q, %q; want CUSTOMER and EMAIL#jdoe@example.com", sk0, sk1)
	}
}

func TestCreateScope_AlreadyExists(t *testing.T) {
	s := newStore(&fakeDB{txErr: conditionFailure()})

	err := s.CreateScope(context.Background(), "ACM", "example.com", "cus_123", "jdoe@example.com")
	if !errors.Is(err, ErrScopeExists) {
		t.Fatalf("CreateScope = %v, want ErrScopeExists", err)
	}
}

func TestEnsureEmailMapping_ExistingIsSentinel(t *testing.T) {
	db := &fakeDB{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
	s := newStore(db)

	err := s.EnsureEmailMapping(context.Background(), "ACM", "example.com", "jdoe@example.com", "cus_123")
	if !errors.Is(err, ErrMappingExists) {
		t.Fatalf("EnsureEmailMapping = %v, want ErrMappingExists", err)
	}
}

func TestAddCharge_PairsChargeWithIncrement(t *testing.T) {
	db := &fakeDB{}
	s := newStore(db)

	if err := s.AddCharge(context.Background(), "ACM", "example.com", "INV-42", 2500); err != nil {
		t.Fatalf("AddCharge: %v", err)
	}
	if db.txInput == nil || len(db.txInput.TransactItems) != 2 {
		t.Fatalf("expected 2 transact items, got %+v", db.txInput)
	}

	put := db.txInput.TransactItems[0].Put
	if put == nil {
		t.Fatal("first item should be the charge put")
	}
	sk := put.Item["entryId"].(*types.AttributeValueMemberS).Value
	if sk != "CHARGE#INV-42" {
		t.Errorf("charge sort key = %q, want CHARGE#INV-42", sk)
	}

	upd := db.txInput.TransactItems[1].Update
	if upd == nil {
		t.Fatal("second item should be the total update")
	}
	if got := aws.ToString(upd.UpdateExpression); got != "ADD totalAmount :amount" {
		t.Errorf("UpdateExpression = %q", got)
	}
	amount := upd.ExpressionAttributeValues[":amount"].(*types.AttributeValueMemberN).Value
	if amount != "2500" {
		t.Errorf("amount = %q, want 2500", amount)
	}
}

func TestAddCharge_Duplicate(t *testing.T) {
	s := newStore(&fakeDB{txErr: conditionFailure()})

	err := s.AddCharge(context.Background(), "ACM", "example.com", "INV-42", 2500)
	if !errors.Is(err, ErrDuplicateCharge) {
		t.Fatalf("AddCharge = %v, want ErrDuplicateCharge", err)
	}
}

// Only the second condition failing means the CUSTOMER row is gone, not that
// the invoice was seen before.
func TestAddCharge_MissingCustomerRowIsNotDuplicate(t *testing.T) {
	guardOnly := &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
	s := newStore(&fakeDB{txErr: guardOnly})

	err := s.AddCharge(context.Background(), "ACM", "example.com", "INV-42", 2500)
	if err == nil {
		t.Fatal("expected an error when the customer row is missing")
	}
	if errors.Is(err, ErrDuplicateCharge) {
		t.Fatalf("AddCharge = %v, must not report a duplicate for a missing customer row", err)
	}
}
