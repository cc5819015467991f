package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// fakeAPI scripts TransactWriteItems responses, one per attempt.
type fakeAPI struct {
	API
	errs  []error
	calls int
}

func (f *fakeAPI) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

func conditionalCancel() error {
	return &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("None")},
			{Code: aws.String("ConditionalCheckFailed")},
		},
	}
}

func transientCancel() error {
	return &types.TransactionCanceledException{
		Message: aws.String("Transaction cancelled"),
		CancellationReasons: []types.CancellationReason{
			{Code: aws.String("TransactionConflict")},
		},
	}
}

func TestWrite_Succeeds(t *testing.T) {
	db := &fakeAPI{}
	tx := NewTransactor(db, zap.NewNop())

	if err := tx.Write(context.Background(), "test", nil); err != nil {
		t.Fatalf("Write() = %v, want nil", err)
	}
	if db.calls != 1 {
		t.Errorf("calls = %d, want 1", db.calls)
	}
}

func TestWrite_ConditionFailureIsTerminal(t *testing.T) {
	db := &fakeAPI{errs: []error{conditionalCancel()}}
	tx := NewTransactor(db, zap.NewNop())

	err := tx.Write(context.Background(), "test", nil)
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("Write() = %v, want ErrConditionFailed", err)
	}
	if db.calls != 1 {
		t.Errorf("conditional failure was retried: calls = %d, want 1", db.calls)
	}
}

func TestWrite_ReportsWhichConditionFailed(t *testing.T) {
	db := &fakeAPI{errs: []error{conditionalCancel()}}
	tx := NewTransactor(db, zap.NewNop())

	err := tx.Write(context.Background(), "test", nil)
	if !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("Write() = %v, want ErrConditionFailed", err)
	}
	if FailedCondition(err, 0) {
		t.Error("item 0 had reason None and must not report a failed condition")
	}
	if !FailedCondition(err, 1) {
		t.Error("item 1 had reason ConditionalCheckFailed and must report it")
	}
	if FailedCondition(err, 2) {
		t.Error("an index past the reasons slice must not report a failure")
	}
	if FailedCondition(errors.New("plain"), 0) {
		t.Error("a non-transaction error must not report a failed condition")
	}
}

func TestWrite_RetriesTransientThenSucceeds(t *testing.T) {
	db := &fakeAPI{errs: []error{transientCancel(), errors.New("throttled"), nil}}
	tx := NewTransactor(db, zap.NewNop())

	if err := tx.Write(context.Background(), "test", nil); err != nil {
		t.Fatalf("Write() = %v, want nil after retries", err)
	}
	if db.calls != 3 {
		t.Errorf("calls = %d, want 3", db.calls)
	}
}

func TestWrite_GivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("still broken")
	db := &fakeAPI{errs: []error{boom, boom, boom, boom}}
	tx := NewTransactor(db, zap.NewNop())

	err := tx.Write(context.Background(), "test", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Write() = %v, want original error", err)
	}
	if db.calls != 3 {
		t.Errorf("calls = %d, want 3 attempts", db.calls)
	}
}

func TestIsConditionalCancellation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("nope"), false},
		{"conditional cancellation", conditionalCancel(), true},
		{"transient cancellation", transientCancel(), false},
		{"single-item conditional", &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConditionalCancellation(tt.err); got != tt.want {
				t.Errorf("IsConditionalCancellation() = %v, want %v", got, tt.want)
			}
		})
	}
}
