// internal/app/store/dynamo/transact.go
package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Retry policy for transient transaction failures.
const (
	maxRetries     = 2 // 3 attempts total
	baseRetryDelay = 100 * time.Millisecond
)

// ErrConditionFailed reports that a transactional write was cancelled because
// a condition expression failed. It is a terminal, expected outcome, never
// retried, and stores translate it into their own sentinel errors
// (already-exists, already-removed, duplicate-charge).
var ErrConditionFailed = errors.New("transaction condition failed")

// ConditionError is the concrete error Write returns for a conditional
// cancellation. It unwraps to ErrConditionFailed, and it keeps the per-item
// cancellation reasons so stores with more than one condition in a
// transaction can tell which one failed.
type ConditionError struct {
	op     string
	failed []bool
}

func (e *ConditionError) Error() string {
	return e.op + ": " + ErrConditionFailed.Error()
}

func (e *ConditionError) Unwrap() error { return ErrConditionFailed }

func newConditionError(op string, err error) *ConditionError {
	ce := &ConditionError{op: op}
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		ce.failed = make([]bool, len(cancelled.CancellationReasons))
		for i, reason := range cancelled.CancellationReasons {
			ce.failed[i] = aws.ToString(reason.Code) == "ConditionalCheckFailed"
		}
	}
	return ce
}

// FailedCondition reports whether item i of the cancelled transaction failed
// its condition expression. The reasons slice is positional, matching the
// transact items as submitted. False when err carries no per-item reasons.
func FailedCondition(err error, i int) bool {
	var ce *ConditionError
	if !errors.As(err, &ce) {
		return false
	}
	return i >= 0 && i < len(ce.failed) && ce.failed[i]
}

// API is the slice of the DynamoDB client the stores use. Declared here so
// tests can substitute a fake without a live endpoint.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, opts ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Transactor wraps multi-item transactional writes with bounded retries for
// transient failures. Conditional-check cancellations surface immediately as
// ErrConditionFailed so callers can branch on a value instead of parsing
// error strings.
type Transactor struct {
	db  API
	log *zap.Logger
}

func NewTransactor(db API, logger *zap.Logger) *Transactor {
	return &Transactor{db: db, log: logger}
}

// Write executes one transaction. name labels the operation in retry logs.
func (t *Transactor) Write(ctx context.Context, name string, items []types.TransactWriteItem) error {
	attempt := 0
	op := func() error {
		attempt++
		_, err := t.db.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err == nil {
			return nil
		}
		if IsConditionalCancellation(err) {
			return backoff.Permanent(newConditionError(name, err))
		}
		t.log.Info("transaction failed, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseRetryDelay
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}

// IsConditionalCancellation reports whether err is a transaction cancelled
// (or single-item write rejected) specifically because a condition expression
// failed. Any other cancellation reason is treated as transient.
func IsConditionalCancellation(err error) bool {
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
		return false
	}
	var conditional *types.ConditionalCheckFailedException
	return errors.As(err, &conditional)
}
