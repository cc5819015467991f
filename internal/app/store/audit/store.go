// internal/app/store/audit/store.go
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

// RetentionDays is how long audit entries live before DynamoDB TTL expiry.
const RetentionDays = 365

// storedEntry is the persisted shape: the entry plus createdAt (sort key)
// and the TTL attribute.
type storedEntry struct {
	models.AuditLogEntry
	CreatedAt int64 `dynamodbav:"createdAt"`
	ExpireAt  int64 `dynamodbav:"expireAt"`
}

// Store writes and queries audit log entries. The table is keyed
// (module, createdAt).
type Store struct {
	db    dynamo.API
	table string
	log   *zap.Logger
}

func New(db dynamo.API, table string, logger *zap.Logger) *Store {
	return &Store{db: db, table: table, log: logger}
}

func marshalEntry(entry models.AuditLogEntry, now time.Time) (map[string]types.AttributeValue, error) {
	ts := now.Unix()
	item := storedEntry{
		AuditLogEntry: entry,
		CreatedAt:     ts,
		ExpireAt:      ts + RetentionDays*24*60*60,
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("marshal audit entry: %w", err)
	}
	return av, nil
}

// BuildTransactPut returns the entry as a transactable put so callers can
// write it in the same transaction as the record mutation it describes.
func (s *Store) BuildTransactPut(entry models.AuditLogEntry) (types.TransactWriteItem, error) {
	item, err := marshalEntry(entry, time.Now().UTC())
	if err != nil {
		return types.TransactWriteItem{}, err
	}
	return types.TransactWriteItem{
		Put: &types.Put{
			TableName: aws.String(s.table),
			Item:      item,
		},
	}, nil
}

// Log writes a single entry outside any transaction.
func (s *Store) Log(ctx context.Context, entry models.AuditLogEntry) error {
	item, err := marshalEntry(entry, time.Now().UTC())
	if err != nil {
		return err
	}
	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}

// ListEntry is one row returned by List.
type ListEntry struct {
	models.AuditLogEntry
	CreatedAt time.Time `json:"createdAt"`
}

// List returns the most recent entries for a module, newest first.
func (s *Store) List(ctx context.Context, module string, limit int32) ([]ListEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	out, err := s.db.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#m = :module"),
		ExpressionAttributeNames: map[string]string{
			"#m": "module",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":module": &types.AttributeValueMemberS{Value: module},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("query audit entries for %s: %w", module, err)
	}

	entries := make([]ListEntry, 0, len(out.Items))
	for _, item := range out.Items {
		var stored storedEntry
		if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
			s.log.Warn("skipping unreadable audit entry", zap.Error(err))
			continue
		}
		entries = append(entries, ListEntry{
			AuditLogEntry: stored.AuditLogEntry,
			CreatedAt:     time.Unix(stored.CreatedAt, 0).UTC(),
		})
	}
	return entries, nil
}
