package audit

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/store/dynamo"
	"github.com/acm-uiuc/core-sub001/internal/domain/models"
)

type capturePut struct {
	dynamo.API
	input *dynamodb.PutItemInput
}

func (c *capturePut) PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	c.input = in
	return &dynamodb.PutItemOutput{}, nil
}

func TestBuildTransactPut(t *testing.T) {
	s := New(nil, "audit-log", zap.NewNop())

	entry := models.AuditLogEntry{
		Module:  models.ModuleOrgInfo,
		Actor:   "officer@illinois.edu",
		Target:  "jdoe@illinois.edu",
		Message: "Added target as a lead of ACM.",
	}
	item, err := s.BuildTransactPut(entry)
	if err != nil {
		t.Fatalf("BuildTransactPut: %v", err)
	}
	if item.Put == nil {
		t.Fatal("expected a Put item")
	}
	if got := aws.ToString(item.Put.TableName); got != "audit-log" {
		t.Errorf("TableName = %q, want audit-log", got)
	}

	var stored storedEntry
	if err := attributevalue.UnmarshalMap(item.Put.Item, &stored); err != nil {
		t.Fatalf("unmarshal stored entry: %v", err)
	}
	if stored.Actor != entry.Actor || stored.Target != entry.Target || stored.Module != entry.Module {
		t.Errorf("stored entry = %+v, want fields from %+v", stored.AuditLogEntry, entry)
	}

	wantExpire := stored.CreatedAt + RetentionDays*24*60*60
	if stored.ExpireAt != wantExpire {
		t.Errorf("ExpireAt = %d, want %d", stored.ExpireAt, wantExpire)
	}
	now := time.Now().Unix()
	if stored.CreatedAt < now-5 || stored.CreatedAt > now+5 {
		t.Errorf("CreatedAt = %d, not near now (%d)", stored.CreatedAt, now)
	}
}

func TestLog(t *testing.T) {
	db := &capturePut{}
	s := New(db, "audit-log", zap.NewNop())

	err := s.Log(context.Background(), models.AuditLogEntry{
		Module:  models.ModuleInvoicing,
		Actor:   "treasurer@illinois.edu",
		Target:  "INV-42",
		Message: "Charged invoice.",
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if db.input == nil {
		t.Fatal("PutItem was not called")
	}
	if got := aws.ToString(db.input.TableName); got != "audit-log" {
		t.Errorf("TableName = %q, want audit-log", got)
	}
}
