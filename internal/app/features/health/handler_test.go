package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type fakeTable struct {
	err error
}

func (f *fakeTable) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.DescribeTableOutput{}, nil
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func serve(t *testing.T, db *fakeTable, rdb *fakePinger) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	h := NewHandler(db, "infra-core-api-sig-info", rdb, zap.NewNop())
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return rec, resp
}

func TestServe_Healthy(t *testing.T) {
	rec, resp := serve(t, &fakeTable{}, &fakePinger{})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if resp.Status != "ok" || resp.Database != "connected" || resp.Locks != "connected" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestServe_DatabaseDown(t *testing.T) {
	rec, resp := serve(t, &fakeTable{err: errors.New("no credentials")}, &fakePinger{})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp.Status != "error" || resp.Database != "disconnected" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestServe_RedisDown(t *testing.T) {
	rec, resp := serve(t, &fakeTable{}, &fakePinger{err: errors.New("connection refused")})

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	if resp.Locks != "disconnected" {
		t.Errorf("resp = %+v", resp)
	}
}
