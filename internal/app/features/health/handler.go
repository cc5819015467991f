// internal/app/features/health/handler.go
package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/acm-uiuc/core-sub001/internal/app/system/timeouts"
)

// TableAPI is the slice of the DynamoDB client the health check uses.
type TableAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// Pinger is the slice of the Redis client the health check uses.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	DB    TableAPI
	Table string
	Redis Pinger
	Log   *zap.Logger
}

// NewHandler constructs a health Handler with the database and Redis clients.
func NewHandler(db TableAPI, table string, rdb Pinger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:    db,
		Table: table,
		Redis: rdb,
		Log:   logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Locks    string `json:"locks"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "locks":"connected" }
//
// On dependency failure: 503 with the failing piece flagged.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Locks:    "connected",
	}

	if _, err := h.DB.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(h.Table),
	}); err != nil {
		h.Log.Error("health-check: dynamodb describe failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if err := h.Redis.Ping(ctx).Err(); err != nil {
		h.Log.Error("health-check: redis ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Locks = "disconnected"
		resp.Message = "Lock service unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	_ = json.NewEncoder(w).Encode(resp)
}
