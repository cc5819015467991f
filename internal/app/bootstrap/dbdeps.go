// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/redis/go-redis/v9"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	Dynamo *dynamodb.Client
	Redis  *redis.Client
}
