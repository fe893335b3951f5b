package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/testtrackhq/testtrack-backend/internal/logger"
	"github.com/testtrackhq/testtrack-backend/internal/types"
)

// RolesCache keeps per-user role sets with a short TTL so the authorization
// gate does not hit postgres on every request.
type RolesCache interface {
	Get(ctx context.Context, userID uuid.UUID) ([]types.Role, bool, error)
	Set(ctx context.Context, userID uuid.UUID, roles []types.Role) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
	Close() error
}

type rolesCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRolesCache(log *logger.Logger) (RolesCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &rolesCache{
		log: log.With("service", "RedisRolesCache"),
		rdb: rdb,
		ttl: 60 * time.Second,
	}, nil
}

func rolesKey(userID uuid.UUID) string {
	return "roles:" + userID.String()
}

func (rc *rolesCache) Get(ctx context.Context, userID uuid.UUID) ([]types.Role, bool, error) {
	raw, err := rc.rdb.Get(ctx, rolesKey(userID)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var roles []types.Role
	if err := json.Unmarshal(raw, &roles); err != nil {
		return nil, false, fmt.Errorf("decode cached roles: %w", err)
	}
	return roles, true, nil
}

func (rc *rolesCache) Set(ctx context.Context, userID uuid.UUID, roles []types.Role) error {
	raw, err := json.Marshal(roles)
	if err != nil {
		return fmt.Errorf("encode roles: %w", err)
	}
	if err := rc.rdb.Set(ctx, rolesKey(userID), raw, rc.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (rc *rolesCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := rc.rdb.Del(ctx, rolesKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (rc *rolesCache) Close() error {
	return rc.rdb.Close()
}
