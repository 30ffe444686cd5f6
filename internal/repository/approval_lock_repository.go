package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const approvalLockPrefix = "rotation-request:lock:"

// releaseLockScript deletes the key only when it still holds the caller's token.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ApprovalLockRepository serializes decisions on the same request across API instances.
type ApprovalLockRepository struct {
	client *redis.Client
}

// NewApprovalLockRepository constructs the lock store.
func NewApprovalLockRepository(client *redis.Client) *ApprovalLockRepository {
	return &ApprovalLockRepository{client: client}
}

// Acquire takes the lock for requestID. ok is false when another holder owns it.
func (r *ApprovalLockRepository) Acquire(ctx context.Context, requestID string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, approvalLockPrefix+requestID, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire approval lock %s: %w", requestID, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release drops the lock if it is still owned by token.
func (r *ApprovalLockRepository) Release(ctx context.Context, requestID, token string) error {
	if err := releaseLockScript.Run(ctx, r.client, []string{approvalLockPrefix + requestID}, token).Err(); err != nil {
		return fmt.Errorf("release approval lock %s: %w", requestID, err)
	}
	return nil
}
