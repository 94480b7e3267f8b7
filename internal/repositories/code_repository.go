package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var (
	ErrCodeMissing  = errors.New("no active verification code")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// CodeKind selects the verification channel.
type CodeKind string

const (
	CodeKindPhone CodeKind = "phone"
	CodeKindEmail CodeKind = "email"
)

// CodeRepository stores ephemeral verification codes. One active code per
// (user, kind): storing again overwrites, which is what invalidates the
// previous code on resend.
type CodeRepository interface {
	Store(ctx context.Context, kind CodeKind, userID, code string, ttl time.Duration) error

	// Consume validates and deletes the code in one logical operation. A
	// matching code is removed so it can never be accepted twice. On
	// mismatch the stored code survives for further attempts until TTL.
	Consume(ctx context.Context, kind CodeKind, userID, code string) error
}

type redisCodeRepository struct {
	client *redis.Client
}

func NewCodeRepository(client *redis.Client) CodeRepository {
	return &redisCodeRepository{client: client}
}

func codeKey(kind CodeKind, userID string) string {
	return fmt.Sprintf("verify:%s:%s", kind, userID)
}

func (r *redisCodeRepository) Store(ctx context.Context, kind CodeKind, userID, code string, ttl time.Duration) error {
	return r.client.Set(ctx, codeKey(kind, userID), code, ttl).Err()
}

func (r *redisCodeRepository) Consume(ctx context.Context, kind CodeKind, userID, code string) error {
	key := codeKey(kind, userID)

	stored, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCodeMissing
		}
		return err
	}

	if stored != code {
		return ErrCodeMismatch
	}

	return r.client.Del(ctx, key).Err()
}
