package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBlacklist menyimpan hash token yang dicabut dengan TTL = sisa umur token.
type RedisBlacklist struct {
	Client *redis.Client
	Prefix string
}

func NewRedisBlacklist(client *redis.Client) *RedisBlacklist {
	return &RedisBlacklist{Client: client, Prefix: "jwt:revoked:"}
}

func (b *RedisBlacklist) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return b.Prefix + hex.EncodeToString(sum[:])
}

func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := b.Client.Exists(ctx, b.key(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return b.Client.Set(ctx, b.key(token), 1, ttl).Err()
}
