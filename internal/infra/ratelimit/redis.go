package ratelimit

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter: contadores compartilhados entre instâncias via INCR+EXPIRE.
// Contagem aproximada entre réplicas é aceitável; o INCR em si é atômico.
// Redis fora do ar → fail-open (admite e loga): preferimos um lead a mais
// no CRM do que derrubar captura por causa do limiter.
type RedisLimiter struct {
	rdb  *redis.Client
	salt string
}

func NewRedisLimiter(rdb *redis.Client, salt string) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, salt: salt}
}

func (l *RedisLimiter) AllowIP(ctx context.Context, ip string) bool {
	return l.allow(ctx, "ratelimit:ip:"+ip, IPLimit, IPWindow)
}

func (l *RedisLimiter) AllowEmail(ctx context.Context, email string) bool {
	return l.allow(ctx, "ratelimit:email:"+HashEmail(l.salt, email), EmailLimit, EmailWindow)
}

func (l *RedisLimiter) allow(ctx context.Context, key string, limit int64, window time.Duration) bool {
	count, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		log.Printf("⚠️ RateLimit: Redis indisponível (%s), admitindo request", err)
		return true
	}

	// Primeira batida da janela arma o TTL.
	if count == 1 {
		if err := l.rdb.Expire(ctx, key, window).Err(); err != nil {
			log.Printf("⚠️ RateLimit: falha ao armar TTL de %s: %s", key, err)
		}
	}

	return count <= limit
}
