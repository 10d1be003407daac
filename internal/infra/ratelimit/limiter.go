package ratelimit

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Limites do endpoint público de leads. As duas contagens são independentes:
// estourou qualquer uma → 429 antes de gastar quota do CRM.
const (
	IPLimit  = 10
	IPWindow = time.Minute

	EmailLimit  = 3
	EmailWindow = time.Hour
)

// Limiter é implementado em memória (instância única) ou em Redis
// (várias instâncias atrás de um balanceador).
type Limiter interface {
	AllowIP(ctx context.Context, ip string) bool
	AllowEmail(ctx context.Context, email string) bool
}

// HashEmail: o email normalizado nunca vira chave em claro — HMAC-SHA256
// com salt do ambiente, pra não estocar PII em contador.
func HashEmail(salt, email string) string {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(email))
	return hex.EncodeToString(mac.Sum(nil))
}
