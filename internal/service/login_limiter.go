package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// LoginLimiter cuenta credenciales fallidas por email. Un login correcto nunca
// consume cupo y borra los fallos acumulados.
type LoginLimiter interface {
	// Blocked indica si la clave agoto sus intentos fallidos en la ventana.
	Blocked(ctx context.Context, key string) bool
	RecordFailure(ctx context.Context, key string)
	Reset(ctx context.Context, key string)
}

type memoryLoginLimiter struct {
	mu          sync.Mutex
	window      time.Duration
	maxFailures int
	failures    map[string][]time.Time
	now         func() time.Time
}

// NewMemoryLoginLimiter guarda los fallos en memoria del proceso.
func NewMemoryLoginLimiter(window time.Duration, maxFailures int) LoginLimiter {
	return newMemoryLoginLimiter(window, maxFailures)
}

func newMemoryLoginLimiter(window time.Duration, maxFailures int) *memoryLoginLimiter {
	window, maxFailures = limiterDefaults(window, maxFailures)
	return &memoryLoginLimiter{
		window:      window,
		maxFailures: maxFailures,
		failures:    make(map[string][]time.Time),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (l *memoryLoginLimiter) Blocked(_ context.Context, key string) bool {
	key = normalizeEmail(key)
	if key == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(key)) >= l.maxFailures
}

func (l *memoryLoginLimiter) RecordFailure(_ context.Context, key string) {
	key = normalizeEmail(key)
	if key == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures[key] = append(l.prune(key), l.now())
}

func (l *memoryLoginLimiter) Reset(_ context.Context, key string) {
	key = normalizeEmail(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.failures, key)
}

// prune descarta fallos fuera de la ventana; una clave sin fallos sale del mapa.
// Requiere l.mu tomado.
func (l *memoryLoginLimiter) prune(key string) []time.Time {
	cutoff := l.now().Add(-l.window)
	entries := l.failures[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(l.failures, key)
		return nil
	}
	l.failures[key] = kept
	return kept
}

// El TTL se fija con el primer fallo, asi la ventana corre desde ese intento.
const redisLoginFailureScript = `
local failures = redis.call("INCR", KEYS[1])
if failures == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return failures
`

type redisFailureCounter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisLoginLimiter struct {
	client      redisFailureCounter
	window      time.Duration
	maxFailures int
	prefix      string
}

// NewRedisLoginLimiter comparte el conteo de fallos entre instancias. Si Redis
// no responde el login sigue adelante.
func NewRedisLoginLimiter(client *redis.Client, window time.Duration, maxFailures int) LoginLimiter {
	if client == nil {
		return nil
	}
	window, maxFailures = limiterDefaults(window, maxFailures)
	return &redisLoginLimiter{
		client:      client,
		window:      window,
		maxFailures: maxFailures,
		prefix:      "login:fail:",
	}
}

func (l *redisLoginLimiter) Blocked(ctx context.Context, key string) bool {
	redisKey, ok := l.key(key)
	if !ok {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	raw, err := l.client.Get(ctx, redisKey).Result()
	if err != nil {
		return false
	}
	failures, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	return failures >= l.maxFailures
}

func (l *redisLoginLimiter) RecordFailure(ctx context.Context, key string) {
	redisKey, ok := l.key(key)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	_ = l.client.Eval(ctx, redisLoginFailureScript, []string{redisKey}, seconds).Err()
}

func (l *redisLoginLimiter) Reset(ctx context.Context, key string) {
	redisKey, ok := l.key(key)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	_ = l.client.Del(ctx, redisKey).Err()
}

func (l *redisLoginLimiter) key(raw string) (string, bool) {
	if l == nil || l.client == nil {
		return "", false
	}
	normalized := normalizeEmail(raw)
	if normalized == "" {
		return "", false
	}
	return l.prefix + normalized, true
}

func limiterDefaults(window time.Duration, maxFailures int) (time.Duration, int) {
	if window <= 0 {
		window = time.Minute
	}
	if maxFailures <= 0 {
		maxFailures = 1
	}
	return window, maxFailures
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
