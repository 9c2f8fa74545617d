package security

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"realtime-session-server/config"
	"realtime-session-server/internal/model"
	"realtime-session-server/internal/util"
)

// UnknownIdentity : общий bucket для запросов, у которых не удалось
// определить адрес клиента. Сознательно мягкий режим: это не граница
// безопасности сама по себе
const UnknownIdentity = "unknown"

// RateLimitError несет текст отказа для конкретного маршрута
type RateLimitError struct {
	Message string
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func (e *RateLimitError) Is(target error) bool {
	return target == model.ErrRateLimited
}

type throttleWindow struct {
	count       int
	windowStart time.Time
}

// Throttler : скользящее окно запросов на пару (клиент, маршрут).
// Состояние локально для процесса, между инстансами не разделяется
type Throttler struct {
	mu          sync.Mutex
	windows     map[string]*throttleWindow
	rules       map[string]config.ThrottleRule
	defaultRule config.ThrottleRule
	now         func() time.Time
}

func NewThrottler(cfg *config.ThrottleConfig) *Throttler {
	rules := make(map[string]config.ThrottleRule, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		rules[rule.Route] = rule
	}

	defaultRule := cfg.Default
	if defaultRule.WindowMillis <= 0 {
		defaultRule.WindowMillis = 60000
	}
	if defaultRule.Limit <= 0 {
		defaultRule.Limit = 100
	}
	if defaultRule.Message == "" {
		defaultRule.Message = "слишком много запросов"
	}

	return &Throttler{
		windows:     make(map[string]*throttleWindow),
		rules:       rules,
		defaultRule: defaultRule,
		now:         time.Now,
	}
}

// Check проверяет и сразу учитывает запрос: проверка и инкремент выполняются
// под одной блокировкой, иначе два одновременных запроса проходят лимит 1
func (t *Throttler) Check(clientIdentity string, route string) error {
	rule, ok := t.rules[route]
	if !ok {
		rule = t.defaultRule
	}
	if rule.Message == "" {
		rule.Message = t.defaultRule.Message
	}
	windowSize := time.Duration(rule.WindowMillis) * time.Millisecond

	t.mu.Lock()
	defer t.mu.Unlock()

	key := clientIdentity + "|" + route
	window := t.windows[key]
	now := t.now()

	if window == nil || now.Sub(window.windowStart) >= windowSize {
		t.windows[key] = &throttleWindow{count: 1, windowStart: now}
		return nil
	}

	window.count++
	if window.count > rule.Limit {
		return &RateLimitError{Message: rule.Message}
	}

	return nil
}

// ClientIdentity определяет клиента: левый адрес из X-Forwarded-For,
// иначе адрес соединения, иначе общий sentinel. Никогда не ошибается
func ClientIdentity(request *http.Request) string {
	forwarded := request.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if addr := strings.TrimSpace(first); addr != "" {
			return addr
		}
	}

	if request.RemoteAddr != "" {
		host, _, err := net.SplitHostPort(request.RemoteAddr)
		if err == nil && host != "" {
			return host
		}
		return request.RemoteAddr
	}

	return UnknownIdentity
}

func RateLimitMiddleware(throttler *Throttler, route string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if err := throttler.Check(ClientIdentity(request), route); err != nil {
				util.HandleError(writer, err.Error(), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
