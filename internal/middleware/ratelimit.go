package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type IPRateLimiter struct {
	visitors sync.Map
	rps      rate.Limit
	burst    int
	log      *zap.SugaredLogger
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(perMinute int, log *zap.SugaredLogger) *IPRateLimiter {
	l := &IPRateLimiter{
		rps:   rate.Limit(float64(perMinute) / 60.0),
		burst: 10,
		log:   log,
	}
	go l.cleanupVisitors()
	return l
}

func (l *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	if v, ok := l.visitors.Load(ip); ok {
		vi := v.(*visitor)
		vi.lastSeen = time.Now()
		return vi.limiter
	}
	lim := rate.NewLimiter(l.rps, l.burst)
	l.visitors.Store(ip, &visitor{limiter: lim, lastSeen: time.Now()})
	return lim
}

func (l *IPRateLimiter) cleanupVisitors() {
	for {
		time.Sleep(time.Minute)
		cutoff := time.Now().Add(-5 * time.Minute)
		l.visitors.Range(func(k, v any) bool {
			if v.(*visitor).lastSeen.Before(cutoff) {
				l.visitors.Delete(k)
			}
			return true
		})
	}
}

func (l *IPRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if ip == "" {
			ip = "unknown"
		}
		if !l.getLimiter(ip).Allow() {
			l.log.Warnw("rate limit exceeded", "ip", ip, "path", c.Path())
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
		}
		return c.Next()
	}
}
