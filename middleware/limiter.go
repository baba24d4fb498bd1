package middleware

import (
	"time"

	"lms/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// AuthRateLimiter throttles credential endpoints per client IP. It is
// disabled when running under APP_ENV=test.
func AuthRateLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return config.AppConfig != nil && config.AppConfig.Env == "test"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return JsonResponse(c, fiber.StatusTooManyRequests, false, "Too many requests, please try again later.", nil)
		},
	})
}
