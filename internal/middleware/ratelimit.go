package middleware

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`
// for the named resource. It keys by authenticated userID (if set in
// c.Locals("userID")) otherwise by remote IP. When Redis is unavailable the
// request is allowed (fail-open); rate limiting is a protection, not a
// correctness requirement.
// Limiting is disabled when APP_ENV is "test" or "development" so dev and CI
// workflows are not throttled.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
		switch env {
		case "test", "development":
			return c.Next()
		}

		if rdb == nil {
			return c.Next()
		}

		id := c.IP()
		if uid, ok := c.Locals("userID").(uint); ok {
			id = strconv.FormatUint(uint64(uid), 10)
		}

		key := fmt.Sprintf("rl:%s:%s", resource, id)

		// INCR and set EXPIRE if new
		cnt, err := rdb.Incr(c.Context(), key).Result()
		if err != nil {
			Logger.WarnContext(c.UserContext(), "rate limit check failed, allowing request",
				"resource", resource, "error", err.Error())
			return c.Next()
		}
		if cnt == 1 {
			rdb.Expire(c.Context(), key, window)
		}
		if cnt > int64(limit) {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}
		return c.Next()
	}
}
