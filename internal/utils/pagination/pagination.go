package pagination

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// ParseLimit reads the "limit" query parameter, falling back to def when it
// is missing or not a positive integer and capping it at max.
func ParseLimit(c *fiber.Ctx, def, max int) int {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}
