package httpx

import (
	"net/http"
	"strconv"
	"strings"
)

// Bounds for the daily-check status listing.
const (
	DefaultStatusLimit = 20
	MaxStatusLimit     = 100
)

// ParseLimit reads ?limit=, falling back to def when it is absent or not a
// number, and clamps the result to [1, ceiling].
func ParseLimit(r *http.Request, def, ceiling int) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("limit")))
	if err != nil {
		n = def
	}
	return min(max(n, 1), max(ceiling, 1))
}
