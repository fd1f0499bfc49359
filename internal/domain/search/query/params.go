package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Pagination limits.
const (
	DefaultLimit    = 20
	DefaultMaxLimit = 500
	MaxOffset       = 10000
)

// Whitelisted parameter keys read by ParseParams.
const (
	ParamText   = "q"
	ParamLimit  = "limit"
	ParamOffset = "offset"
)

// Params is the untrusted caller input a Builder starts from.
type Params struct {
	Text   string
	Limit  int
	Offset int
}

// DefaultParams returns an empty search with the default page size.
func DefaultParams() Params {
	return Params{Limit: DefaultLimit}
}

// ParseParams reads q, limit and offset from values and ignores every other key.
// Missing or non-numeric limit/offset fall back to their defaults. A value
// with trailing garbage such as "12abc" is non-numeric as a whole; its
// leading digits are not used.
func ParseParams(values url.Values) Params {
	p := DefaultParams()
	if values == nil {
		return p
	}
	p.Text = values.Get(ParamText)
	if n, ok := parseInt(values.Get(ParamLimit)); ok {
		p.Limit = n
	}
	if n, ok := parseInt(values.Get(ParamOffset)); ok {
		p.Offset = n
	}
	return p
}

func parseInt(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
