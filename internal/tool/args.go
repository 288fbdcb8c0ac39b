package tool

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/hal9000y/gmail-imap-mcp/internal/mailerr"
)

// positiveInt reads an optional integer argument. JSON numbers arrive as float64, so whole floats
// are accepted.
func positiveInt(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}

	var n int64
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt32 || x < math.MinInt32 {
			return 0, mailerr.InvalidArgument("%s must be an integer, got %v", key, x)
		}
		n = int64(x)
	case int:
		n = int64(x)
	case int64:
		n = x
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, mailerr.InvalidArgument("%s must be an integer, got %q", key, x.String())
		}
		n = i
	default:
		return 0, mailerr.InvalidArgument("%s must be an integer, got %T", key, v)
	}

	if n <= 0 || n > math.MaxInt32 {
		return 0, mailerr.InvalidArgument("%s must be a positive integer, got %d", key, n)
	}

	return int(n), nil
}

func requiredString(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", mailerr.InvalidArgument("missing required argument %s", key)
	}

	s, ok := v.(string)
	if !ok {
		return "", mailerr.InvalidArgument("%s must be a string, got %T", key, v)
	}
	if strings.TrimSpace(s) == "" {
		return "", mailerr.InvalidArgument("%s must not be empty", key)
	}

	return s, nil
}

// emailID reads email_id. Clients that send the id as a number are tolerated.
func emailID(args map[string]any) (string, uint32, error) {
	const key = "email_id"

	var raw string
	switch v := args[key].(type) {
	case float64:
		raw = strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		raw = v.String()
	case int:
		raw = strconv.Itoa(v)
	default:
		s, err := requiredString(args, key)
		if err != nil {
			return "", 0, err
		}
		raw = strings.TrimSpace(s)
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return "", 0, mailerr.InvalidArgument("%s must be a positive message number, got %q", key, raw)
	}

	return raw, uint32(id), nil
}
