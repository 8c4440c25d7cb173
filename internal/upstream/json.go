package upstream

import (
	"strings"

	"github.com/bitly/go-simplejson"
)

// String returns the trimmed string at path, or "" when the leaf is absent or not a string.
func String(js *simplejson.Json, path ...string) string {
	if js == nil {
		return ""
	}
	value, err := js.GetPath(path...).String()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// Int returns the integer at path and whether it was present.
func Int(js *simplejson.Json, path ...string) (int, bool) {
	if js == nil {
		return 0, false
	}
	value, err := js.GetPath(path...).Int()
	if err != nil {
		return 0, false
	}
	return value, true
}

// Float returns the number at path and whether it was present.
func Float(js *simplejson.Json, path ...string) (float64, bool) {
	if js == nil {
		return 0, false
	}
	value, err := js.GetPath(path...).Float64()
	if err != nil {
		return 0, false
	}
	return value, true
}

// Len returns the length of the array at path, or -1 when it is not an array.
func Len(js *simplejson.Json, path ...string) int {
	if js == nil {
		return -1
	}
	arr, err := js.GetPath(path...).Array()
	if err != nil {
		return -1
	}
	return len(arr)
}

// Has reports whether path resolves to a non-null value.
func Has(js *simplejson.Json, path ...string) bool {
	if js == nil {
		return false
	}
	return js.GetPath(path...).Interface() != nil
}
