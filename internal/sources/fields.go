package sources

import (
	"strconv"
	"strings"
)

// The scraping sources return the same datum under varying field names
// depending on which path produced the item. These helpers resolve a value
// by trying an ordered list of aliases and taking the first non-empty one.

func firstString(item map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := item[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
	}
	return ""
}

func firstInt(item map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := item[k].(type) {
		case float64:
			if v != 0 {
				return int(v)
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n != 0 {
				return n
			}
		}
	}
	return 0
}

// nestedString walks nested objects, e.g. community.name.
func nestedString(item map[string]any, keys ...string) string {
	current := item
	for i, k := range keys {
		if i == len(keys)-1 {
			s, _ := current[k].(string)
			return s
		}
		next, ok := current[k].(map[string]any)
		if !ok {
			return ""
		}
		current = next
	}
	return ""
}

// truncate bounds a string to n runes without splitting a character.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
