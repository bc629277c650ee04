// Package jsonptr implements the two small JSON algorithms the master
// engine and slice function library need: RFC 6901 JSON Pointer
// lookup and RFC 7396 JSON Merge Patch. Neither algorithm is exposed
// by any library in the example corpus with an API that matches the
// spec's semantics exactly (gjson/sjson use a dotted path dialect, not
// RFC 6901 pointers), so both are implemented directly here against
// the standard decoded-JSON representation (map[string]any, []any,
// and scalar types as produced by encoding/json).
package jsonptr

import (
	"strconv"
	"strings"
)

// Get resolves an RFC 6901 JSON Pointer against doc. An empty pointer
// ("") returns doc itself. Returns ok=false if any segment of the
// pointer cannot be resolved (missing object key, out-of-range array
// index, or indexing into a scalar).
func Get(doc any, pointer string) (any, bool) {
	if pointer == "" {
		return doc, true
	}
	if !strings.HasPrefix(pointer, "/") {
		return nil, false
	}

	cur := doc
	for _, tok := range strings.Split(pointer[1:], "/") {
		tok = unescape(tok)

		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[tok]
			if !ok {
				return nil, false
			}
			cur = next

		case []any:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			cur = v[idx]

		default:
			return nil, false
		}
	}
	return cur, true
}

// unescape reverses the RFC 6901 "~1" -> "/" and "~0" -> "~" escaping.
func unescape(tok string) string {
	if !strings.Contains(tok, "~") {
		return tok
	}
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}
