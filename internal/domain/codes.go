package domain

import (
	"strings"

	"github.com/rs/zerolog/log"
)

// ParsePolicy decides what happens to an enum-like value nobody recognizes.
type ParsePolicy int

const (
	// FailClosed rejects unknown values with a ValidationError.
	FailClosed ParsePolicy = iota
	// DropUnknown logs the value and treats it as "no filter".
	DropUnknown
)

// PolicyFor maps the strict-filters setting onto a parse policy.
func PolicyFor(strict bool) ParsePolicy {
	if strict {
		return FailClosed
	}
	return DropUnknown
}

// normalizeCode trims and upper-cases; separators stay significant.
func normalizeCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

var separators = strings.NewReplacer("_", "", "-", "", " ", "")

// compactCode also strips separators, so "on-hand_desc" and "ONHANDDESC" compare equal.
func compactCode(raw string) string {
	return separators.Replace(normalizeCode(raw))
}

func codeTable[T ~string](values ...T) map[string]T {
	return keyedCodeTable(normalizeCode, values...)
}

func keyedCodeTable[T ~string](key func(string) string, values ...T) map[string]T {
	table := make(map[string]T, len(values))
	for _, v := range values {
		table[key(string(v))] = v
	}
	return table
}

// ParseCode resolves raw against codes. ok is false when raw is blank or was dropped.
func ParseCode[T ~string](field, raw string, codes map[string]T, policy ParsePolicy) (value T, ok bool, err error) {
	return parseCode(field, raw, normalizeCode, codes, policy)
}

func parseCode[T ~string](field, raw string, key func(string) string, codes map[string]T, policy ParsePolicy) (value T, ok bool, err error) {
	if strings.TrimSpace(raw) == "" {
		return value, false, nil
	}

	if v, found := codes[key(raw)]; found {
		return v, true, nil
	}

	if policy == DropUnknown {
		log.Warn().Str("field", field).Str("value", raw).Msg("ignoring unrecognized filter value")
		return value, false, nil
	}

	return value, false, NewValidationError(field, "unrecognized value %q", raw)
}
