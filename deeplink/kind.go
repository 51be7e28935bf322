package deeplink

import "regexp"

// Kind is the closed set of field kinds a route schema can require.
type Kind int

const (
	// KindAddress is a 0x-prefixed, 40 hex digit EVM address.
	KindAddress Kind = iota + 1
	// KindUint is a string of decimal digits.
	KindUint
	// KindDecimal is decimal digits with an optional single fractional part.
	KindDecimal
	// KindText is any non-empty string.
	KindText
)

var (
	addressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	uintRe    = regexp.MustCompile(`^\d+$`)
	decimalRe = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Check reports whether v satisfies the format rule of k. Empty values never pass.
func (k Kind) Check(v string) bool {
	if v == "" {
		return false
	}

	switch k {
	case KindAddress:
		return addressRe.MatchString(v)
	case KindUint:
		return uintRe.MatchString(v)
	case KindDecimal:
		return decimalRe.MatchString(v)
	case KindText:
		return true
	default:
		return false
	}
}

// String returns the short name used in route tables.
func (k Kind) String() string {
	switch k {
	case KindAddress:
		return "addr"
	case KindUint:
		return "int"
	case KindDecimal:
		return "dec"
	case KindText:
		return "str"
	default:
		return "unknown"
	}
}
