// Package deeplink validates untrusted deeplink query parameters against per-route schemas.
//
// Validation is all-or-nothing: either every field required by a [Schema] is present and
// well formed, and a [Params] record is returned, or nothing is returned at all. No per-field
// error detail is surfaced.
package deeplink

import (
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Schema maps a required field name to its kind. Schemas have no optional fields and no defaults.
type Schema map[string]Kind

// Fields returns the schema field names in sorted order.
func (s Schema) Fields() []string {
	fields := make([]string, 0, len(s))
	for f := range s {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return fields
}

// Predicate inspects a fully validated record and may veto it.
type Predicate func(Params) bool

// Params is a validated parameter record. It is only produced by [Validate] and holds exactly the
// fields of the schema it was validated against.
type Params map[string]string

// Get returns the validated value for field, or the empty string.
func (p Params) Get(field string) string {
	return p[field]
}

// Address returns field as an EVM address.
func (p Params) Address(field string) common.Address {
	return common.HexToAddress(p[field])
}

// Uint64 parses field as an unsigned 64 bit integer.
func (p Params) Uint64(field string) (uint64, error) {
	v, err := strconv.ParseUint(p[field], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", field, err)
	}

	return v, nil
}

// BigInt parses field as an arbitrary precision unsigned integer.
func (p Params) BigInt(field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(p[field], 10)
	if !ok {
		return nil, fmt.Errorf("field %q: not an integer", field)
	}

	return v, nil
}

// Validate checks raw query data against schema. For each schema field the first value is taken
// when the raw value has several, and a missing field counts as empty. It returns false if any
// field is empty or fails its kind check, or if any of the predicates vetoes the record.
func Validate(raw url.Values, schema Schema, predicates ...Predicate) (Params, bool) {
	out := make(Params, len(schema))
	for field, kind := range schema {
		v := first(raw[field])
		if !kind.Check(v) {
			return nil, false
		}
		out[field] = v
	}

	for _, pred := range predicates {
		if pred != nil && !pred(out) {
			return nil, false
		}
	}

	return out, true
}

// ErrInvalidParams is returned when a deeplink does not satisfy its route schema.
var ErrInvalidParams = errors.New("invalid parameters")

// ValidateURL parses a full deeplink URL and validates its query against schema.
func ValidateURL(rawURL string, schema Schema, predicates ...Predicate) (Params, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deeplink: %w", err)
	}

	params, ok := Validate(u.Query(), schema, predicates...)
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrInvalidParams, u.Path)
	}

	return params, nil
}

func first(vs []string) string {
	if len(vs) == 0 {
		return ""
	}

	return vs[0]
}
