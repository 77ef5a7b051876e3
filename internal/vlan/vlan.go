// Package vlan implements the range-set algebra used to read and rewrite VLAN
// membership lists such as "1-3,5,7-8".
//
// The functions are pure and operate on arbitrary integers. Domain checks
// against the 802.1Q id space are left to callers via Validate.
package vlan

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// VLAN id bounds.
const (
	MinID = 1
	MaxID = 4094
)

// AllIDs is the canonical set covering every usable VLAN id.
const AllIDs = "1-4094"

// Sentinel errors.
var (
	ErrInvalidRangeSyntax = errors.New("invalid vlan range syntax")
	ErrOutOfRange         = errors.New("vlan id out of range")
)

// Range is an inclusive pair of VLAN ids.
type Range struct {
	Low  int
	High int
}

func (r Range) String() string {
	if r.Low == r.High {
		return strconv.Itoa(r.Low)
	}
	return strconv.Itoa(r.Low) + "-" + strconv.Itoa(r.High)
}

// ParseRanges converts "n" and "n-m" tokens into inclusive ranges.
func ParseRanges(tokens []string) ([]Range, error) {
	out := make([]Range, 0, len(tokens))
	for _, tok := range tokens {
		r, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Parse splits a comma-separated set and parses every token.
// The empty string is the empty set.
func Parse(set string) ([]Range, error) {
	return ParseRanges(Tokens(set))
}

// Tokens splits a comma-separated set into trimmed tokens.
func Tokens(set string) []string {
	set = strings.TrimSpace(set)
	if set == "" {
		return nil
	}
	parts := strings.Split(set, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseToken(tok string) (Range, error) {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return Range{}, fmt.Errorf("%w: empty token", ErrInvalidRangeSyntax)
	}
	lowStr, highStr, isRange := strings.Cut(tok, "-")
	low, err := strconv.Atoi(strings.TrimSpace(lowStr))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRangeSyntax, tok)
	}
	if !isRange {
		return Range{Low: low, High: low}, nil
	}
	high, err := strconv.Atoi(strings.TrimSpace(highStr))
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRangeSyntax, tok)
	}
	if low > high {
		return Range{}, fmt.Errorf("%w: %q has low > high", ErrInvalidRangeSyntax, tok)
	}
	return Range{Low: low, High: high}, nil
}

// Unify sorts ranges and merges overlapping or adjacent ones into the minimal
// ascending cover. The input slice is not modified.
func Unify(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Low == sorted[j].Low {
			return sorted[i].High < sorted[j].High
		}
		return sorted[i].Low < sorted[j].Low
	})

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Low <= last.High+1 {
			if r.High > last.High {
				last.High = r.High
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Render emits ranges as a comma-joined string in the order given.
func Render(ranges []Range) string {
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, ",")
}

// Canonical returns the merged, sorted, range-compressed form of set.
func Canonical(set string) (string, error) {
	ranges, err := Parse(set)
	if err != nil {
		return "", err
	}
	return Render(Unify(ranges)), nil
}

// Expand lists every individual id of set, token by token ("5-7" -> "5,6,7").
// Token order is preserved and nothing is deduplicated.
func Expand(set string) (string, error) {
	ranges, err := Parse(set)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, r := range ranges {
		for id := r.Low; id <= r.High; id++ {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(id))
		}
	}
	return b.String(), nil
}

// IDs returns every id covered by ranges in ascending order without duplicates.
func IDs(ranges []Range) []int {
	var ids []int
	for _, r := range Unify(ranges) {
		for id := r.Low; id <= r.High; id++ {
			ids = append(ids, id)
		}
	}
	return ids
}

// Remove drops id from set and returns the canonical result. Removing an
// absent id is a no-op apart from canonicalization.
func Remove(set string, id int) (string, error) {
	ranges, err := Parse(set)
	if err != nil {
		return "", err
	}
	kept := make([]Range, 0, len(ranges))
	for _, v := range IDs(ranges) {
		if v != id {
			kept = append(kept, Range{Low: v, High: v})
		}
	}
	return Render(Unify(kept)), nil
}

// Append returns the canonical union of set and addition.
func Append(set, addition string) (string, error) {
	tokens := append(Tokens(set), Tokens(addition)...)
	ranges, err := ParseRanges(tokens)
	if err != nil {
		return "", err
	}
	return Render(Unify(ranges)), nil
}

// Contains reports whether id is covered by set.
func Contains(set string, id int) (bool, error) {
	ranges, err := Parse(set)
	if err != nil {
		return false, err
	}
	for _, r := range ranges {
		if id >= r.Low && id <= r.High {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of distinct ids in set.
func Count(set string) (int, error) {
	ranges, err := Parse(set)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, r := range Unify(ranges) {
		n += r.High - r.Low + 1
	}
	return n, nil
}

// Validate rejects ranges that fall outside [MinID, MaxID].
func Validate(ranges []Range) error {
	for _, r := range ranges {
		if r.Low < MinID || r.High > MaxID {
			return fmt.Errorf("%w: %s not within %d-%d", ErrOutOfRange, r, MinID, MaxID)
		}
	}
	return nil
}

// ValidateID rejects a single id outside [MinID, MaxID].
func ValidateID(id int) error {
	return Validate([]Range{{Low: id, High: id}})
}
