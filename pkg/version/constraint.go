// SPDX-License-Identifier: MPL-2.0

package version

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConstraint is the sentinel error wrapped by InvalidConstraintError.
var ErrInvalidConstraint = errors.New("invalid version constraint")

type (
	// Bound is one end of a range.
	Bound struct {
		Version   *Version
		Inclusive bool
	}

	// Range is a version interval. A nil bound means the interval is open on that side.
	Range struct {
		Lower *Bound
		Upper *Bound
	}

	// Constraint is either a soft requirement on a single version or a union of ranges.
	Constraint struct {
		// Version is set for soft requirements ("1.0").
		Version *Version
		// Ranges is set for range constraints ("[1.0,2.0)").
		Ranges []Range
		// Original is the string the constraint was parsed from.
		Original string
	}

	// InvalidConstraintError is returned when a constraint string cannot be parsed.
	InvalidConstraintError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid version constraint %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidConstraint for errors.Is() compatibility.
func (e *InvalidConstraintError) Unwrap() error { return ErrInvalidConstraint }

// ParseConstraint parses a soft requirement or a union of bracketed ranges.
func ParseConstraint(s string) (*Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &InvalidConstraintError{Value: s, Reason: "empty constraint"}
	}

	if !strings.HasPrefix(s, "[") && !strings.HasPrefix(s, "(") {
		v, err := Parse(s)
		if err != nil {
			return nil, &InvalidConstraintError{Value: s, Reason: err.Error()}
		}
		return &Constraint{Version: v, Original: s}, nil
	}

	c := &Constraint{Original: s}
	rest := s
	for rest != "" {
		if !strings.HasPrefix(rest, "[") && !strings.HasPrefix(rest, "(") {
			return nil, &InvalidConstraintError{Value: s, Reason: "range must start with '[' or '('"}
		}
		end := strings.IndexAny(rest, "])")
		if end < 0 {
			return nil, &InvalidConstraintError{Value: s, Reason: "unterminated range"}
		}
		r, err := parseRange(rest[:end+1])
		if err != nil {
			return nil, &InvalidConstraintError{Value: s, Reason: err.Error()}
		}
		c.Ranges = append(c.Ranges, r)

		rest = strings.TrimSpace(rest[end+1:])
		if strings.HasPrefix(rest, ",") {
			rest = strings.TrimSpace(rest[1:])
			if rest == "" {
				return nil, &InvalidConstraintError{Value: s, Reason: "trailing comma"}
			}
		} else if rest != "" {
			return nil, &InvalidConstraintError{Value: s, Reason: "ranges must be separated by ','"}
		}
	}
	return c, nil
}

func parseRange(expr string) (Range, error) {
	lowerInclusive := expr[0] == '['
	upperInclusive := expr[len(expr)-1] == ']'
	body := strings.TrimSpace(expr[1 : len(expr)-1])

	if !strings.Contains(body, ",") {
		if !lowerInclusive || !upperInclusive {
			return Range{}, fmt.Errorf("single version %q must be enclosed in []", body)
		}
		v, err := Parse(body)
		if err != nil {
			return Range{}, err
		}
		return Range{Lower: &Bound{Version: v, Inclusive: true}, Upper: &Bound{Version: v, Inclusive: true}}, nil
	}

	lowerStr, upperStr, _ := strings.Cut(body, ",")
	if strings.Contains(upperStr, ",") {
		return Range{}, fmt.Errorf("range %q has more than two bounds", expr)
	}
	lowerStr, upperStr = strings.TrimSpace(lowerStr), strings.TrimSpace(upperStr)

	var r Range
	if lowerStr != "" {
		v, err := Parse(lowerStr)
		if err != nil {
			return Range{}, err
		}
		r.Lower = &Bound{Version: v, Inclusive: lowerInclusive}
	}
	if upperStr != "" {
		v, err := Parse(upperStr)
		if err != nil {
			return Range{}, err
		}
		r.Upper = &Bound{Version: v, Inclusive: upperInclusive}
	}

	if r.Lower != nil && r.Upper != nil {
		switch c := r.Lower.Version.Compare(r.Upper.Version); {
		case c > 0:
			return Range{}, fmt.Errorf("lower bound %s is above upper bound %s", r.Lower.Version, r.Upper.Version)
		case c == 0 && (!r.Lower.Inclusive || !r.Upper.Inclusive):
			return Range{}, fmt.Errorf("range %q is empty", expr)
		}
	}
	return r, nil
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v *Version) bool {
	if r.Lower != nil {
		c := v.Compare(r.Lower.Version)
		if c < 0 || (c == 0 && !r.Lower.Inclusive) {
			return false
		}
	}
	if r.Upper != nil {
		c := v.Compare(r.Upper.Version)
		if c > 0 || (c == 0 && !r.Upper.Inclusive) {
			return false
		}
	}
	return true
}

// String renders the range in bracket notation.
func (r Range) String() string {
	var sb strings.Builder
	if r.Lower != nil && r.Lower.Inclusive {
		sb.WriteString("[")
	} else {
		sb.WriteString("(")
	}
	if r.Lower != nil {
		sb.WriteString(r.Lower.Version.String())
	}
	if r.Lower == nil || r.Upper == nil || r.Lower.Version != r.Upper.Version {
		sb.WriteString(",")
		if r.Upper != nil {
			sb.WriteString(r.Upper.Version.String())
		}
	}
	if r.Upper != nil && r.Upper.Inclusive {
		sb.WriteString("]")
	} else {
		sb.WriteString(")")
	}
	return sb.String()
}

// IsRange reports whether the constraint is a range rather than a soft requirement.
func (c *Constraint) IsRange() bool { return len(c.Ranges) > 0 }

// Contains reports whether v satisfies the constraint. A soft requirement is
// satisfied only by an equal version.
func (c *Constraint) Contains(v *Version) bool {
	if !c.IsRange() {
		return c.Version.Equal(v)
	}
	for _, r := range c.Ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

// HasUpperBound reports whether the constraint caps the versions it accepts.
// A union is unbounded when any of its ranges is. Soft requirements are bounded.
func (c *Constraint) HasUpperBound() bool {
	for _, r := range c.Ranges {
		if r.Upper == nil {
			return false
		}
	}
	return true
}

// Filter returns the versions satisfying the constraint, in ascending order.
func (c *Constraint) Filter(versions []*Version) []*Version {
	var out []*Version
	for _, v := range versions {
		if c.Contains(v) {
			out = append(out, v)
		}
	}
	Sort(out)
	return out
}

// String returns the original constraint string.
func (c *Constraint) String() string { return c.Original }
