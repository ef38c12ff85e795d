package invoice

import (
	"errors"
	"fmt"
	"strings"
)

// Operator is a status comparison operator drawn from a closed allow-list.
// Anything outside the list is rejected before any query is built.
type Operator string

const (
	OpEqual       Operator = "="
	OpNotEqual    Operator = "!="
	OpNotEqualAlt Operator = "<>"
	OpLike        Operator = "LIKE"
	OpNotLike     Operator = "NOT LIKE"
)

var ErrInvalidOperator = errors.New("invalid filter operator")

var allowedOperators = map[Operator]bool{
	OpEqual:       true,
	OpNotEqual:    true,
	OpNotEqualAlt: true,
	OpLike:        true,
	OpNotLike:     true,
}

// ParseOperator matches raw case-insensitively against the operator
// allow-list.
func ParseOperator(raw string) (Operator, error) {
	op := Operator(strings.ToUpper(strings.TrimSpace(raw)))
	if !allowedOperators[op] {
		return "", fmt.Errorf("%w: %q", ErrInvalidOperator, raw)
	}
	return op, nil
}

// StatusFilter is a validated status predicate for invoice listing. The
// value is only ever passed to the store as a bound parameter, never spliced
// into query text.
type StatusFilter struct {
	Operator Operator
	Value    string
}

// NewStatusFilter builds a filter from raw request input. A status without
// an operator defaults to equality; no status at all means no filter (the
// unconditional ownership scoping is applied by the repository regardless).
// An operator is validated even when no status accompanies it.
func NewStatusFilter(status, operator string) (*StatusFilter, error) {
	if operator != "" {
		op, err := ParseOperator(operator)
		if err != nil {
			return nil, err
		}
		if status == "" {
			return nil, nil
		}
		return &StatusFilter{Operator: op, Value: status}, nil
	}
	if status == "" {
		return nil, nil
	}
	return &StatusFilter{Operator: OpEqual, Value: status}, nil
}

// SQL renders the predicate as a parameterized fragment starting at the
// given placeholder index. The returned args always carry the filter value;
// the clause text is assembled exclusively from fixed strings.
func (f *StatusFilter) SQL(argIndex int) (string, []interface{}) {
	args := []interface{}{f.Value}
	switch f.Operator {
	case OpNotEqual, OpNotEqualAlt:
		return fmt.Sprintf("status <> $%d", argIndex), args
	case OpLike:
		return fmt.Sprintf("status LIKE $%d", argIndex), args
	case OpNotLike:
		return fmt.Sprintf("status NOT LIKE $%d", argIndex), args
	default:
		return fmt.Sprintf("status = $%d", argIndex), args
	}
}

// Matches applies the filter in-memory with the same semantics the SQL
// rendering has. LIKE patterns support the standard % and _ wildcards on the
// literal value.
func (f *StatusFilter) Matches(status string) bool {
	switch f.Operator {
	case OpNotEqual, OpNotEqualAlt:
		return status != f.Value
	case OpLike:
		return likeMatch(f.Value, status)
	case OpNotLike:
		return !likeMatch(f.Value, status)
	default:
		return status == f.Value
	}
}

// likeMatch evaluates a SQL LIKE pattern against s.
func likeMatch(pattern, s string) bool {
	return likeMatchAt(pattern, s)
}

func likeMatchAt(pattern, s string) bool {
	if pattern == "" {
		return s == ""
	}
	switch pattern[0] {
	case '%':
		for i := 0; i <= len(s); i++ {
			if likeMatchAt(pattern[1:], s[i:]) {
				return true
			}
		}
		return false
	case '_':
		return s != "" && likeMatchAt(pattern[1:], s[1:])
	default:
		return s != "" && s[0] == pattern[0] && likeMatchAt(pattern[1:], s[1:])
	}
}
