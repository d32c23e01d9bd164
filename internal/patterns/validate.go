package patterns

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNestedQuantifier is returned for patterns where an unbounded
	// quantifier applies to a group that already contains one, the classic
	// catastrophic-backtracking shape such as (a+)+ or (a*)*.
	ErrNestedQuantifier = errors.New("nested unbounded quantifier")

	// ErrDuplicateAlternation is returned when an alternation repeats the
	// same branch, e.g. (a|a)+, which multiplies the match search space.
	ErrDuplicateAlternation = errors.New("duplicate alternation branch")

	// ErrUnbalancedGroup is returned for patterns with unbalanced parentheses.
	ErrUnbalancedGroup = errors.New("unbalanced group")
)

// groupState tracks, for one open group, whether an unbounded quantifier has
// been seen inside it and the alternation branches collected so far.
type groupState struct {
	unbounded bool
	branches  []string
	branchBuf strings.Builder
}

func (g *groupState) closeBranch() {
	g.branches = append(g.branches, g.branchBuf.String())
	g.branchBuf.Reset()
}

func (g *groupState) hasDuplicateBranch() bool {
	if len(g.branches) < 2 {
		return false
	}
	seen := make(map[string]struct{}, len(g.branches))
	for _, b := range g.branches {
		if _, dup := seen[b]; dup {
			return true
		}
		seen[b] = struct{}{}
	}
	return false
}

// ValidateRegexShape rejects regex bodies matching known catastrophic
// backtracking shapes before they ever reach the matcher. Go's regexp engine
// is linear-time, but patterns are part of an operator-editable rule set that
// may also be evaluated by other engines downstream, so the unsafe shapes are
// rejected outright at load time.
func ValidateRegexShape(body string) error {
	top := &groupState{}
	stack := []*groupState{top}

	runes := []rune(body)
	i := 0
	for i < len(runes) {
		r := runes[i]
		cur := stack[len(stack)-1]

		switch r {
		case '\\':
			if i+1 < len(runes) {
				cur.branchBuf.WriteRune(r)
				cur.branchBuf.WriteRune(runes[i+1])
				i += 2
				continue
			}
			i++
		case '[':
			end := scanCharClass(runes, i)
			for j := i; j < end; j++ {
				cur.branchBuf.WriteRune(runes[j])
			}
			i = end
		case '(':
			stack = append(stack, &groupState{})
			i++
		case ')':
			if len(stack) < 2 {
				return ErrUnbalancedGroup
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := stack[len(stack)-1]

			closed.closeBranch()
			if closed.hasDuplicateBranch() {
				return fmt.Errorf("%w before position %d", ErrDuplicateAlternation, i)
			}

			unboundedNext, qlen := quantifierAt(runes, i+1)
			if unboundedNext && closed.unbounded {
				return fmt.Errorf("%w at position %d", ErrNestedQuantifier, i)
			}
			if unboundedNext || closed.unbounded {
				parent.unbounded = true
			}
			parent.branchBuf.WriteString("(#)")
			i += 1 + qlen
		case '|':
			cur.closeBranch()
			i++
		case '*', '+':
			cur.unbounded = true
			cur.branchBuf.WriteRune(r)
			i++
		case '{':
			unbounded, qlen := quantifierAt(runes, i)
			if qlen == 0 {
				// not a repetition, treat as a literal brace
				cur.branchBuf.WriteRune(r)
				i++
				continue
			}
			if unbounded {
				cur.unbounded = true
			}
			for j := i; j < i+qlen; j++ {
				cur.branchBuf.WriteRune(runes[j])
			}
			i += qlen
		default:
			cur.branchBuf.WriteRune(r)
			i++
		}
	}

	if len(stack) != 1 {
		return ErrUnbalancedGroup
	}
	top.closeBranch()
	if top.hasDuplicateBranch() {
		return ErrDuplicateAlternation
	}
	return nil
}

// scanCharClass returns the index one past the closing bracket of the
// character class starting at runes[start].
func scanCharClass(runes []rune, start int) int {
	i := start + 1
	if i < len(runes) && runes[i] == '^' {
		i++
	}
	// a ']' immediately after the opening (or after '^') is a literal
	if i < len(runes) && runes[i] == ']' {
		i++
	}
	for i < len(runes) {
		switch runes[i] {
		case '\\':
			i += 2
		case ']':
			return i + 1
		default:
			i++
		}
	}
	return i
}

// quantifierAt inspects the token at runes[pos] and reports whether it is an
// unbounded quantifier, along with the token length. Bounded repetitions such
// as {2,5} are not unbounded; {2,} and {0,} are.
func quantifierAt(runes []rune, pos int) (unbounded bool, length int) {
	if pos >= len(runes) {
		return false, 0
	}
	switch runes[pos] {
	case '*', '+':
		return true, 1
	case '?':
		return false, 1
	case '{':
		end := pos + 1
		for end < len(runes) && runes[end] != '}' {
			end++
		}
		if end >= len(runes) {
			return false, 0
		}
		inner := string(runes[pos+1 : end])
		length = end - pos + 1
		if idx := strings.IndexRune(inner, ','); idx >= 0 {
			upper := strings.TrimSpace(inner[idx+1:])
			return upper == "", length
		}
		return false, length
	}
	return false, 0
}
