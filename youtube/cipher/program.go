package cipher

import (
	"strconv"
	"strings"
)

// OpKind names one of the three signature transformations.
type OpKind int

const (
	Reverse OpKind = iota + 1
	SwapWithFront
	DropFront
)

func (k OpKind) String() string {
	switch k {
	case Reverse:
		return "reverse"
	case SwapWithFront:
		return "swap"
	case DropFront:
		return "drop"
	default:
		return "unknown"
	}
}

// Op is one step of a Program. Arg is ignored for Reverse.
type Op struct {
	Kind OpKind
	Arg  int
}

func (o Op) String() string {
	if o.Kind == Reverse {
		return o.Kind.String()
	}
	return o.Kind.String() + "(" + strconv.Itoa(o.Arg) + ")"
}

// Program is an ordered list of operations recovered from a player script.
type Program []Op

// String renders the program as a comma separated list, e.g. "reverse,swap(3),drop(2)".
func (p Program) String() string {
	parts := make([]string, len(p))
	for i, op := range p {
		parts[i] = op.String()
	}
	return strings.Join(parts, ",")
}

// Apply runs the program over sig and returns the decoded signature.
// It works on runes and never mutates shared state.
func (p Program) Apply(sig string) string {
	s := []rune(sig)
	for _, op := range p {
		switch op.Kind {
		case Reverse:
			s = reverseRunes(s)
		case SwapWithFront:
			s = swapRunes(s, op.Arg)
		case DropFront:
			s = dropRunes(s, op.Arg)
		}
	}
	return string(s)
}

func reverseRunes(s []rune) []rune {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}

// swapRunes exchanges s[0] and s[n mod len(s)].
func swapRunes(s []rune, n int) []rune {
	if len(s) <= 1 {
		return s
	}
	n %= len(s)
	if n < 0 {
		n += len(s)
	}
	s[0], s[n] = s[n], s[0]
	return s
}

// dropRunes removes the first n runes, clamped to [0, len(s)].
func dropRunes(s []rune, n int) []rune {
	if n <= 0 {
		return s
	}
	if n > len(s) {
		n = len(s)
	}
	return s[n:]
}
