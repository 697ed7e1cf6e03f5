package cipher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ytget/ytinfo/internal/logger"
)

const (
	jsIdent = `[a-zA-Z_$][a-zA-Z0-9_$]*`

	// headerWindow bounds how far back from the split statement the function header may start.
	headerWindow = 256

	probeAlphabet = "abcdefghijklmnop"
	probeArg      = 3
)

var (
	// splitRe finds "p=p.split("")" statements; the two identifiers are compared afterwards.
	splitRe = regexp.MustCompile(`(` + jsIdent + `)\s*=\s*(` + jsIdent + `)\.split\(\s*(?:""|'')\s*\)\s*;`)
	closeRe = regexp.MustCompile(`^\s*;?\s*\}`)

	memberFuncRe  = regexp.MustCompile(`(?s)^\s*(?:"([^"]+)"|'([^']+)'|(` + jsIdent + `))\s*:\s*function\s*\(([^)]*)\)\s*\{(.*)\}\s*$`)
	memberArrowRe = regexp.MustCompile(`(?s)^\s*(?:"([^"]+)"|'([^']+)'|(` + jsIdent + `))\s*:\s*\(([^)]*)\)\s*=>\s*\{(.*)\}\s*$`)
	memberShortRe = regexp.MustCompile(`(?s)^\s*(` + jsIdent + `)\s*\(([^)]*)\)\s*\{(.*)\}\s*$`)
)

// Evaluator executes a helper method against a probe array. It is consulted
// only for helper bodies whose shape is not recognised structurally.
type Evaluator interface {
	// Probe calls fn (a function expression taking the array and a number)
	// with input and arg and returns the resulting array.
	Probe(fn string, input []string, arg int) ([]string, error)
}

type entryCall struct {
	method string
	arg    int
	hasArg bool
}

type entryFunc struct {
	param  string
	helper string
	calls  []entryCall
}

type helperMethod struct {
	name   string
	params []string
	body   string
}

// Derive recovers the transformation program from player script text.
// The result depends only on script; errors are *Error and match
// errs.ErrDecodeUnavailable.
func Derive(script string) (Program, error) {
	return DeriveWith(script, nil)
}

// DeriveWith is Derive with an optional evaluator for helper bodies that do
// not match a known shape.
func DeriveWith(script string, ev Evaluator) (Program, error) {
	log := logger.WithComponent(logger.ComponentCipher)

	if strings.TrimSpace(script) == "" {
		return nil, NewError(ErrCodeEmptyScript, "player script is empty")
	}

	entry, ok := findEntry(script)
	if !ok {
		return nil, NewError(ErrCodeEntryNotFound, "no split/join entry function in player script")
	}

	methods, err := findHelper(script, entry.helper)
	if err != nil {
		return nil, err
	}

	kinds := make(map[string]OpKind, len(methods))
	prog := make(Program, 0, len(entry.calls))
	for _, c := range entry.calls {
		m, ok := methods[c.method]
		if !ok {
			return nil, NewError(ErrCodeMethodNotFound, "helper method not defined", map[string]any{
				"helper": entry.helper,
				"method": c.method,
			})
		}
		kind, ok := kinds[c.method]
		if !ok {
			kind, err = classify(m, ev)
			if err != nil {
				return nil, err
			}
			kinds[c.method] = kind
		}
		op := Op{Kind: kind}
		if kind != Reverse {
			if !c.hasArg {
				return nil, NewError(ErrCodeMissingArgument, "call site has no numeric argument", map[string]any{
					"method": c.method,
					"op":     kind.String(),
				})
			}
			op.Arg = c.arg
		}
		prog = append(prog, op)
	}

	log.Debug("derived program", map[string]interface{}{
		"helper":  entry.helper,
		"ops":     len(prog),
		"program": prog.String(),
	})
	return prog, nil
}

// findEntry locates the first function of the form
// function(p){p=p.split("");H.m(p,n);...;return p.join("")}.
func findEntry(script string) (*entryFunc, bool) {
	for _, loc := range splitRe.FindAllStringSubmatchIndex(script, -1) {
		lhs, rhs := script[loc[2]:loc[3]], script[loc[4]:loc[5]]
		if lhs != rhs {
			continue
		}
		p := regexp.QuoteMeta(lhs)

		from := loc[0] - headerWindow
		if from < 0 {
			from = 0
		}
		headerRe := regexp.MustCompile(`(?:\bfunction(?:\s+` + jsIdent + `)?\s*\(\s*` + p + `\s*\)|\(\s*` + p + `\s*\)\s*=>|(?:^|[^a-zA-Z0-9_$])` + p + `\s*=>)\s*\{\s*$`)
		if !headerRe.MatchString(script[from:loc[0]]) {
			continue
		}

		rest := script[loc[1]:]
		joinRe := regexp.MustCompile(`return\s+` + p + `\.join\(\s*(?:""|'')\s*\)`)
		ret := joinRe.FindStringIndex(rest)
		if ret == nil || !closeRe.MatchString(rest[ret[1]:]) {
			continue
		}

		helper, calls, ok := parseCalls(rest[:ret[0]], lhs)
		if !ok {
			continue
		}
		return &entryFunc{param: lhs, helper: helper, calls: calls}, true
	}
	return nil, false
}

// parseCalls reads the pipeline statements of the entry function. Every
// statement must call a method of one shared helper with param as first argument.
func parseCalls(body, param string) (string, []entryCall, bool) {
	p := regexp.QuoteMeta(param)
	callRe := regexp.MustCompile(`^(?:` + p + `\s*=\s*)?(` + jsIdent + `)\s*(?:\.\s*(` + jsIdent + `)|\[\s*(?:"([^"]+)"|'([^']+)')\s*\])\s*\(\s*` + p + `\s*(?:,\s*(-?\d+)\s*)?\)$`)

	var helper string
	var calls []entryCall
	for _, stmt := range strings.Split(body, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		m := callRe.FindStringSubmatch(stmt)
		if m == nil {
			return "", nil, false
		}
		if helper == "" {
			helper = m[1]
		} else if helper != m[1] {
			return "", nil, false
		}
		c := entryCall{method: firstNonEmpty(m[2], m[3], m[4])}
		if m[5] != "" {
			n, err := strconv.Atoi(m[5])
			if err != nil {
				return "", nil, false
			}
			c.arg, c.hasArg = n, true
		}
		calls = append(calls, c)
	}
	if len(calls) == 0 || helper == param {
		return "", nil, false
	}
	return helper, calls, true
}

// findHelper extracts the members of the object literal assigned to name.
func findHelper(script, name string) (map[string]helperMethod, error) {
	declRe := regexp.MustCompile(`\b(?:var|let|const)\s+` + regexp.QuoteMeta(name) + `\s*=\s*\{`)
	loc := declRe.FindStringIndex(script)
	if loc == nil {
		return nil, NewError(ErrCodeHelperNotFound, "helper object not declared", map[string]any{"helper": name})
	}
	body, ok := braceBody(script, loc[1]-1)
	if !ok {
		return nil, NewError(ErrCodeHelperNotFound, "helper object not terminated", map[string]any{"helper": name})
	}

	methods := make(map[string]helperMethod)
	for _, member := range splitTopLevel(body, ',') {
		if m, ok := parseMember(member); ok {
			methods[m.name] = m
		}
	}
	return methods, nil
}

func parseMember(member string) (helperMethod, bool) {
	if m := memberFuncRe.FindStringSubmatch(member); m != nil {
		return helperMethod{name: firstNonEmpty(m[1], m[2], m[3]), params: splitParams(m[4]), body: m[5]}, true
	}
	if m := memberArrowRe.FindStringSubmatch(member); m != nil {
		return helperMethod{name: firstNonEmpty(m[1], m[2], m[3]), params: splitParams(m[4]), body: m[5]}, true
	}
	if m := memberShortRe.FindStringSubmatch(member); m != nil {
		return helperMethod{name: m[1], params: splitParams(m[2]), body: m[3]}, true
	}
	return helperMethod{}, false
}

// classify maps a helper body onto one of the three operations.
func classify(m helperMethod, ev Evaluator) (OpKind, error) {
	if len(m.params) >= 1 {
		a := regexp.QuoteMeta(m.params[0])
		if regexp.MustCompile(`^\s*(?:return\s+)?` + a + `\.reverse\(\s*\)\s*;?\s*$`).MatchString(m.body) {
			return Reverse, nil
		}
		if len(m.params) >= 2 {
			b := regexp.QuoteMeta(m.params[1])
			if regexp.MustCompile(`^\s*(?:return\s+)?` + a + `\.splice\(\s*0\s*,\s*` + b + `\s*\)\s*;?\s*$`).MatchString(m.body) {
				return DropFront, nil
			}
			idx := `\[\s*` + b + `(?:\s*%\s*` + a + `\.length)?\s*\]`
			swapRe := regexp.MustCompile(`^\s*(?:var|let|const)\s+(` + jsIdent + `)\s*=\s*` + a + `\[\s*0\s*\]\s*;\s*` +
				a + `\[\s*0\s*\]\s*=\s*` + a + idx + `\s*;\s*` +
				a + idx + `\s*=\s*(` + jsIdent + `)\s*;?\s*(?:return\s+` + a + `\s*;?\s*)?$`)
			if sm := swapRe.FindStringSubmatch(m.body); sm != nil && sm[1] == sm[2] {
				return SwapWithFront, nil
			}
		}
	}

	if ev != nil {
		return probe(m, ev)
	}
	return 0, NewError(ErrCodeMethodUnrecognized, "helper method shape not recognised", map[string]any{"method": m.name})
}

// probe runs the method on a fixed array and compares the result with each operation.
func probe(m helperMethod, ev Evaluator) (OpKind, error) {
	fn := "function(" + strings.Join(m.params, ",") + "){" + m.body + "}"
	out, err := ev.Probe(fn, strings.Split(probeAlphabet, ""), probeArg)
	if err != nil {
		return 0, NewError(ErrCodeMethodUnrecognized, "helper method probe failed", map[string]any{
			"method": m.name,
			"error":  err.Error(),
		})
	}
	got := strings.Join(out, "")
	for _, kind := range []OpKind{Reverse, SwapWithFront, DropFront} {
		if got == (Program{{Kind: kind, Arg: probeArg}}).Apply(probeAlphabet) {
			logger.WithComponent(logger.ComponentCipher).Debug("classified helper by probe", map[string]interface{}{
				"method": m.name,
				"op":     kind.String(),
			})
			return kind, nil
		}
	}
	return 0, NewError(ErrCodeMethodUnrecognized, "helper method behaves like no known operation", map[string]any{
		"method": m.name,
		"probe":  got,
	})
}

// braceBody returns the text between s[open] == '{' and its matching brace,
// skipping string literals.
func braceBody(s string, open int) (string, bool) {
	if open < 0 || open >= len(s) || s[open] != '{' {
		return "", false
	}
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[open+1 : i], true
			}
		}
	}
	return "", false
}

// splitTopLevel splits s at sep outside brackets and string literals.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '{', '(', '[':
			depth++
		case '}', ')', ']':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func splitParams(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
