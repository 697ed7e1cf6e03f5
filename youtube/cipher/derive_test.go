package cipher

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ytget/ytinfo/errs"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join("testdata", name)
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", p, err)
	}
	return string(b)
}

func TestDeriveWithFixture(t *testing.T) {
	tests := []struct {
		name     string
		fixture  string
		program  Program
		input    string
		expected string
	}{
		{
			name:     "v1 dotted calls",
			fixture:  "synthetic_base_v1.js",
			program:  Program{{Kind: Reverse}, {Kind: SwapWithFront, Arg: 3}, {Kind: DropFront, Arg: 2}, {Kind: SwapWithFront, Arg: 7}},
			input:    "abcdefghij",
			expected: "ajfedcbh",
		},
		{
			name:     "v2 bracket calls and arrow entry",
			fixture:  "synthetic_base_v2.js",
			program:  Program{{Kind: SwapWithFront, Arg: 5}, {Kind: Reverse}, {Kind: DropFront, Arg: 3}},
			input:    "abcdefghij",
			expected: "gaedcbf",
		},
		{
			name:     "v3 declared function and renamed params",
			fixture:  "synthetic_base_v3.js",
			program:  Program{{Kind: DropFront, Arg: 1}, {Kind: Reverse}, {Kind: DropFront, Arg: 2}},
			input:    "abcdef",
			expected: "dcb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Derive(loadFixture(t, tt.fixture))
			if err != nil {
				t.Fatalf("Derive() error = %v", err)
			}
			if !reflect.DeepEqual(prog, tt.program) {
				t.Fatalf("Derive() = %v, want %v", prog, tt.program)
			}
			if got := prog.Apply(tt.input); got != tt.expected {
				t.Fatalf("Apply() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDeriveIsPure(t *testing.T) {
	script := loadFixture(t, "synthetic_base_v1.js")
	a, errA := Derive(script)
	b, errB := Derive(script)
	if errA != nil || errB != nil {
		t.Fatalf("Derive errors: %v, %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("programs differ: %v vs %v", a, b)
	}
}

func TestDeriveFailures(t *testing.T) {
	const entry = `var f=function(a){a=a.split("");Hp.m1(a,2);Hp.m2(a,4);return a.join("")};`

	tests := []struct {
		name   string
		script string
		code   string
	}{
		{name: "empty", script: "   ", code: ErrCodeEmptyScript},
		{name: "no entry", script: "var x=1;function y(a){return a}", code: ErrCodeEntryNotFound},
		{name: "no join", script: `function(a){a=a.split("");Hp.m1(a,2);return a}`, code: ErrCodeEntryNotFound},
		{name: "mixed helpers", script: `function(a){a=a.split("");Hp.m1(a,2);Other.m2(a,4);return a.join("")}`, code: ErrCodeEntryNotFound},
		{name: "no helper", script: entry, code: ErrCodeHelperNotFound},
		{name: "unterminated helper", script: `var Hp={m1:function(a,b){a.splice(0,b)}` + entry, code: ErrCodeHelperNotFound},
		{
			name:   "method missing",
			script: `var Hp={m1:function(a,b){a.splice(0,b)}};` + entry,
			code:   ErrCodeMethodNotFound,
		},
		{
			name:   "method unrecognised",
			script: `var Hp={m1:function(a,b){a.splice(0,b)},m2:function(a,b){a.push(b)}};` + entry,
			code:   ErrCodeMethodUnrecognized,
		},
		{
			name:   "missing argument",
			script: `var Hp={m1:function(a,b){a.splice(0,b)}};var f=function(a){a=a.split("");Hp.m1(a);return a.join("")};`,
			code:   ErrCodeMissingArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := Derive(tt.script)
			if err == nil {
				t.Fatalf("Derive() = %v, want error %s", prog, tt.code)
			}
			if got := Code(err); got != tt.code {
				t.Fatalf("Code() = %q, want %q (%v)", got, tt.code, err)
			}
			if !errors.Is(err, errs.ErrDecodeUnavailable) {
				t.Fatalf("error %v should match ErrDecodeUnavailable", err)
			}
		})
	}
}

func TestDeriveReverseWithoutArgument(t *testing.T) {
	script := `var Hp={r:function(a){a.reverse()}};function d(a){a=a.split("");Hp.r(a);return a.join("")}`
	prog, err := Derive(script)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if got := prog.Apply("abc"); got != "cba" {
		t.Fatalf("Apply() = %q", got)
	}
}

type fakeEvaluator struct {
	calls int
	fn    func(input []string, arg int) ([]string, error)
}

func (f *fakeEvaluator) Probe(fn string, input []string, arg int) ([]string, error) {
	f.calls++
	return f.fn(append([]string(nil), input...), arg)
}

func TestDeriveProbesUnknownShapes(t *testing.T) {
	script := `var Hp={k:function(a,b){for(var i=0;i<b;i++)a.shift()},r:function(a){a.reverse()}};` +
		`var f=function(a){a=a.split("");Hp.k(a,2);Hp.r(a,0);Hp.k(a,1);return a.join("")};`

	ev := &fakeEvaluator{fn: func(in []string, arg int) ([]string, error) {
		return in[arg:], nil
	}}
	prog, err := DeriveWith(script, ev)
	if err != nil {
		t.Fatalf("DeriveWith() error = %v", err)
	}
	want := Program{{Kind: DropFront, Arg: 2}, {Kind: Reverse}, {Kind: DropFront, Arg: 1}}
	if !reflect.DeepEqual(prog, want) {
		t.Fatalf("DeriveWith() = %v, want %v", prog, want)
	}
	if ev.calls != 1 {
		t.Fatalf("expected one probe per distinct unknown method, got %d", ev.calls)
	}

	if _, err := Derive(script); Code(err) != ErrCodeMethodUnrecognized {
		t.Fatalf("Derive() without evaluator = %v, want unrecognised", err)
	}
}

func TestDeriveProbeMismatch(t *testing.T) {
	script := `var Hp={k:function(a,b){a.sort()}};var f=function(a){a=a.split("");Hp.k(a,2);return a.join("")};`
	ev := &fakeEvaluator{fn: func(in []string, arg int) ([]string, error) {
		return []string{strings.Join(in, "-")}, nil
	}}
	_, err := DeriveWith(script, ev)
	if !IsUnrecognized(err) || !errors.Is(err, errs.ErrDecodeUnavailable) {
		t.Fatalf("DeriveWith() = %v, want unrecognised", err)
	}

	failing := &fakeEvaluator{fn: func([]string, int) ([]string, error) {
		return nil, errors.New("boom")
	}}
	if _, err := DeriveWith(script, failing); !IsUnrecognized(err) {
		t.Fatalf("DeriveWith() with failing evaluator = %v", err)
	}
}

func TestBraceBodyHonoursStrings(t *testing.T) {
	s := `x={a:"}",b:'{',c:` + "`}`" + `,d:{e:1}};`
	body, ok := braceBody(s, 2)
	if !ok {
		t.Fatal("braceBody failed")
	}
	want := `a:"}",b:'{',c:` + "`}`" + `,d:{e:1}`
	if body != want {
		t.Fatalf("braceBody = %q, want %q", body, want)
	}
	if _, ok := braceBody("{a:1", 0); ok {
		t.Fatal("unterminated body should fail")
	}
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel(`a:function(a,b){x(1,2)},b:",",c:[1,2]`, ',')
	want := []string{`a:function(a,b){x(1,2)}`, `b:","`, `c:[1,2]`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitTopLevel = %q, want %q", got, want)
	}
}
