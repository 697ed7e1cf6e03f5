// Package jsvm runs small JavaScript helper functions against a probe array.
// It backs cipher.Evaluator with either goja or otto.
package jsvm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/ytinfo/youtube/cipher"
)

// DefaultTimeout bounds a single probe.
const DefaultTimeout = 2 * time.Second

// Engine names accepted by New.
const (
	EngineGoja = "goja"
	EngineOtto = "otto"
	EngineNone = "none"
)

// ErrTimeout is returned when a probe exceeds its time budget.
var ErrTimeout = errors.New("jsvm: probe timed out")

const sep = "\x00"

// New returns the evaluator for engine. "" selects goja; "none" returns nil.
func New(engine string, timeout time.Duration) (cipher.Evaluator, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineGoja:
		return &Goja{Timeout: timeout}, nil
	case EngineOtto:
		return &Otto{Timeout: timeout}, nil
	case EngineNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("jsvm: unknown engine %q", engine)
	}
}

// probeProgram builds an expression that calls fn on a copy of input and
// yields the resulting array joined with sep. A function that returns an
// array yields that array; otherwise the mutated input is used.
func probeProgram(fn string, input []string, arg int) (string, error) {
	lit, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`(function(){var a=%s;var f=(%s);var r=f(a,%d);return (Array.isArray(r)?r:a).join(%q);})()`,
		lit, fn, arg, sep), nil
}

func splitResult(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, sep)
}
