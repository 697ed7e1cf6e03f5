package jsvm

import (
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// Goja evaluates probes with github.com/dop251/goja.
type Goja struct {
	Timeout time.Duration
}

// Probe implements cipher.Evaluator.
func (g *Goja) Probe(fn string, input []string, arg int) ([]string, error) {
	src, err := probeProgram(fn, input, arg)
	if err != nil {
		return nil, err
	}

	vm := goja.New()
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt(ErrTimeout)
	})
	defer timer.Stop()

	v, err := vm.RunString(src)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("goja: %w", err)
	}
	return splitResult(v.String()), nil
}
