package jsvm

import (
	"fmt"
	"time"

	"github.com/robertkrimen/otto"
)

// Otto evaluates probes with github.com/robertkrimen/otto (ES5 only).
type Otto struct {
	Timeout time.Duration
}

// Probe implements cipher.Evaluator.
func (o *Otto) Probe(fn string, input []string, arg int) (out []string, err error) {
	src, err := probeProgram(fn, input, arg)
	if err != nil {
		return nil, err
	}

	vm := otto.New()
	vm.Interrupt = make(chan func(), 1)

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt <- func() { panic(ErrTimeout) }
	})
	defer timer.Stop()

	defer func() {
		if caught := recover(); caught != nil {
			if caught == ErrTimeout {
				out, err = nil, ErrTimeout
				return
			}
			panic(caught)
		}
	}()

	v, err := vm.Run(src)
	if err != nil {
		return nil, fmt.Errorf("otto: %w", err)
	}
	s, err := v.ToString()
	if err != nil {
		return nil, fmt.Errorf("otto: %w", err)
	}
	return splitResult(s), nil
}
