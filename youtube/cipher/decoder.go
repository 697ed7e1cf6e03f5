package cipher

import "github.com/ytget/ytinfo/internal/logger"

// Decoder derives programs and applies them. The zero value derives
// structurally without a cache.
type Decoder struct {
	// Evaluator classifies helper bodies with unknown shapes. Optional.
	Evaluator Evaluator
	// Cache shares derived programs across requests. Optional.
	Cache *ProgramCache
}

// Program returns the program for script, consulting the cache first.
func (d *Decoder) Program(script string) (Program, error) {
	var ev Evaluator
	var cache *ProgramCache
	if d != nil {
		ev, cache = d.Evaluator, d.Cache
	}

	if cache != nil {
		if prog, ok := cache.Get(script); ok {
			return prog, nil
		}
	}
	prog, err := DeriveWith(script, ev)
	if err != nil {
		logger.WithComponent(logger.ComponentCipher).Debug("derivation failed", map[string]interface{}{
			"code":  Code(err),
			"error": err.Error(),
		})
		return nil, err
	}
	if cache != nil {
		cache.Put(script, prog)
	}
	return prog, nil
}

// Decipher derives the program for script and applies it to sig.
func (d *Decoder) Decipher(script, sig string) (string, error) {
	prog, err := d.Program(script)
	if err != nil {
		return "", err
	}
	return prog.Apply(sig), nil
}
