/*
Package cipher recovers the signature transformation embedded in a player
script and applies it to obfuscated stream signatures.

# Derivation

Derive looks for the entry function that splits its argument into
characters, pipes it through calls on one helper object and joins it back:

	function(a){a=a.split("");Xy.Ab(a,3);Xy.cd(a,49);Xy.ef(a,2);return a.join("")}

The helper object is then located and each referenced member is classified
by body shape:

	Ab:function(a,b){a.splice(0,b)}                                    DropFront
	cd:function(a){a.reverse()}                                        Reverse
	ef:function(a,b){var c=a[0];a[0]=a[b%a.length];a[b%a.length]=c}    SwapWithFront

Names, spacing and bracket vs dot access vary between player versions; the
matching is structural. When a body matches none of the shapes, an optional
Evaluator (see internal/jsvm) runs it on a fixed probe array and the result
is compared with each operation.

# Execution

Program.Apply works on runes. SwapWithFront reads its index modulo the
signature length and DropFront is clamped to it, so no program can fail at
execution time.

# Errors

Derivation failures are *Error values carrying one of the ErrCode* codes.
Each matches errs.ErrDecodeUnavailable, which callers treat as a per-stream
failure:

	prog, err := cipher.Derive(script)
	if errors.Is(err, errs.ErrDecodeUnavailable) {
		// skip this stream
	}

# Caching

Derive is a pure function of the script text. ProgramCache keys programs by
the SHA-1 of the script and expires them after a TTL; Decoder consults it
when configured.
*/
package cipher
