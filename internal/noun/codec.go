package noun

import (
	"fmt"
	"math/big"
	"unicode/utf8"
)

// DecodeError is returned when a noun cannot be interpreted as the requested
// Go value — a cell where an atom was expected, an improperly terminated
// list, an oversized id atom, or atom bytes that are not valid UTF-8.
// Decoding never truncates silently and never panics.
type DecodeError struct {
	Msg string
}

func (e *DecodeError) Error() string {
	return "noun: " + e.Msg
}

func decodeErrf(format string, args ...any) *DecodeError {
	return &DecodeError{Msg: fmt.Sprintf(format, args...)}
}

// FromText encodes a UTF-8 string as an atom: the string's bytes interpreted
// as a big-endian unsigned integer of unbounded width. The empty string is
// the zero atom. The encoding is injective for any text free of leading NUL
// bytes, which valid UTF-8 payloads in this system never carry.
func FromText(s string) Atom {
	if s == "" {
		return Atom{}
	}
	return Atom{i: new(big.Int).SetBytes([]byte(s))}
}

// Text decodes an atom produced by FromText back into a string.
func Text(n Noun) (string, error) {
	a, ok := n.(Atom)
	if !ok {
		return "", decodeErrf("expected text atom, got cell")
	}
	if a.IsZero() {
		return "", nil
	}
	b := a.Bytes()
	if !utf8.Valid(b) {
		return "", decodeErrf("atom bytes are not valid UTF-8")
	}
	return string(b), nil
}

// FromTextList encodes an ordered sequence of strings as a right-nested,
// zero-terminated list of text atoms, built from the last element to the
// first. An empty sequence is the zero atom.
func FromTextList(ss []string) Noun {
	var out Noun = Zero()
	for i := len(ss) - 1; i >= 0; i-- {
		out = Cell{Head: FromText(ss[i]), Tail: out}
	}
	return out
}

// TextList decodes a list of text atoms back into a string slice,
// preserving order. The zero atom decodes to an empty (non-nil) slice.
func TextList(n Noun) ([]string, error) {
	elems, err := Slice(n)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		s, err := Text(e)
		if err != nil {
			return nil, decodeErrf("list element %d: %v", i, err)
		}
		out[i] = s
	}
	return out, nil
}

// Slice walks a zero-terminated noun list and returns its elements in order.
// A list terminated by a non-zero atom is malformed.
func Slice(n Noun) ([]Noun, error) {
	out := []Noun{}
	for {
		switch v := n.(type) {
		case Atom:
			if !v.IsZero() {
				return nil, decodeErrf("list terminated by non-zero atom")
			}
			return out, nil
		case Cell:
			out = append(out, v.Head)
			n = v.Tail
		default:
			return nil, decodeErrf("unknown noun type %T in list", n)
		}
	}
}

// Uint64 decodes an id atom. Atoms wider than 64 bits are a decode error,
// never a truncation.
func Uint64(n Noun) (uint64, error) {
	a, ok := n.(Atom)
	if !ok {
		return 0, decodeErrf("expected id atom, got cell")
	}
	if a.IsZero() {
		return 0, nil
	}
	b := a.Big()
	if !b.IsUint64() {
		return 0, decodeErrf("atom exceeds 64 bits (%d bits)", b.BitLen())
	}
	return b.Uint64(), nil
}

// Untuple splits a right-nested tuple into exactly arity nouns.
// [a [b [c d]]] with arity 4 yields a, b, c, d.
func Untuple(n Noun, arity int) ([]Noun, error) {
	if arity < 1 {
		return nil, decodeErrf("tuple arity must be at least 1")
	}
	out := make([]Noun, 0, arity)
	for i := 0; i < arity-1; i++ {
		c, ok := n.(Cell)
		if !ok {
			return nil, decodeErrf("tuple too short: want %d elements, got %d", arity, i+1)
		}
		out = append(out, c.Head)
		n = c.Tail
	}
	return append(out, n), nil
}
