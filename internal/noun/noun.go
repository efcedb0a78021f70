// Package noun implements the ledger kernel's native data model: every value
// is a noun, and a noun is either an atom (an unbounded unsigned integer) or
// a cell (an ordered pair of nouns). The codec in this package translates
// between Go strings/slices and that model.
package noun

import "math/big"

// Noun is either an Atom or a Cell.
type Noun interface {
	isNoun()
}

// Atom is an unbounded unsigned integer. The zero value of Atom is the zero
// atom, which doubles as the empty string and the empty list terminator.
type Atom struct {
	i *big.Int
}

func (Atom) isNoun() {}

// Cell is an ordered pair of nouns. Lists and tuples are right-nested cells.
type Cell struct {
	Head Noun
	Tail Noun
}

func (Cell) isNoun() {}

// Zero returns the zero atom.
func Zero() Atom {
	return Atom{}
}

// FromBig creates an atom from a big integer. v must be non-negative;
// the value is copied so later mutation of v does not affect the atom.
func FromBig(v *big.Int) Atom {
	if v == nil || v.Sign() == 0 {
		return Atom{}
	}
	return Atom{i: new(big.Int).Set(v)}
}

// FromUint64 creates an atom holding v.
func FromUint64(v uint64) Atom {
	if v == 0 {
		return Atom{}
	}
	return Atom{i: new(big.Int).SetUint64(v)}
}

// IsZero reports whether the atom is the zero atom.
func (a Atom) IsZero() bool {
	return a.i == nil || a.i.Sign() == 0
}

// Big returns a copy of the atom's integer value.
func (a Atom) Big() *big.Int {
	if a.i == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.i)
}

// Bytes returns the big-endian byte representation of the atom.
// The zero atom yields an empty slice.
func (a Atom) Bytes() []byte {
	if a.i == nil {
		return nil
	}
	return a.i.Bytes()
}

// Equal reports whether two nouns are structurally identical.
func Equal(a, b Noun) bool {
	switch x := a.(type) {
	case Atom:
		y, ok := b.(Atom)
		return ok && x.Big().Cmp(y.Big()) == 0
	case Cell:
		y, ok := b.(Cell)
		return ok && Equal(x.Head, y.Head) && Equal(x.Tail, y.Tail)
	default:
		return false
	}
}

// Tuple builds the right-nested n-tuple [a b c ...] = [a [b [c ...]]] that
// the kernel expects for tagged causes and effects. A single noun is
// returned as-is.
func Tuple(ns ...Noun) Noun {
	if len(ns) == 0 {
		return Zero()
	}
	out := ns[len(ns)-1]
	for i := len(ns) - 2; i >= 0; i-- {
		out = Cell{Head: ns[i], Tail: out}
	}
	return out
}

// List builds a right-nested, zero-terminated list of the given nouns,
// constructed from the last element to the first. An empty input is the
// zero atom.
func List(ns ...Noun) Noun {
	var out Noun = Zero()
	for i := len(ns) - 1; i >= 0; i-- {
		out = Cell{Head: ns[i], Tail: out}
	}
	return out
}
