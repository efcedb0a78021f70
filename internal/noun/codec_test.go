package noun

import (
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestTextRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a",
		"hello",
		"submit-snark",
		"héllo wörld",
		"проверка 世界 🧪",
		strings.Repeat("x", 15),
		strings.Repeat("x", 16),
		strings.Repeat("x", 17),
		// Proof-sized payloads must survive: the predecessor system truncated
		// anything past 16 bytes.
		strings.Repeat("SGVsbG8gU05BUks=", 256),
	}

	for _, s := range cases {
		got, err := Text(FromText(s))
		if err != nil {
			t.Fatalf("Text(FromText(%q)): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip of %q: got %q", s, got)
		}
	}
}

func TestFromTextEmptyIsZero(t *testing.T) {
	if !FromText("").IsZero() {
		t.Error("FromText(\"\") is not the zero atom")
	}
}

func TestFromTextInjective(t *testing.T) {
	pairs := [][2]string{
		{"", "a"},
		{"a", "b"},
		{"ab", "ba"},
		{"abc", "abcd"},
		{strings.Repeat("y", 16), strings.Repeat("y", 17)},
	}
	for _, p := range pairs {
		if Equal(FromText(p[0]), FromText(p[1])) {
			t.Errorf("FromText(%q) == FromText(%q)", p[0], p[1])
		}
	}
}

func TestTextListRoundTrip(t *testing.T) {
	cases := [][]string{
		{},
		{"one"},
		{"one", "two", "three"},
		{"", "middle", ""},
		{"世界", "42", "0x1f"},
	}

	for _, l := range cases {
		got, err := TextList(FromTextList(l))
		if err != nil {
			t.Fatalf("TextList(FromTextList(%v)): %v", l, err)
		}
		if len(got) != len(l) {
			t.Fatalf("round trip of %v: got %v", l, got)
		}
		for i := range l {
			if got[i] != l[i] {
				t.Errorf("round trip of %v: element %d is %q", l, i, got[i])
			}
		}
	}
}

func TestFromTextListEmptyIsZero(t *testing.T) {
	n := FromTextList(nil)
	a, ok := n.(Atom)
	if !ok || !a.IsZero() {
		t.Errorf("FromTextList(nil) = %#v, want zero atom", n)
	}
}

func TestTextRejectsCell(t *testing.T) {
	_, err := Text(Cell{Head: FromText("a"), Tail: FromText("b")})
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Text(cell) error = %v, want *DecodeError", err)
	}
}

func TestTextRejectsNonUTF8(t *testing.T) {
	// 0xff 0xfe is not valid UTF-8 in any arrangement.
	bad := FromBig(new(big.Int).SetBytes([]byte{0xff, 0xfe, 'o', 'k'}))
	if _, err := Text(bad); err == nil {
		t.Fatal("expected DecodeError for non-UTF-8 atom bytes")
	}
}

func TestSliceRejectsImproperTermination(t *testing.T) {
	// [a b] with a non-zero terminator instead of the empty-list atom.
	malformed := Cell{Head: FromText("a"), Tail: FromText("b")}
	if _, err := Slice(malformed); err == nil {
		t.Fatal("expected DecodeError for improperly terminated list")
	}
}

func TestUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 256, 1 << 32, ^uint64(0)} {
		got, err := Uint64(FromUint64(v))
		if err != nil {
			t.Fatalf("Uint64(FromUint64(%d)): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip of %d: got %d", v, got)
		}
	}
}

func TestUint64RejectsWideAtom(t *testing.T) {
	// A 17-byte text atom exceeds 64 bits; it must fail, not truncate.
	wide := FromText(strings.Repeat("z", 17))
	if _, err := Uint64(wide); err == nil {
		t.Fatal("expected DecodeError for atom wider than 64 bits")
	}
}

func TestTupleUntuple(t *testing.T) {
	parts := []Noun{FromText("tag"), FromUint64(7), FromText("x"), FromText("y")}
	n := Tuple(parts...)

	got, err := Untuple(n, len(parts))
	if err != nil {
		t.Fatalf("Untuple: %v", err)
	}
	for i := range parts {
		if !Equal(got[i], parts[i]) {
			t.Errorf("element %d does not round trip", i)
		}
	}

	if _, err := Untuple(n, len(parts)+2); err == nil {
		t.Error("expected error for over-long arity")
	}
}

func TestTupleSingleIsIdentity(t *testing.T) {
	a := FromText("solo")
	if !Equal(Tuple(a), a) {
		t.Error("Tuple of one noun should be the noun itself")
	}
}
