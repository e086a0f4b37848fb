package source

import "testing"

func TestNewUnitRejectsEncoding(t *testing.T) {
	if _, err := NewUnit("a.ct", "x", "latin-1"); err == nil {
		t.Fatalf("expected unsupported encoding error")
	}
	if _, err := NewUnit("a.ct", "\xff", ""); err == nil {
		t.Fatalf("expected invalid utf-8 error")
	}
}

func TestPosition(t *testing.T) {
	u, err := NewUnit("a.ct", "let x = 1\nprint(\"é\", x)\n", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tests := []struct {
		offset int
		line   int
		column int
	}{
		{0, 1, 1},
		{4, 1, 5},
		{10, 2, 1},
		{19, 2, 9}, // after the two-byte rune
		{1000, 3, 1},
	}
	for _, tt := range tests {
		pos := u.Position(tt.offset)
		if pos.Line != tt.line || pos.Column != tt.column {
			t.Errorf("Position(%d) = %d:%d, want=%d:%d", tt.offset, pos.Line, pos.Column, tt.line, tt.column)
		}
	}
}

func TestSpanCoverAndSlice(t *testing.T) {
	u, _ := NewUnit("", "obj.foo(a, b)", "")
	s := Span{Start: 0, End: 3}.Cover(Span{Start: 4, End: 13})
	if s != (Span{Start: 0, End: 13}) {
		t.Fatalf("Cover = %v", s)
	}
	if got := u.Slice(Span{Start: 4, End: 7}); got != "foo" {
		t.Errorf("Slice = %q, want=%q", got, "foo")
	}
	if u.Name() != "<stdin>" {
		t.Errorf("Name = %q", u.Name())
	}
}
