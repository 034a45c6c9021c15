package column

import "testing"

func TestNamesSorted(t *testing.T) {
	s := Set{"b": Int(1), "__content10001": Binary(nil), "__content10000": Binary(nil), "a": String("x")}
	got := s.Names()
	want := []string{"__content10000", "__content10001", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestOverlayKeepsLowerColumns(t *testing.T) {
	lower := Set{"a": Int(1), "b": Int(2)}
	upper := Set{"b": Int(3)}
	out := lower.Overlay(upper)
	if v, _ := out["a"].Int64(); v != 1 {
		t.Fatalf("a = %d", v)
	}
	if v, _ := out["b"].Int64(); v != 3 {
		t.Fatalf("b = %d", v)
	}
	if v, _ := lower["b"].Int64(); v != 2 {
		t.Fatalf("overlay mutated the lower set")
	}
}

func TestValueText(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{String("hi"), "hi"},
		{Binary([]byte("raw")), "raw"},
		{Int(-42), "-42"},
		{Value{}, ""},
	}
	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("%s: got %q want %q", tt.v.Kind(), got, tt.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if !Binary([]byte("x")).Equal(Binary([]byte("x"))) {
		t.Fatalf("equal blobs")
	}
	if String("1").Equal(Int(1)) {
		t.Fatalf("kinds differ")
	}
}
