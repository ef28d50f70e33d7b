package catalog

import (
	"errors"
	"testing"
)

func TestTotal_JollofAndSamosa(t *testing.T) {
	lines := []Line{
		{ID: "1", Name: "Jollof Rice", Price: 1000, Quantity: 2},
		{ID: "10", Name: "Samosa", Price: 200, Quantity: 1},
	}
	if got := Total(lines); got.IntPart() != 2200 {
		t.Fatalf("expected 2200, got %s", got)
	}
	if err := Check(ModeEnforce, lines, 2200); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}
}

func TestCheck_Enforce(t *testing.T) {
	cases := []struct {
		name  string
		lines []Line
		total float64
	}{
		{"unknown item", []Line{{ID: "99", Price: 10, Quantity: 1}}, 10},
		{"discounted price", []Line{{ID: "1", Price: 1, Quantity: 1}}, 1},
		{"wrong total", []Line{{ID: "1", Price: 1000, Quantity: 1}}, 900},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := Check(ModeEnforce, tc.lines, tc.total); !errors.Is(err, ErrPriceMismatch) {
				t.Fatalf("expected ErrPriceMismatch, got %v", err)
			}
		})
	}
}

func TestCheck_TrustOnlyChecksSum(t *testing.T) {
	lines := []Line{{ID: "custom", Price: 1.1, Quantity: 3}}
	if err := Check(ModeTrust, lines, 3.3); err != nil {
		t.Fatalf("expected sum to match without float drift, got %v", err)
	}
	if err := Check(ModeTrust, lines, 3.4); !errors.Is(err, ErrPriceMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestByCategory(t *testing.T) {
	if n := len(ByCategory(CategoryAddon)); n != 3 {
		t.Fatalf("expected 3 addons, got %d", n)
	}
	if n := len(ByCategory("all")); n != len(Menu()) {
		t.Fatalf("all should return full menu")
	}
	if _, ok := Lookup("10"); !ok {
		t.Fatal("samosa missing")
	}
}
