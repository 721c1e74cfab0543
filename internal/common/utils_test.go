package common

import "testing"

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"USE_ELECT":        "useelect",
		"useElect":         "useelect",
		" use elect ":      "useelect",
		"\ufeffYEAR_MONTH": "yearmonth",
		"시군구코드":            "시군구코드",
	}
	for in, want := range cases {
		if got := NormalizeHeader(in); got != want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOnlyDigits(t *testing.T) {
	if got := OnlyDigits("2023-04"); got != "202304" {
		t.Fatalf("expected 202304, got %q", got)
	}
	if got := OnlyDigits("abc"); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestHasAny(t *testing.T) {
	if !HasAny("temperature_2023.csv", "temp", "기온") {
		t.Fatal("expected a match")
	}
	if HasAny("energy_2023.csv", "temp", "forecast") {
		t.Fatal("expected no match")
	}
}
