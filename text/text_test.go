package text

import "testing"

func TestEnumerator(t *testing.T) {
	for _, tc := range []struct {
		elements []string
		want     string
	}{
		{[]string{}, ""},
		{[]string{"a sword"}, "a sword"},
		{[]string{"a sword", "a shield"}, "a sword, and a shield"},
		{[]string{"a", "b", "c"}, "a, b, and c"},
	} {
		if got := (Enumerator{}).Do(tc.elements...); got != tc.want {
			t.Errorf("Do(%v): got %q, want %q", tc.elements, got, tc.want)
		}
	}
}

func TestQuantify(t *testing.T) {
	for _, tc := range []struct {
		qty  float64
		noun string
		want string
	}{
		{1, "gem", "1 gem"},
		{3, "gem", "3 gems"},
		{2, "torch", "2 torches"},
	} {
		if got := Quantify(tc.qty, tc.noun); got != tc.want {
			t.Errorf("Quantify(%v, %q): got %q, want %q", tc.qty, tc.noun, got, tc.want)
		}
	}
}

func TestSubstitute(t *testing.T) {
	lookup := func(name string) (string, bool) {
		switch name {
		case "playerName":
			return "Ann", true
		case "gold":
			return "30", true
		}
		return "", false
	}
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"Hi $playerName", "Hi Ann"},
		{"no tokens", "no tokens"},
		{"$playerName has $gold gold", "Ann has 30 gold"},
		{"unknown $token stays", "unknown $token stays"},
		{"lone $ stays", "lone $ stays"},
		{"$playerName", "Ann"},
	} {
		if got := Substitute(tc.in, lookup); got != tc.want {
			t.Errorf("Substitute(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
