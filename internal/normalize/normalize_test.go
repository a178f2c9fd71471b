package normalize

import "testing"

func TestNormalize_Scenarios(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"strips club prefix and country code", "FC Bayern Munich (GER)", "Bayern Munich"},
		{"strips leading the and club suffix", "The Arsenal FC", "Arsenal"},
		{"strips trailing year", "Santos 1912", "Santos"},
		{"collapses whitespace", "Real   Madrid", "Real Madrid"},
		{"leaves plain name alone", "Chelsea", "Chelsea"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"FC Bayern Munich (GER)",
		"The Arsenal FC",
		"Manchester United 1999",
		"  Spaced   Out FC  ",
	}
	for _, s := range inputs {
		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent: Normalize(%q)=%q, Normalize(that)=%q", s, once, twice)
		}
	}
}

func TestSimilarity_SelfIsOne(t *testing.T) {
	names := []string{"Arsenal", "Manchester United", "Atlético Madrid", "AS Monaco"}
	for _, n := range names {
		if got := Similarity(n, n); got != 1 {
			t.Errorf("Similarity(%q, %q) = %v, want 1", n, n, got)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Manchester United", "Man United"},
		{"Real Madrid", "FC Real Madrid"},
		{"Arsenal", "Tottenham"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity(%q,%q)=%v != Similarity(%q,%q)=%v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestSimilarity_LengthMismatchShortCircuits(t *testing.T) {
	if got := Similarity("FC", "A Very Long Football Club Name Indeed"); got != 0 {
		t.Errorf("Similarity with mismatched lengths = %v, want 0", got)
	}
}

func TestMatchTeamNames_CanonicalEquality(t *testing.T) {
	if got := MatchTeamNames("FC Arsenal", "The Arsenal FC"); got != 1 {
		t.Errorf("MatchTeamNames canonical forms = %v, want 1", got)
	}
}
