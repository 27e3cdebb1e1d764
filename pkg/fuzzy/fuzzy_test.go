package fuzzy

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	cases := []struct {
		s1, s2 string
		want   int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"milk", "milk", 0},
		{"milk", "mikl", 2},
		{"MILK", "milk", 0}, // case is normalized away
	}
	for _, tc := range cases {
		if got := LevenshteinDistance(tc.s1, tc.s2); got != tc.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tc.s1, tc.s2, got, tc.want)
		}
	}
}

func TestMatchTask(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		title    string
		desc     string
		location string
		want     bool
	}{
		{"exact substring in title", "milk", "buy milk", "", "", true},
		{"typo in query", "mikl", "buy milk", "", "", true},
		{"prefix of a title word", "grocer", "buy groceries", "", "", true},
		{"match via description", "bread", "shopping", "bread and butter", "", true},
		{"match via location", "pharmacy", "pick up prescription", "", "city pharmacy", true},
		{"unrelated", "dentist", "buy milk", "weekly shop", "supermarket", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchTask(tc.query, tc.title, tc.desc, tc.location); got != tc.want {
				t.Errorf("MatchTask(%q, ...) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestRelevanceScore_TitleOutranksDescription(t *testing.T) {
	titleHit := RelevanceScore("milk", "buy milk", "", "")
	descHit := RelevanceScore("milk", "shopping", "need milk", "")

	if titleHit <= descHit {
		t.Errorf("title score %f not above description score %f", titleHit, descHit)
	}
}
