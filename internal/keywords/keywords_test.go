package keywords

import "testing"

func TestOverrides_FirstEntriesInPriorityOrder(t *testing.T) {
	var got []string
	for o := range Overrides() {
		got = append(got, o.Keyword)
		if len(got) == 4 {
			break
		}
	}
	want := []string{"chauffeur", "conducteur", "driver", "livreur"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("override[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestInferSector(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Développeur informatique Symfony", "Informatique / web"},
		{"Technico-Commercial terrain", "Commercial / Vente"},
		{"Téléconseiller service client", "Conseiller client / Call center"},
		{"Stagiaire en logistique", "Logistique / Achats"},
		{"CDD 6 mois", "CDD"},
		{"Gardien de nuit", UnspecifiedSector},
		{"", UnspecifiedSector},
	}
	for _, tt := range tests {
		if got := InferSector(tt.text); got != tt.want {
			t.Errorf("InferSector(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestSynonyms_ReturnsCopy(t *testing.T) {
	g := Synonyms("chauffeur")
	if len(g) != 6 {
		t.Fatalf("chauffeur group has %d terms, want 6", len(g))
	}
	g[0] = "mutated"
	if Synonyms("chauffeur")[0] != "chauffeur" {
		t.Error("mutating the returned group changed the table")
	}
	if Synonyms("astronaute") != nil {
		t.Error("unknown term should have no group")
	}
}

func TestSuggestionsFor(t *testing.T) {
	for _, level := range []string{"Low", "Medium", "High"} {
		s := SuggestionsFor(level)
		if len(s) == 0 || len(s) > 5 {
			t.Errorf("SuggestionsFor(%s) has %d items", level, len(s))
		}
	}
	if SuggestionsFor("Unknown") != nil {
		t.Error("unknown level should have no suggestions")
	}
}
