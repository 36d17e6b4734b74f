package recommend

import (
	"slices"
	"testing"

	"github.com/jobrisk/jobrisk/internal/model"
)

func rec(title, jobTitle, sector string, score float64) model.Listing {
	return model.Listing{Title: title, JobTitle: jobTitle, Sector: sector, RiskScore: score, Link: "https://x/" + title}
}

func titles(ls []model.Listing) []string {
	var out []string
	for _, l := range ls {
		out = append(out, l.Title)
	}
	return out
}

func TestExpandSynonyms(t *testing.T) {
	got := ExpandSynonyms("Chauffeur")
	want := []string{"chauffeur", "conducteur", "driver", "livreur", "transporteur", "mécanicien conducteur"}
	if !slices.Equal(got, want) {
		t.Errorf("ExpandSynonyms(Chauffeur) = %q, want %q", got, want)
	}

	tests := []struct{ term, first string }{
		{"comptable", "comptable"},
		{"plombier", "plombier"},
		{"  Développeur ", "développeur"},
	}
	for _, tt := range tests {
		got := ExpandSynonyms(tt.term)
		if len(got) == 0 || got[0] != tt.first {
			t.Errorf("ExpandSynonyms(%q) = %q, want %q first", tt.term, got, tt.first)
		}
	}
	if got := ExpandSynonyms("plombier"); len(got) != 1 {
		t.Errorf("unknown term should expand to itself only, got %q", got)
	}
}

func TestSearch_DriverSynonyms(t *testing.T) {
	records := []model.Listing{
		rec("Chauffeur poids lourd", "Chauffeur", "Transport", 9),
		rec("Livreur moto", "Non spécifié", "Logistique", 8),
		rec("Driver VIP", "Non spécifié", "Tourisme", 7),
		rec("Mécanicien conducteur d'engins", "Mécanicien", "BTP", 7.5),
		rec("Transporteur routier", "Non spécifié", "Non spécifié", 8),
		rec("Comptable", "Comptable", "Finance", 6),
		rec("Assistant", "Assistant", "CONDUCTEUR de travaux", 5),
	}
	got := titles(Search("chauffeur", records))
	want := []string{"Chauffeur poids lourd", "Livreur moto", "Driver VIP", "Mécanicien conducteur d'engins", "Transporteur routier", "Assistant"}
	if !slices.Equal(got, want) {
		t.Errorf("Search(chauffeur) = %q, want %q", got, want)
	}
}

func TestSearch_CaseAndAccents(t *testing.T) {
	records := []model.Listing{rec("SECRÉTAIRE de direction", "", "", 7)}
	if got := Search("secrétaire", records); len(got) != 1 {
		t.Errorf("case-insensitive search failed: %v", got)
	}
	// "é" written as "e" + combining acute accent.
	if got := Search("secre\u0301taire", records); len(got) != 1 {
		t.Errorf("decomposed accent search failed: %v", got)
	}
	if got := Search("secretaire", records); len(got) != 0 {
		t.Errorf("unaccented term should not match an accented title, got %v", got)
	}
	if got := Search("   ", records); got != nil {
		t.Errorf("blank term matched %v", got)
	}
}

func TestRecommendTransition_Secretary(t *testing.T) {
	records := []model.Listing{
		rec("Secrétaire", "Secrétaire", "Administration", 7.0),
		rec("Assistant RH", "Assistant RH", "Administration", 3.0),
		rec("Office manager", "Office manager", "Administration", 6.0),
		rec("Agent de saisie", "Agent de saisie", "Administration", 7.5),
		rec("Développeur", "Développeur", "Informatique", 2.0),
	}

	got, found := RecommendTransition("secrétaire", records, 5)
	if !found {
		t.Fatal("expected current job to be found")
	}
	if got.AverageRisk != 7.0 {
		t.Errorf("AverageRisk = %v, want 7.0", got.AverageRisk)
	}
	if len(got.Transitions) != 2 {
		t.Fatalf("got %d transitions, want 2: %+v", len(got.Transitions), got.Transitions)
	}
	if got.Transitions[0].Listing.Title != "Assistant RH" || got.Transitions[0].Delta != 4.0 {
		t.Errorf("first = %s %.1f, want Assistant RH 4.0", got.Transitions[0].Listing.Title, got.Transitions[0].Delta)
	}
	if got.Transitions[1].Listing.Title != "Office manager" || got.Transitions[1].Delta != 1.0 {
		t.Errorf("second = %s %.1f, want Office manager 1.0", got.Transitions[1].Listing.Title, got.Transitions[1].Delta)
	}
	if !slices.Equal(got.Sectors, []string{"Administration"}) {
		t.Errorf("Sectors = %q", got.Sectors)
	}
}

func TestRecommendTransition_NotFound(t *testing.T) {
	if _, found := RecommendTransition("astronaute", []model.Listing{rec("Comptable", "", "Finance", 5)}, 5); found {
		t.Error("expected not found")
	}
}

func TestRecommendTransition_NeverSuggestsMatches(t *testing.T) {
	records := []model.Listing{
		rec("Chauffeur", "Chauffeur", "Transport", 9),
		rec("Livreur", "Livreur", "Transport", 4), // synonym match, lower score
		rec("Régulateur de flotte", "Régulateur", "Transport", 5),
	}
	got, found := RecommendTransition("chauffeur", records, 10)
	if !found {
		t.Fatal("expected found")
	}
	matched := Search("chauffeur", records)
	for _, tr := range got.Transitions {
		for _, m := range matched {
			if tr.Listing.Link == m.Link {
				t.Errorf("transition %q matches the current job", tr.Listing.Title)
			}
		}
	}
	if len(got.Transitions) != 1 || got.Transitions[0].Listing.Title != "Régulateur de flotte" {
		t.Errorf("transitions = %+v", got.Transitions)
	}
}

func TestRecommendTransition_SortedAndCapped(t *testing.T) {
	records := []model.Listing{rec("Caissier", "Caissier", "Commerce", 9)}
	for _, score := range []float64{5, 2, 8, 3, 6, 1, 4} {
		records = append(records, rec("Poste "+string(rune('A'+int(score))), "Poste", "Commerce", score))
	}

	got, _ := RecommendTransition("caissier", records, 3)
	if len(got.Transitions) != 3 {
		t.Fatalf("got %d transitions, want 3", len(got.Transitions))
	}
	for i := 1; i < len(got.Transitions); i++ {
		if got.Transitions[i].Delta > got.Transitions[i-1].Delta {
			t.Errorf("not sorted by decreasing delta: %+v", got.Transitions)
		}
	}
	if got.Transitions[0].Delta != 8 {
		t.Errorf("top delta = %v, want 8", got.Transitions[0].Delta)
	}

	all, _ := RecommendTransition("caissier", records, 0)
	if len(all.Transitions) != DefaultLimit {
		t.Errorf("default limit gave %d transitions, want %d", len(all.Transitions), DefaultLimit)
	}
}
