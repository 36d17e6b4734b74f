package risk

import (
	"math"
	"testing"

	"github.com/jobrisk/jobrisk/internal/model"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name                                  string
		title, jobTitle, sector, contractType string
		wantScore                             float64
		wantLevel                             model.RiskLevel
	}{
		{
			name:  "first override wins then sector adds and clamps",
			title: "Chauffeur Livreur Express", jobTitle: "chauffeur", sector: "Transport", contractType: "CDI",
			wantScore: 10.0, wantLevel: model.RiskHigh,
		},
		{
			name:      "no match keeps baseline",
			wantScore: 5.0, wantLevel: model.RiskMedium,
		},
		{
			name:  "override alone",
			title: "Secrétaire de direction", jobTitle: "secrétaire", sector: "Non spécifié", contractType: "CDI",
			wantScore: 7.0, wantLevel: model.RiskMedium,
		},
		{
			name:  "override plus sector plus high nudge",
			title: "Opérateur de saisie", jobTitle: "opérateur", sector: "Industrie", contractType: "CDD",
			wantScore: 9.0, wantLevel: model.RiskHigh,
		},
		{
			name:  "clamped to minimum",
			title: "Médecin généraliste", jobTitle: "médecin", sector: "Santé", contractType: "CDI",
			wantScore: 1.0, wantLevel: model.RiskLow,
		},
		{
			name:  "low nudge on top of override",
			title: "Responsable marketing créatif", jobTitle: "responsable", sector: "Marketing", contractType: "CDI",
			wantScore: 2.5, wantLevel: model.RiskLow,
		},
		{
			name:  "standalone it counts as technology",
			title: "Chef de projet IT", jobTitle: "chef", sector: "Informatique", contractType: "CDI",
			wantScore: 1.5, wantLevel: model.RiskLow,
		},
		{
			name:  "it inside a word does not count",
			title: "Agent de sécurité", jobTitle: "Agent", sector: "Sécurité", contractType: "CDI",
			wantScore: 5.0, wantLevel: model.RiskMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, level := Score(tt.title, tt.jobTitle, tt.sector, tt.contractType)
			if score != tt.wantScore {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
			if level != tt.wantLevel {
				t.Errorf("level = %s, want %s", level, tt.wantLevel)
			}
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	s1, l1 := Score("Caissier supermarché", "caissier", "Commerce", "CDD")
	s2, l2 := Score("Caissier supermarché", "caissier", "Commerce", "CDD")
	if s1 != s2 || l1 != l2 {
		t.Errorf("Score not deterministic: (%v,%s) vs (%v,%s)", s1, l1, s2, l2)
	}
}

func TestScore_RangeAndRounding(t *testing.T) {
	inputs := [][4]string{
		{"Opérateur de production usine saisie routine répétitif process standard", "opérateur", "Industrie transport vente", "CDD"},
		{"Directeur stratégie créatif design leadership management", "directeur", "Santé éducation tech", "CDI"},
		{"Assistant data entry", "assistant", "Banque finance", "Stage"},
		{"Freelance web designer", "freelance", "Publicité", "Freelance"},
	}
	for _, in := range inputs {
		score, level := Score(in[0], in[1], in[2], in[3])
		if score < MinScore || score > MaxScore {
			t.Errorf("Score(%q) = %v, out of range", in[0], score)
		}
		if math.Abs(score*10-math.Round(score*10)) > 1e-9 {
			t.Errorf("Score(%q) = %v, not rounded to one decimal", in[0], score)
		}
		if level != LevelFor(score) {
			t.Errorf("level %s does not match LevelFor(%v)", level, score)
		}
	}
}

func TestLevelFor_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  model.RiskLevel
	}{
		{10.0, model.RiskHigh},
		{8.0, model.RiskHigh},
		{round1(7.9999), model.RiskHigh},
		{7.9, model.RiskMedium},
		{5.0, model.RiskMedium},
		{4.9, model.RiskLow},
		{1.0, model.RiskLow},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestSuggestions(t *testing.T) {
	high := Suggestions(model.RiskHigh)
	if len(high) != 4 {
		t.Fatalf("got %d high suggestions, want 4", len(high))
	}
	if high[0] != "Formation en compétences numériques avancées" {
		t.Errorf("first high suggestion = %q", high[0])
	}
	if got := Suggestions(model.RiskLow); got[0] != "Continuer à se former dans son domaine d'expertise" {
		t.Errorf("first low suggestion = %q", got[0])
	}
}
