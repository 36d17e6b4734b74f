// Package keywords holds the static lookup tables behind risk scoring, sector
// inference, synonym expansion and reconversion suggestions.
//
// The tables are built once at package initialisation and never mutated.
// Accessors hand out iterators or copies, so concurrent readers need no locking.
package keywords

import (
	"iter"
	"slices"
	"strings"
)

// Override replaces the running score when Keyword is found.
type Override struct {
	Keyword string
	Score   float64
}

// Adjustment adds Delta once when any of Keywords is found.
type Adjustment struct {
	Name     string
	Keywords []string
	Delta    float64
}

// SectorRule maps a keyword to a sector label.
type SectorRule struct {
	Keyword string
	Sector  string
}

const (
	HighNudge = 0.5
	LowNudge  = -0.5
)

// UnspecifiedSector is returned by sector inference when nothing matches.
const UnspecifiedSector = "Non spécifié"

// Order matters: the first match wins.
var overrides = []Override{
	{"chauffeur", 9.0},
	{"conducteur", 9.0},
	{"driver", 9.0},
	{"livreur", 8.5},
	{"delivery", 8.5},
	{"coursier", 8.5},
	{"caissier", 8.0},
	{"cashier", 8.0},
	{"téléopérateur", 7.5},
	{"call center", 7.5},
	{"téléconseiller", 7.5},
	{"secrétaire", 7.0},
	{"secretary", 7.0},
	{"assistant", 6.5},
	{"opérateur", 7.0},
	{"operator", 7.0},
	{"annotateur", 8.0},
	{"mécanicien", 6.0},
	{"mechanic", 6.0},
	{"comptable", 5.0},
	{"accountant", 5.0},
	{"analyste", 4.0},
	{"enseignant", 2.0},
	{"teacher", 2.0},
	{"professeur", 2.0},
	{"médecin", 1.5},
	{"doctor", 1.5},
	{"infirmier", 2.0},
	{"nurse", 2.0},
	{"développeur", 3.0},
	{"developer", 3.0},
	{"programmeur", 3.0},
	{"manager", 2.5},
	{"directeur", 2.0},
	{"chef", 2.5},
	{"coordinateur", 2.0},
	{"coordinator", 2.0},
	{"conseiller", 3.0},
	{"consultant", 3.0},
	{"responsable", 2.5},
	{"ingénieur", 3.5},
	{"engineer", 3.5},
	{"technico-commercial", 4.0},
	{"commercial", 4.0},
	{"chargé", 3.0},
	{"chargee", 3.0},
	{"stagiaire", 6.0},
	{"stage", 6.0},
	{"freelance", 3.5},
	{"free-lance", 3.5},
}

// " it " is padded so it only matches the standalone word; the scorer pads
// its text blob with spaces to match.
var sectorAdjustments = []Adjustment{
	{"transport", []string{"transport", "logistique", "delivery"}, 1.0},
	{"industry", []string{"industrie", "production", "manufacturing", "usine"}, 1.5},
	{"retail", []string{"commerce", "retail", "supermarket", "vente"}, 0.5},
	{"technology", []string{"technologie", "tech", " it ", "informatique", "symfony", "web"}, -1.0},
	{"health", []string{"santé", "health", "medical", "médical"}, -1.5},
	{"education", []string{"éducation", "education", "formation", "enseignement"}, -1.0},
	{"finance", []string{"finance", "banque", "comptabilité", "financier"}, 0.5},
	{"marketing", []string{"marketing", "communication", "publicité"}, 0.5},
}

var highRiskKeywords = []string{
	"répétitif", "routine", "standard", "process", "assembly", "saisie", "data entry",
}

var lowRiskKeywords = []string{
	"créatif", "creative", "design", "gestion", "management", "relation client", "leadership", "stratégie",
}

var sectorRules = []SectorRule{
	{"informatique", "Informatique / web"},
	{"commercial", "Commercial / Vente"},
	{"rh", "Management / RH"},
	{"marketing", "Marketing / Communication"},
	{"comptabilité", "Gestion / Comptabilité / Finance"},
	{"ingénieur", "Ingénierie / industrie / BTP"},
	{"santé", "Medecine / Santé"},
	{"enseignement", "Enseignement"},
	{"droit", "Droit / Juriste"},
	{"tourisme", "Tourisme / Voyage"},
	{"logistique", "Logistique / Achats"},
	{"agriculture", "Agronomie / Agriculture"},
	{"bâtiment", "Ingénierie / industrie / BTP"},
	{"btp", "Ingénierie / industrie / BTP"},
	{"banque", "Gestion / Comptabilité / Finance"},
	{"finance", "Gestion / Comptabilité / Finance"},
	{"call center", "Conseiller client / Call center"},
	{"téléconseiller", "Conseiller client / Call center"},
	{"service client", "Conseiller client / Call center"},
	{"stagiaire", "Stage"},
	{"stage", "Stage"},
	{"freelance", "Free-lance"},
	{"cdi", "CDI"},
	{"cdd", "CDD"},
}

var synonyms = map[string][]string{
	"chauffeur":      {"chauffeur", "conducteur", "driver", "livreur", "transporteur", "mécanicien conducteur"},
	"mécanicien":     {"mécanicien", "mechanic", "garagiste", "mécanicien conducteur"},
	"conducteur":     {"conducteur", "chauffeur", "driver", "mécanicien conducteur"},
	"comptable":      {"comptable", "accountant", "comptabilité"},
	"réceptionniste": {"réceptionniste", "receptionist", "accueil", "standardiste"},
	"commercial":     {"commercial", "vendeur", "sales", "business", "business developer"},
	"développeur":    {"développeur", "developer", "dev", "programmeur", "ingénieur"},
	"coordinateur":   {"coordinateur", "coordinatrice", "coordination"},
}

var suggestions = map[string][]string{
	"High": {
		"Formation en compétences numériques avancées",
		"Reconversion vers la supervision ou coordination d'équipe",
		"Développement de compétences en gestion de projet agile",
		"Apprentissage des outils d'automatisation et d'IA",
	},
	"Medium": {
		"Renforcement des compétences en analyse de données",
		"Apprentissage des outils digitaux spécifiques au secteur",
		"Spécialisation dans un créneau à forte valeur ajoutée",
		"Développement de compétences interpersonnelles avancées",
	},
	"Low": {
		"Continuer à se former dans son domaine d'expertise",
		"Développer une spécialisation complémentaire",
		"Renforcer les compétences en leadership et innovation",
		"Apprentissage des dernières technologies du secteur",
	},
}

// Overrides yields the job-title overrides in priority order.
func Overrides() iter.Seq[Override] { return slices.Values(overrides) }

// SectorAdjustments yields the additive sector groups.
func SectorAdjustments() iter.Seq[Adjustment] { return slices.Values(sectorAdjustments) }

// HighRiskKeywords yields the routine/manual-process nudges.
func HighRiskKeywords() iter.Seq[string] { return slices.Values(highRiskKeywords) }

// LowRiskKeywords yields the creative/management/strategy nudges.
func LowRiskKeywords() iter.Seq[string] { return slices.Values(lowRiskKeywords) }

// SectorRules yields the keyword -> sector table in priority order.
func SectorRules() iter.Seq[SectorRule] { return slices.Values(sectorRules) }

// Synonyms returns a copy of the group for canonical term, or nil.
func Synonyms(canonical string) []string {
	return slices.Clone(synonyms[canonical])
}

// SuggestionsFor returns a copy of the suggestions for a level label
// ("Low", "Medium", "High").
func SuggestionsFor(level string) []string {
	return slices.Clone(suggestions[level])
}

// InferSector returns the sector of the first rule whose keyword occurs in
// text (compared lower-cased), or UnspecifiedSector.
func InferSector(text string) string {
	lower := strings.ToLower(text)
	for _, r := range sectorRules {
		if strings.Contains(lower, r.Keyword) {
			return r.Sector
		}
	}
	return UnspecifiedSector
}
