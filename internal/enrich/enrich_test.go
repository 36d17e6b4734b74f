package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/jobrisk/jobrisk/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubFetcher struct {
	body string
	err  error
}

func (f *stubFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return f.body, f.err
}

const detailPage = `<html><head><title>Chauffeur poids lourd</title></head><body>
<nav>Accueil | Offres | Contact</nav>
<article>
<h1>Chauffeur poids lourd</h1>
<p>Nous recherchons un chauffeur poids lourd expérimenté pour assurer la livraison de marchandises entre Antananarivo et Toamasina.
Le candidat retenu sera responsable du chargement, du transport et du déchargement dans le respect des délais.</p>
<p>Permis C obligatoire, cinq ans d'expérience minimum, connaissance des axes routiers nationaux appréciée.
Poste basé à Antananarivo avec déplacements fréquents.</p>
</article>
<footer>Copyright</footer>
</body></html>`

func TestEnrich_ReplacesShortDescription(t *testing.T) {
	e := NewDetailEnricher(&stubFetcher{body: detailPage}, 300, discardLogger())
	l := &model.Listing{Link: "https://www.asako.mg/annonces/1", Description: "Chauffeur PL."}

	e.Enrich(context.Background(), l)

	if !strings.Contains(l.Description, "chauffeur poids lourd expérimenté") {
		t.Errorf("description not enriched: %q", l.Description)
	}
	if n := len([]rune(l.Description)); n > 300 {
		t.Errorf("description has %d chars, want <= 300", n)
	}
}

func TestEnrich_KeepsDescriptionOnFetchError(t *testing.T) {
	e := NewDetailEnricher(&stubFetcher{err: errors.New("boom")}, 0, discardLogger())
	l := &model.Listing{Link: "https://www.asako.mg/annonces/1", Description: "Original"}

	e.Enrich(context.Background(), l)

	if l.Description != "Original" {
		t.Errorf("description = %q, want Original", l.Description)
	}
}

func TestEnrich_KeepsLongerDescription(t *testing.T) {
	long := strings.Repeat("mot ", 200)
	e := NewDetailEnricher(&stubFetcher{body: "<html><body><p>court</p></body></html>"}, 0, discardLogger())
	l := &model.Listing{Link: "https://www.asako.mg/annonces/1", Description: long}

	e.Enrich(context.Background(), l)

	if l.Description != long {
		t.Error("a longer existing description should be kept")
	}
}
