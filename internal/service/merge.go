package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fallakte/internal/domain"
)

var (
	// ErrEmptyNarrative: ein leeres Fragment kann kein Feld belegen und
	// wird vor jedem Extraktionsaufruf abgewiesen.
	ErrEmptyNarrative = errors.New("empty narrative")
	// ErrMergeInvariantViolation: das Extraktionsergebnis würde ein
	// belegtes Feld leeren. Der Commit wird verweigert, der letzte gute
	// Datensatz bleibt stehen.
	ErrMergeInvariantViolation = errors.New("merge invariant violation")
)

// Die Merge-Engine ist zustandslos: jede Funktion erhält den aktuellen
// Schnappschuss und liefert den nächsten, ganz oder gar nicht.

// MergeSession wendet ein Extraktionsergebnis auf einen Termin an.
// prev == nil ist die Erstaufnahme. Das Fragment wandert zusätzlich ins
// Archiv, neue Indikatoren werden additiv erzeugt.
func MergeSession(prev *domain.Session, clientID string, sessionDate time.Time, extracted domain.SessionFields, indicators map[domain.IndicatorKind]float64, fragment string) (domain.Session, []domain.ProgressIndicator, error) {
	if strings.TrimSpace(fragment) == "" {
		return domain.Session{}, nil, ErrEmptyNarrative
	}

	now := time.Now().UTC()
	next := domain.Session{
		ID:          uuid.NewString(),
		ClientID:    clientID,
		SessionDate: sessionDate,
		Fields:      extracted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if prev != nil {
		if err := checkNoErasure(domain.SessionFieldNames, prev.Fields.Map(), extracted.Map()); err != nil {
			return domain.Session{}, nil, err
		}
		next.ID = prev.ID
		next.ClientID = prev.ClientID
		next.SessionDate = prev.SessionDate
		if !sessionDate.IsZero() {
			next.SessionDate = sessionDate
		}
		next.CreatedAt = prev.CreatedAt
		next.RawTranscript = prev.RawTranscript
	}
	next.RawTranscript = domain.AppendFragment(next.RawTranscript, fragment)

	created := make([]domain.ProgressIndicator, 0, len(indicators))
	for _, kind := range domain.IndicatorKinds {
		score, ok := indicators[kind]
		if !ok {
			// Dünn besetzt: unbelegte Indikatoren werden nie angelegt.
			continue
		}
		created = append(created, domain.ProgressIndicator{
			ID:        uuid.NewString(),
			ClientID:  next.ClientID,
			SessionID: next.ID,
			Kind:      kind,
			Score:     score,
			CreatedAt: now,
		})
	}

	return next, created, nil
}

// MergeAnamnesis wendet ein Extraktionsergebnis auf die Anamnese an und
// stellt die Belegt-oder-Platzhalter-Invariante her.
func MergeAnamnesis(prev *domain.Anamnesis, clientID string, extracted domain.AnamnesisFields, fragment string) (domain.Anamnesis, error) {
	if strings.TrimSpace(fragment) == "" {
		return domain.Anamnesis{}, ErrEmptyNarrative
	}

	now := time.Now().UTC()
	next := domain.Anamnesis{
		ID:        uuid.NewString(),
		ClientID:  clientID,
		Fields:    extracted.FillPlaceholders(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if prev != nil {
		if err := checkNoErasure(domain.AnamnesisFieldNames, prev.Fields.Map(), extracted.Map()); err != nil {
			return domain.Anamnesis{}, err
		}
		next.ID = prev.ID
		next.ClientID = prev.ClientID
		next.CreatedAt = prev.CreatedAt
		next.RawTranscript = prev.RawTranscript
	}
	next.RawTranscript = domain.AppendFragment(next.RawTranscript, fragment)

	return next, nil
}

// MergeProfile wendet eine Profil-Extraktion auf die Klientenakte an.
// Attribute sind dünn besetzt: ein leerer Extraktionswert lässt den
// Bestand unangetastet.
func MergeProfile(prev *domain.Client, extracted ProfileExtraction) domain.Client {
	now := time.Now().UTC()
	next := domain.Client{
		ID:         uuid.NewString(),
		Name:       extracted.Name,
		Attributes: extracted.Attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if prev == nil {
		return next
	}

	next.ID = prev.ID
	next.CreatedAt = prev.CreatedAt
	if strings.TrimSpace(extracted.Name) == "" {
		next.Name = prev.Name
	}

	merged := prev.Attributes
	for name, value := range extracted.Attributes.Map() {
		if strings.TrimSpace(value) != "" {
			merged.Apply(name, value)
		}
	}
	next.Attributes = merged

	return next
}

// checkNoErasure weist jeden Übergang belegtes Feld -> leer/Platzhalter
// zurück. Der Extraktionsvertrag verpflichtet die Fähigkeit, unberührte
// Felder unverändert mitzuführen; fehlt eines trotzdem, darf der Merge
// den Bestand nicht stillschweigend verlieren.
func checkNoErasure(names []string, prev, next map[string]string) error {
	for _, name := range names {
		if !domain.IsNoData(prev[name]) && domain.IsNoData(next[name]) {
			return fmt.Errorf("%w: field %q would be erased", ErrMergeInvariantViolation, name)
		}
	}
	return nil
}
