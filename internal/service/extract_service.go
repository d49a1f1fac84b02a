package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/llm"
)

var (
	// ErrExtractionMalformed: die Fähigkeit hat kein wohlgeformtes,
	// vollständiges Ergebnis geliefert. Nie teilweise anwenden.
	ErrExtractionMalformed = errors.New("extraction malformed")
	// ErrMissingRequiredField: Pflichtangabe fehlt, geprüft vor bzw.
	// direkt nach dem Netzaufruf.
	ErrMissingRequiredField = errors.New("missing required field")
)

// ExtractionService bildet Narrativ auf strukturierte Datensätze ab und
// erzwingt den Extraktionsvertrag: jedes Feld der Feldspezifikation muss
// in der Antwort vorkommen.
type ExtractionService struct {
	llmClient llm.Client
	logger    *zap.Logger
}

func NewExtractionService(llmClient llm.Client, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{
		llmClient: llmClient,
		logger:    logger,
	}
}

// ProfileExtraction ist das Ergebnis der Profil-Extraktion beim Intake.
type ProfileExtraction struct {
	Name       string
	Attributes domain.ClientAttributes
}

const profilePrompt = `Du bist ein Assistent für Sozialarbeiter. Extrahiere aus dem Gespräch die strukturierten Profildaten des Klienten.

Erforderliche Felder:
- firstName (Vorname)
- lastName (Nachname)

Optionale Felder (nur wenn erwähnt):
- email, phone
- street, zipCode, city
- dateOfBirth (Format: YYYY-MM-DD), age, gender (male/female/diverse/not_specified)
- maritalStatus, children (Anzahl), nationality, germanLevel
- residenceStatus, occupation, employmentStatus

Gib die Antwort als JSON zurück mit:
{
  "name": "Vorname Nachname",
  "profile_data": { alle extrahierten Felder }
}`

// ExtractProfile gewinnt Anzeigename und dünn besetzte Attribute aus einem
// Intake-Narrativ. Ohne Namen meldet sie ErrMissingRequiredField, liefert
// die gefundenen Attribute aber trotzdem mit.
func (s *ExtractionService) ExtractProfile(ctx context.Context, narrative string) (ProfileExtraction, error) {
	if strings.TrimSpace(narrative) == "" {
		return ProfileExtraction{}, ErrEmptyNarrative
	}

	raw, err := s.llmClient.Generate(ctx, profilePrompt+"\n\nGespräch:\n"+strings.TrimSpace(narrative))
	if err != nil {
		return ProfileExtraction{}, fmt.Errorf("%w: llm generate: %v", ErrExtractionMalformed, err)
	}

	var parsed struct {
		Name        string         `json:"name"`
		ProfileData map[string]any `json:"profile_data"`
	}
	if err := json.Unmarshal([]byte(jsonCandidate(raw)), &parsed); err != nil {
		return ProfileExtraction{}, fmt.Errorf("%w: parse: %v", ErrExtractionMalformed, err)
	}

	var attrs domain.ClientAttributes
	for key, value := range parsed.ProfileData {
		text := stringifyAttribute(value)
		if text == "" {
			continue
		}
		if !attrs.Apply(key, text) && s.logger != nil {
			s.logger.Debug("unknown profile attribute ignored", zap.String("attribute", key))
		}
	}

	name := strings.TrimSpace(parsed.Name)
	if name == "" {
		// Attribute trotzdem mitgeben: bei einer Revision ist der Name
		// schon bekannt und der Aufrufer mergt nur die Attribute.
		return ProfileExtraction{Attributes: attrs}, fmt.Errorf("%w: name", ErrMissingRequiredField)
	}

	return ProfileExtraction{Name: name, Attributes: attrs}, nil
}

const sessionPromptHead = `Du bist ein Assistent für Sozialarbeiter. Analysiere das Gesprächsprotokoll und extrahiere folgende Informationen:
1. Aktueller Stand (current_status): Wie ist die aktuelle Situation des Klienten?
2. Vorgenommene Aktionen (actions_taken): Was wurde bereits unternommen?
3. Nächste Schritte (next_steps): Was sind die geplanten nächsten Schritte?
4. Netzwerkeinbezug (network_involvement): Welche externen Partner oder Dienste wurden/werden einbezogen?

Zusätzlich bewerte folgende Fortschrittsindikatoren auf einer Skala von 0-10, aber NUR für Bereiche, zu denen das Transkript tatsächlich etwas sagt:
- finances (Finanzen)
- health (Gesundheit)
- job_applications (Bewerbungsmanagement)
- family_situation (Familiensituation)
- child_welfare (Kinderfürsorge)
`

const sessionPromptTail = `
Gib die Antwort als JSON zurück. Das JSON MUSS alle vier Felder current_status, actions_taken, next_steps und network_involvement enthalten; nicht erwähnte Bereiche ohne Bestandsdaten bleiben leere Strings. Indikatoren gehören unter "progress_indicators" und nur, wenn sie belegt sind.`

// ExtractSession liefert den vollständigen 4-Felder-Datensatz plus eine
// dünn besetzte Indikator-Karte.
func (s *ExtractionService) ExtractSession(ctx context.Context, narrative string, existing *domain.SessionFields) (domain.SessionFields, map[domain.IndicatorKind]float64, error) {
	if strings.TrimSpace(narrative) == "" {
		return domain.SessionFields{}, nil, ErrEmptyNarrative
	}

	prompt := sessionPromptHead + existingDataBlock(existingFieldMap(existing)) + sessionPromptTail
	raw, err := s.llmClient.Generate(ctx, prompt+"\n\nTranskript:\n"+strings.TrimSpace(narrative))
	if err != nil {
		return domain.SessionFields{}, nil, fmt.Errorf("%w: llm generate: %v", ErrExtractionMalformed, err)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonCandidate(raw)), &parsed); err != nil {
		return domain.SessionFields{}, nil, fmt.Errorf("%w: parse: %v", ErrExtractionMalformed, err)
	}

	var fields domain.SessionFields
	if err := decodeRequiredFields(parsed, domain.SessionFieldNames, fields.Apply); err != nil {
		return domain.SessionFields{}, nil, err
	}

	indicators, err := decodeIndicators(parsed["progress_indicators"], s.logger)
	if err != nil {
		return domain.SessionFields{}, nil, err
	}

	return fields, indicators, nil
}

const anamnesisPromptHead = `Du bist ein Assistent für Sozialpädagogik und Erziehungshilfe. Analysiere die Anamnese-Aufnahme und strukturiere sie in folgende Bereiche:

**LEBENSSITUATION:**
1. housingSituation: Wohnsituation (Wohnform, Platzverhältnisse, Ausstattung, Probleme, kindgerechte Umgebung)
2. financialSituation: Finanzielle Situation (Einkommen, Schulden, laufende Kosten, finanzielle Unterstützung)
3. healthStatus: Gesundheitszustand (körperliche und psychische Gesundheit, Behandlungen, Einschränkungen)
4. professionalSituation: Berufliche Situation (Ausbildung, Beschäftigung, Vereinbarkeit Familie/Beruf)

**FAMILIE & KINDER:**
5. familySituation: Familiäre Situation (Familienstruktur, Beziehungen, Konflikte, Unterstützungssysteme)
6. childrenSituation: Situation der Kinder (Anzahl, Alter, Betreuung, Schule/Kita, besondere Bedürfnisse)
7. parentingSkills: Erziehungskompetenzen (Erziehungsverhalten, Grenzsetzung, Überforderung, Ressourcen)
8. childDevelopment: Entwicklungsstand der Kinder (körperlich, kognitiv, emotional, sozial, Förderbedarfe)

**PSYCHOSOZIALE SITUATION:**
9. psychologicalState: Psychologischer Zustand (Befindlichkeit, Belastungen, Bewältigungsstrategien, Resilienz)
10. socialNetwork: Soziales Netzwerk (Freunde, Verwandte, Nachbarn, Isolation, Unterstützungspersonen)
11. crisesAndRisks: Krisen und Risikofaktoren (akute Krisen, Gewalt, Sucht, Vernachlässigung, Kindeswohlgefährdung)

**ZIELE & MASSNAHMEN:**
12. goalsAndWishes: Ziele und Wünsche (Was möchte die Familie/der Klient erreichen?)
13. previousMeasures: Bisherige Maßnahmen (frühere Hilfen, Therapien, Jugendhilfe-Maßnahmen, Erfolge/Misserfolge)
14. additionalNotes: Sonstige wichtige Informationen
`

const anamnesisPromptTail = `
Schreibe für jeden Bereich 2-5 vollständige, professionelle Sätze. Falls ein Bereich nicht erwähnt wird UND keine bestehenden Daten vorliegen, schreibe "Keine Angaben".

Gib die Antwort als JSON mit allen 14 Feldern zurück.`

// ExtractAnamnesis liefert den vollständigen 14-Felder-Datensatz.
func (s *ExtractionService) ExtractAnamnesis(ctx context.Context, narrative string, existing *domain.AnamnesisFields) (domain.AnamnesisFields, error) {
	if strings.TrimSpace(narrative) == "" {
		return domain.AnamnesisFields{}, ErrEmptyNarrative
	}

	var existingMap map[string]string
	if existing != nil {
		existingMap = existing.Map()
	}
	prompt := anamnesisPromptHead + existingDataBlock(existingMap) + anamnesisPromptTail

	raw, err := s.llmClient.Generate(ctx, prompt+"\n\nAufnahme:\n"+strings.TrimSpace(narrative))
	if err != nil {
		return domain.AnamnesisFields{}, fmt.Errorf("%w: llm generate: %v", ErrExtractionMalformed, err)
	}

	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonCandidate(raw)), &parsed); err != nil {
		return domain.AnamnesisFields{}, fmt.Errorf("%w: parse: %v", ErrExtractionMalformed, err)
	}

	var fields domain.AnamnesisFields
	if err := decodeRequiredFields(parsed, domain.AnamnesisFieldNames, fields.Apply); err != nil {
		return domain.AnamnesisFields{}, err
	}

	return fields, nil
}

// jsonCandidate wählt aus einer rohen Modellantwort den parsebaren Teil.
func jsonCandidate(raw string) string {
	cleaned := cleanLLMJSONResponse(raw)
	if obj := extractFirstJSONObject(cleaned); obj != "" {
		return obj
	}
	if obj := extractFirstJSONObject(raw); obj != "" {
		return obj
	}
	return cleaned
}

// decodeRequiredFields erzwingt Vollständigkeit: jedes Feld der
// Spezifikation muss als String in der Antwort stehen.
func decodeRequiredFields(parsed map[string]json.RawMessage, names []string, apply func(name, value string) bool) error {
	for _, name := range names {
		rawValue, ok := parsed[name]
		if !ok {
			return fmt.Errorf("%w: field %q missing", ErrExtractionMalformed, name)
		}
		var value string
		if err := json.Unmarshal(rawValue, &value); err != nil {
			return fmt.Errorf("%w: field %q not a string", ErrExtractionMalformed, name)
		}
		apply(name, strings.TrimSpace(value))
	}
	return nil
}

func decodeIndicators(raw json.RawMessage, logger *zap.Logger) (map[domain.IndicatorKind]float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: progress_indicators: %v", ErrExtractionMalformed, err)
	}

	indicators := make(map[domain.IndicatorKind]float64)
	for key, rawScore := range entries {
		kind := domain.IndicatorKind(key)
		if !domain.ValidIndicatorKind(kind) {
			if logger != nil {
				logger.Debug("unknown indicator kind ignored", zap.String("kind", key))
			}
			continue
		}
		var score float64
		if err := json.Unmarshal(rawScore, &score); err != nil {
			return nil, fmt.Errorf("%w: indicator %q not numeric", ErrExtractionMalformed, key)
		}
		if score < 0 || score > 10 {
			return nil, fmt.Errorf("%w: indicator %q out of range: %v", ErrExtractionMalformed, key, score)
		}
		indicators[kind] = score
	}
	if len(indicators) == 0 {
		return nil, nil
	}
	return indicators, nil
}

// existingDataBlock baut den Prompt-Abschnitt, der die Fähigkeit auf die
// Erhalten-statt-Überschreiben-Regel verpflichtet.
func existingDataBlock(existing map[string]string) string {
	if len(existing) == 0 {
		return ""
	}
	encoded, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return ""
	}
	return `
**WICHTIG:** Es existieren bereits Daten. Ergänze oder aktualisiere nur die Bereiche, die im neuen Transkript erwähnt werden. Bestehende Informationen sollen ERHALTEN bleiben und ergänzt werden, nicht überschrieben.

Bestehende Daten:
` + string(encoded) + `

Kombiniere die neuen Informationen MIT den bestehenden. Wenn ein Bereich im neuen Transkript nicht erwähnt wird, übernimm die bestehenden Daten unverändert.
`
}

func existingFieldMap(fields *domain.SessionFields) map[string]string {
	if fields == nil {
		return nil
	}
	return fields.Map()
}

// stringifyAttribute normalisiert JSON-Werte (Strings, Zahlen) auf Text;
// 29.0 wird zu "29".
func stringifyAttribute(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
