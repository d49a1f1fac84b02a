package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"fallakte/internal/domain"
	"fallakte/internal/llm"
)

var (
	// ErrSynthesisFailed: der Syntheseaufruf schlug fehl oder das Ergebnis
	// wurde abgewiesen. Der Aufrufer behält den letzten committeten Stand
	// bzw. übernimmt den manuellen Inhalt.
	ErrSynthesisFailed = errors.New("synthesis failed")
	// ErrDraftErased: die Revision wäre eine Streichung des Entwurfs.
	ErrDraftErased = errors.New("draft would be erased")
)

// SynthesisService komponiert die Fallhistorie zu Berichtsprosa. Die
// Erweitern-statt-Löschen-Regel ist Vertragspflicht der Fähigkeit; hier
// wird sie nur best-effort nachgeprüft.
type SynthesisService struct {
	llmClient llm.Client
	logger    *zap.Logger
}

func NewSynthesisService(llmClient llm.Client, logger *zap.Logger) *SynthesisService {
	return &SynthesisService{
		llmClient: llmClient,
		logger:    logger,
	}
}

// SynthesizeReport erzeugt Berichtstext aus Historie plus neuem Narrativ.
// draft ist der bestehende Berichtsinhalt bei einer Revision, sonst leer.
func (s *SynthesisService) SynthesizeReport(ctx context.Context, reportType domain.ReportType, history domain.CaseHistory, narrative, draft string) (string, error) {
	if !domain.ValidReportType(reportType) {
		return "", fmt.Errorf("%w: unknown report type %q", ErrSynthesisFailed, reportType)
	}
	if strings.TrimSpace(narrative) == "" {
		return "", ErrEmptyNarrative
	}

	prompt := buildReportPrompt(reportType, history, narrative, draft)

	content, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: llm generate: %v", ErrSynthesisFailed, err)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: empty content", ErrSynthesisFailed)
	}

	if draft != "" {
		if err := checkExtendsDraft(draft, content); err != nil {
			if s.logger != nil {
				s.logger.Warn("synthesis rejected", zap.String("report_type", string(reportType)), zap.Error(err))
			}
			return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
		}
	}

	return content, nil
}

func buildReportPrompt(reportType domain.ReportType, history domain.CaseHistory, narrative, draft string) string {
	var b strings.Builder

	switch reportType {
	case domain.ReportIntake:
		b.WriteString(`Du bist ein professioneller Sozialarbeiter. Erstelle einen **Aufnahmebericht** (Anamnese) für einen Klienten der Sozialarbeit.
Der Bericht umfasst:
- Persönliche Daten und aktuelle Lebenssituation
- Problemstellung und Ausgangslage
- Ressourcen und Stärken
- Ziele und Erwartungen
- Erste Einschätzung

Schreibe professionell, empathisch und strukturiert.`)
	case domain.ReportInterim:
		b.WriteString(`Du bist ein professioneller Sozialarbeiter. Erstelle einen **Zwischenbericht** über den Betreuungsverlauf.
Der Bericht:
1. Fasst die Ausgangssituation kurz zusammen
2. Beschreibt den bisherigen Verlauf
3. Hebt erreichte Fortschritte hervor
4. Benennt aktuelle Herausforderungen
5. Gibt nächste Schritte und Empfehlungen

Schreibe professionell, sachlich und strukturiert.`)
	case domain.ReportFinal:
		b.WriteString(`Du bist ein professioneller Sozialarbeiter. Erstelle einen **Abschlussbericht** über die Betreuung.
Der Bericht:
1. Beschreibt die Ausgangssituation
2. Fasst den gesamten Betreuungsverlauf zusammen
3. Dokumentiert erreichte Ziele und Erfolge
4. Benennt nicht erreichte Ziele und Gründe
5. Gibt eine Gesamtbewertung und Empfehlungen
6. Enthält ggf. Hinweise zur Nachbetreuung

Schreibe professionell, abschließend und strukturiert.`)
	}

	b.WriteString("\n\n**Klientenprofil:**\n")
	b.WriteString("- Name: " + history.Client.Name + "\n")
	writeAttribute(&b, "Alter", history.Client.Attributes.Age)
	writeAttribute(&b, "Geschlecht", history.Client.Attributes.Gender)
	writeAttribute(&b, "Familienstand", history.Client.Attributes.MaritalStatus)
	writeAttribute(&b, "Kinder", history.Client.Attributes.Children)
	writeAttribute(&b, "Nationalität", history.Client.Attributes.Nationality)
	writeAttribute(&b, "Beruf", history.Client.Attributes.Occupation)
	writeAttribute(&b, "Beschäftigungsstatus", history.Client.Attributes.EmploymentStatus)

	if history.Anamnesis != nil {
		b.WriteString("\n**Anamnese (Ausgangssituation):**\n")
		writeAnamnesisLine(&b, "Wohnsituation", history.Anamnesis.Fields.HousingSituation)
		writeAnamnesisLine(&b, "Finanzielle Situation", history.Anamnesis.Fields.FinancialSituation)
		writeAnamnesisLine(&b, "Gesundheitszustand", history.Anamnesis.Fields.HealthStatus)
		writeAnamnesisLine(&b, "Familiäre Situation", history.Anamnesis.Fields.FamilySituation)
		writeAnamnesisLine(&b, "Situation der Kinder", history.Anamnesis.Fields.ChildrenSituation)
		writeAnamnesisLine(&b, "Psychologischer Zustand", history.Anamnesis.Fields.PsychologicalState)
		writeAnamnesisLine(&b, "Krisen und Risiken", history.Anamnesis.Fields.CrisesAndRisks)
		writeAnamnesisLine(&b, "Ziele und Wünsche", history.Anamnesis.Fields.GoalsAndWishes)
	}

	// Intake stützt sich allein auf Profil und Anamnese.
	if reportType != domain.ReportIntake {
		fmt.Fprintf(&b, "\n**Bisherige Termine (%d):**\n", len(history.Sessions))
		if len(history.Sessions) == 0 {
			b.WriteString("Keine Termine dokumentiert\n")
		}
		for i, sess := range history.Sessions {
			fmt.Fprintf(&b, "\nTermin %d (%s):\n", i+1, sess.SessionDate.Format("02.01.2006"))
			b.WriteString("- Aktueller Stand: " + sess.Fields.CurrentStatus + "\n")
			b.WriteString("- Aktionen: " + sess.Fields.ActionsTaken + "\n")
			b.WriteString("- Nächste Schritte: " + sess.Fields.NextSteps + "\n")
			if !domain.IsNoData(sess.Fields.NetworkInvolvement) {
				b.WriteString("- Netzwerk: " + sess.Fields.NetworkInvolvement + "\n")
			}
		}

		b.WriteString("\n**Bisherige Berichte:**\n")
		if len(history.Reports) == 0 {
			b.WriteString("Keine Berichte vorhanden\n")
		}
		for _, rep := range history.Reports {
			// Nur Typ, Datum und Titel; Inhalt fließt allein über draft ein.
			fmt.Fprintf(&b, "- %s vom %s: %s\n", rep.Type, rep.CreatedAt.Format("02.01.2006"), rep.Title)
		}
	}

	if draft != "" {
		b.WriteString(`
**Bestehender Berichtinhalt:**
` + draft + `

**WICHTIG:** Ergänze den bestehenden Inhalt mit den neuen Informationen. Überschreibe nichts, sondern füge hinzu. Der bestehende Text muss vollständig erhalten bleiben.
`)
	}

	b.WriteString("\n**Neue Notiz/Ergänzung:**\n" + strings.TrimSpace(narrative) + "\n")
	b.WriteString("\nErstelle den Bericht basierend auf den bereitgestellten Informationen.")

	return b.String()
}

func writeAttribute(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		value = "k.A."
	}
	b.WriteString("- " + label + ": " + value + "\n")
}

func writeAnamnesisLine(b *strings.Builder, label, value string) {
	if domain.IsNoData(value) {
		return
	}
	b.WriteString("- " + label + ": " + value + "\n")
}

// checkExtendsDraft prüft best-effort, dass eine Revision den Entwurf
// erweitert statt streicht: nicht kürzer, und mindestens ein Stichproben-
// Auszug des Entwurfs taucht wieder auf. Eine echte Garantie kann nur die
// Fähigkeit selbst geben.
func checkExtendsDraft(draft, revised string) error {
	// Runen statt Bytes: Umlaute dürfen den Längenvergleich nicht kippen.
	if utf8.RuneCountInString(strings.TrimSpace(revised)) < utf8.RuneCountInString(strings.TrimSpace(draft)) {
		return fmt.Errorf("%w: revision shorter than draft", ErrDraftErased)
	}

	excerpts := sampleExcerpts(draft, 3)
	if len(excerpts) == 0 {
		return nil
	}
	for _, e := range excerpts {
		if strings.Contains(revised, e) {
			return nil
		}
	}
	return fmt.Errorf("%w: no draft excerpt found in revision", ErrDraftErased)
}

// sampleExcerpts zieht bis zu n längere Zeilen aus Anfang, Mitte und Ende
// des Entwurfs.
func sampleExcerpts(text string, n int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len([]rune(line)) >= 20 {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 || n <= 0 {
		return nil
	}
	if len(lines) <= n {
		return lines
	}
	return []string{
		lines[0],
		lines[len(lines)/2],
		lines[len(lines)-1],
	}
}
