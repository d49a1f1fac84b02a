package domain

import (
	"time"

	pgvector "github.com/pgvector/pgvector-go"
)

// Worker ist die Fachkraft, die Fälle dokumentiert. Identität und Rechte
// liegen außerhalb des Kerns; hier nur die persistierte Randform.
type Worker struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	RoleAdmin        = "admin"
	RoleSocialWorker = "social_worker"
)

// Client ist die Klientenakte: Anzeigename plus dünn besetzte Profilattribute.
type Client struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Attributes ClientAttributes `json:"attributes"`
	Anamnesis  *Anamnesis       `json:"anamnesis,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Anamnesis hält die 14 Erhebungsfelder plus das kumulative Rohtranskript.
// Invariante: nach jedem Commit ist jedes Feld belegt oder trägt den Platzhalter.
type Anamnesis struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	Fields        AnamnesisFields `json:"fields"`
	RawTranscript string          `json:"raw_transcript"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Session ist ein dokumentierter Termin mit vier Verlaufsfeldern.
type Session struct {
	ID            string        `json:"id"`
	ClientID      string        `json:"client_id"`
	SessionDate   time.Time     `json:"session_date"`
	Fields        SessionFields `json:"fields"`
	RawTranscript string        `json:"raw_transcript"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IndicatorKind benennt einen Fortschrittsindikator.
type IndicatorKind string

const (
	IndicatorFinances        IndicatorKind = "finances"
	IndicatorHealth          IndicatorKind = "health"
	IndicatorJobApplications IndicatorKind = "job_applications"
	IndicatorFamilySituation IndicatorKind = "family_situation"
	IndicatorChildWelfare    IndicatorKind = "child_welfare"
)

// IndicatorKinds ist die feste Aufzählung in Dokumentationsreihenfolge.
var IndicatorKinds = []IndicatorKind{
	IndicatorFinances,
	IndicatorHealth,
	IndicatorJobApplications,
	IndicatorFamilySituation,
	IndicatorChildWelfare,
}

func ValidIndicatorKind(kind IndicatorKind) bool {
	for _, k := range IndicatorKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ProgressIndicator ist ein Messwert pro Termin; einmal geschrieben, nie geändert.
type ProgressIndicator struct {
	ID        string        `json:"id"`
	ClientID  string        `json:"client_id"`
	SessionID string        `json:"session_id"`
	Kind      IndicatorKind `json:"kind"`
	Score     float64       `json:"score"`
	CreatedAt time.Time     `json:"created_at"`
}

type ReportType string

const (
	ReportIntake  ReportType = "intake"
	ReportInterim ReportType = "interim"
	ReportFinal   ReportType = "final"
)

func ValidReportType(t ReportType) bool {
	return t == ReportIntake || t == ReportInterim || t == ReportFinal
}

// Report ist ein synthetisierter Bericht. Content wächst über Revisionen,
// RawTranscript archiviert jede zugelieferte Notiz.
type Report struct {
	ID            string     `json:"id"`
	ClientID      string     `json:"client_id"`
	Type          ReportType `json:"type"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	RawTranscript string     `json:"raw_transcript"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ArchiveFragment ist ein einzelnes committetes Narrativ-Fragment mit Embedding
// für die Ähnlichkeitssuche über die Fallhistorie.
type ArchiveFragment struct {
	ID        string          `json:"id"`
	ClientID  string          `json:"client_id"`
	SessionID *string         `json:"session_id,omitempty"`
	Content   string          `json:"content"`
	Embedding pgvector.Vector `json:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

// CaseHistory ist der Schnappschuss, den die Synthese als Kontext erhält.
// Sessions sind aufsteigend nach Datum sortiert.
type CaseHistory struct {
	Client    Client
	Anamnesis *Anamnesis
	Sessions  []Session
	Reports   []Report
}
