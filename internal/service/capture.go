package service

import (
	"errors"
	"fmt"
	"strings"
)

// CaptureState ist der Zustand eines einzelnen Aufnahme-Durchlaufs.
type CaptureState string

const (
	CaptureIdle         CaptureState = "idle"
	CaptureRecording    CaptureState = "recording"
	CaptureTranscribing CaptureState = "transcribing"
	CaptureEditing      CaptureState = "editing"
	CaptureCommitted    CaptureState = "committed"
)

var ErrInvalidTransition = errors.New("invalid capture transition")

// CaptureRound ist die Zustandsmaschine eines Aufnahme-Durchlaufs als
// Wert: Übergänge sind reine Funktionen, kein geteilter Zustand zwischen
// parallel bearbeiteten Entitäten. Bereits committete Runden liegen im
// Store und sind von hier aus unantastbar.
type CaptureRound struct {
	State CaptureState
	// EditingExisting markiert, dass ein bestehender Datensatz zur
	// Revision geöffnet wurde.
	EditingExisting bool
	// Transcript ist das in-flight Narrativ dieser Runde.
	Transcript string
}

// NewCaptureRound startet eine Runde in Idle. editingExisting gibt an, ob
// ein bestehender Datensatz überarbeitet wird.
func NewCaptureRound(editingExisting bool) CaptureRound {
	return CaptureRound{State: CaptureIdle, EditingExisting: editingExisting}
}

// Start beginnt die Aufnahme. Das Mikrofon akquiriert der Client beim
// Start und gibt es auf jedem Ausstiegspfad wieder frei.
func (r CaptureRound) Start() (CaptureRound, error) {
	if r.State != CaptureIdle {
		return r, transitionErr(r.State, "start")
	}
	r.State = CaptureRecording
	return r, nil
}

// Stop beendet die Aufnahme und suspendiert auf der Transkription.
func (r CaptureRound) Stop() (CaptureRound, error) {
	if r.State != CaptureRecording {
		return r, transitionErr(r.State, "stop")
	}
	r.State = CaptureTranscribing
	return r, nil
}

// TranscriptReady trägt das Transkript in die Bearbeitung.
func (r CaptureRound) TranscriptReady(transcript string) (CaptureRound, error) {
	if r.State != CaptureTranscribing {
		return r, transitionErr(r.State, "transcript ready")
	}
	if strings.TrimSpace(transcript) == "" {
		return r.TranscribeFailed(), ErrEmptyNarrative
	}
	r.State = CaptureEditing
	r.Transcript = transcript
	return r, nil
}

// TranscribeFailed verwirft die angefangene Aufnahme und kehrt nach Idle
// zurück; der Fehler wird dem Aufrufer gemeldet, nicht hier gehalten.
func (r CaptureRound) TranscribeFailed() CaptureRound {
	r.State = CaptureIdle
	r.Transcript = ""
	return r
}

// TypeNarrative ist der Tipp-Pfad ohne Mikrofon: direkt in die
// Bearbeitung.
func (r CaptureRound) TypeNarrative(narrative string) (CaptureRound, error) {
	if r.State != CaptureIdle && r.State != CaptureEditing {
		return r, transitionErr(r.State, "type")
	}
	if strings.TrimSpace(narrative) == "" {
		return r, ErrEmptyNarrative
	}
	r.State = CaptureEditing
	r.Transcript = narrative
	return r, nil
}

// ReRecord verwirft Transkript und Extraktion dieser Runde und nimmt neu
// auf. Frühere Commits bleiben unberührt.
func (r CaptureRound) ReRecord() (CaptureRound, error) {
	if r.State != CaptureEditing {
		return r, transitionErr(r.State, "re-record")
	}
	r.State = CaptureRecording
	r.Transcript = ""
	return r, nil
}

// Save schließt die Runde ab; Merge und Persistenz erledigt der Aufrufer
// mit dem Transkript dieser Runde.
func (r CaptureRound) Save() (CaptureRound, error) {
	if r.State != CaptureEditing {
		return r, transitionErr(r.State, "save")
	}
	if strings.TrimSpace(r.Transcript) == "" {
		return r, ErrEmptyNarrative
	}
	r.State = CaptureCommitted
	return r, nil
}

// Restart setzt eine committete Runde für den nächsten Durchlauf auf Idle
// zurück.
func (r CaptureRound) Restart() CaptureRound {
	return NewCaptureRound(r.EditingExisting)
}

// Cancel bricht die Runde ab. Vor dem ersten Narrativ ist das frei von
// Seiteneffekten.
func (r CaptureRound) Cancel() CaptureRound {
	r.State = CaptureIdle
	r.Transcript = ""
	return r
}

func transitionErr(state CaptureState, action string) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, action, state)
}
