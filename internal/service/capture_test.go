package service

import (
	"errors"
	"testing"
)

func TestCaptureRoundFullRecordingPass(t *testing.T) {
	round := NewCaptureRound(false)

	round, err := round.Start()
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if round.State != CaptureRecording {
		t.Fatalf("unexpected state: %s", round.State)
	}

	round, err = round.Stop()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if round.State != CaptureTranscribing {
		t.Fatalf("unexpected state: %s", round.State)
	}

	round, err = round.TranscriptReady("Gesprächsprotokoll vom Hausbesuch.")
	if err != nil {
		t.Fatalf("transcript ready: %v", err)
	}
	if round.State != CaptureEditing {
		t.Fatalf("unexpected state: %s", round.State)
	}

	round, err = round.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if round.State != CaptureCommitted {
		t.Fatalf("unexpected state: %s", round.State)
	}
	if round.Transcript != "Gesprächsprotokoll vom Hausbesuch." {
		t.Fatalf("transcript lost: %q", round.Transcript)
	}
}

func TestCaptureRoundTypedPass(t *testing.T) {
	round := NewCaptureRound(true)

	round, err := round.TypeNarrative("Getippte Notiz.")
	if err != nil {
		t.Fatalf("type: %v", err)
	}
	if round.State != CaptureEditing {
		t.Fatalf("unexpected state: %s", round.State)
	}
	if !round.EditingExisting {
		t.Fatal("editing flag lost")
	}

	round, err = round.Save()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if round.State != CaptureCommitted {
		t.Fatalf("unexpected state: %s", round.State)
	}
}

func TestCaptureRoundTranscribeFailureReturnsToIdle(t *testing.T) {
	round := NewCaptureRound(false)
	round, _ = round.Start()
	round, _ = round.Stop()

	round = round.TranscribeFailed()
	if round.State != CaptureIdle {
		t.Fatalf("unexpected state: %s", round.State)
	}
	if round.Transcript != "" {
		t.Fatalf("transcript not cleared: %q", round.Transcript)
	}

	// Nach dem Fehlschlag ist ein neuer Anlauf möglich.
	if _, err := round.Start(); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
}

func TestCaptureRoundEmptyTranscriptFails(t *testing.T) {
	round := NewCaptureRound(false)
	round, _ = round.Start()
	round, _ = round.Stop()

	round, err := round.TranscriptReady("   \n")
	if !errors.Is(err, ErrEmptyNarrative) {
		t.Fatalf("expected ErrEmptyNarrative, got %v", err)
	}
	if round.State != CaptureIdle {
		t.Fatalf("unexpected state after empty transcript: %s", round.State)
	}
}

func TestCaptureRoundReRecordClearsTranscript(t *testing.T) {
	round := NewCaptureRound(true)
	round, _ = round.TypeNarrative("Erster Versuch.")

	round, err := round.ReRecord()
	if err != nil {
		t.Fatalf("re-record: %v", err)
	}
	if round.State != CaptureRecording {
		t.Fatalf("unexpected state: %s", round.State)
	}
	if round.Transcript != "" {
		t.Fatalf("transcript not cleared: %q", round.Transcript)
	}
	if !round.EditingExisting {
		t.Fatal("editing flag lost on re-record")
	}
}

func TestCaptureRoundSaveWithoutTranscript(t *testing.T) {
	round := CaptureRound{State: CaptureEditing}

	_, err := round.Save()
	if !errors.Is(err, ErrEmptyNarrative) {
		t.Fatalf("expected ErrEmptyNarrative, got %v", err)
	}
}

func TestCaptureRoundInvalidTransitions(t *testing.T) {
	idle := NewCaptureRound(false)

	if _, err := idle.Stop(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("stop from idle: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := idle.Save(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("save from idle: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := idle.ReRecord(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("re-record from idle: expected ErrInvalidTransition, got %v", err)
	}

	recording, _ := idle.Start()
	if _, err := recording.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("start while recording: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := recording.TypeNarrative("Text"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("type while recording: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCaptureRoundValueSemantics(t *testing.T) {
	// Übergänge liefern Kopien; der Ausgangswert bleibt unangetastet.
	round := NewCaptureRound(false)
	started, _ := round.Start()

	if round.State != CaptureIdle {
		t.Fatalf("origin mutated: %s", round.State)
	}
	if started.State != CaptureRecording {
		t.Fatalf("copy not advanced: %s", started.State)
	}
}

func TestCaptureRoundCancelAndRestart(t *testing.T) {
	round := NewCaptureRound(true)
	round, _ = round.TypeNarrative("Notiz.")

	cancelled := round.Cancel()
	if cancelled.State != CaptureIdle || cancelled.Transcript != "" {
		t.Fatalf("cancel did not reset: %+v", cancelled)
	}

	round, _ = round.Save()
	restarted := round.Restart()
	if restarted.State != CaptureIdle || restarted.Transcript != "" {
		t.Fatalf("restart did not reset: %+v", restarted)
	}
	if !restarted.EditingExisting {
		t.Fatal("editing flag lost on restart")
	}
}
