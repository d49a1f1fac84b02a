package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"fallakte/internal/config"
	"fallakte/internal/db"
	"fallakte/internal/domain"
	"fallakte/internal/llm"
	"fallakte/internal/repository"
	"fallakte/internal/service"
)

// Terminal-Client für die Falldokumentation: eine Erfassungsrunde pro
// Durchlauf (Aufnahme aus Audiodatei oder getipptes Narrativ), danach
// Extraktion und Merge wie im HTTP-Pfad.
func main() {
	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	clientRepo := repository.NewPgClientRepository(pool)
	anamnesisRepo := repository.NewPgAnamnesisRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)
	indicatorRepo := repository.NewPgIndicatorRepository(pool)
	fragmentRepo := repository.NewPgFragmentRepository(pool)

	llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.EmbeddingModel, logger)
	transcriber := llm.NewWhisperClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.WhisperModel, logger)
	extractSvc := service.NewExtractionService(llmClient, logger)
	fragmentSvc := service.NewFragmentService(llmClient, fragmentRepo, logger)

	app := &captureApp{
		reader:      reader,
		language:    cfg.TranscribeLanguage,
		transcriber: transcriber,
		extractSvc:  extractSvc,
		fragmentSvc: fragmentSvc,
		clients:     clientRepo,
		anamneses:   anamnesisRepo,
		sessions:    sessionRepo,
		indicators:  indicatorRepo,
	}

	for {
		fmt.Println("===== Fallakte: Erfassung =====")
		client, ok := app.selectClient(ctx)
		if !ok {
			continue
		}
		if err := app.runActionsMenu(ctx, client); err != nil {
			log.Printf("fehler im menü: %v", err)
		}
	}
}

type captureApp struct {
	reader      *bufio.Reader
	language    string
	transcriber llm.Transcriber
	extractSvc  *service.ExtractionService
	fragmentSvc *service.FragmentService
	clients     repository.ClientRepository
	anamneses   repository.AnamnesisRepository
	sessions    repository.SessionRepository
	indicators  repository.IndicatorRepository
}

func (a *captureApp) selectClient(ctx context.Context) (domain.Client, bool) {
	clients, err := a.clients.List(ctx)
	if err != nil {
		log.Fatalf("klienten laden: %v", err)
	}

	if len(clients) == 0 {
		fmt.Println("Keine Akten vorhanden. Lege eine neue an.")
		client, err := a.createClientFlow(ctx)
		if err != nil {
			fmt.Printf("Fehler beim Anlegen: %v\n", err)
			return domain.Client{}, false
		}
		return client, true
	}

	fmt.Println("Vorhandene Akten:")
	for i, c := range clients {
		fmt.Printf("[%d] %s (ID: %s)\n", i+1, c.Name, c.ID)
	}
	fmt.Println("[N] Neue Akte anlegen")
	fmt.Print("Akte wählen: ")
	choice, _ := a.reader.ReadString('\n')
	choice = strings.TrimSpace(choice)

	if strings.EqualFold(choice, "N") {
		client, err := a.createClientFlow(ctx)
		if err != nil {
			fmt.Printf("Fehler beim Anlegen: %v\n", err)
			return domain.Client{}, false
		}
		return client, true
	}

	idx, err := strconv.Atoi(choice)
	if err != nil || idx < 1 || idx > len(clients) {
		fmt.Println("Ungültige Auswahl.")
		return domain.Client{}, false
	}
	return clients[idx-1], true
}

func (a *captureApp) runActionsMenu(ctx context.Context, client domain.Client) error {
	for {
		fmt.Printf("\n--- Akte: %s ---\n", client.Name)
		fmt.Println("[1] Termin erfassen")
		fmt.Println("[2] Termin überarbeiten")
		fmt.Println("[3] Anamnese erfassen/ergänzen")
		fmt.Println("[4] Akte wechseln")
		fmt.Println("[5] Beenden")
		fmt.Print("Option wählen: ")

		line, _ := a.reader.ReadString('\n')
		switch strings.TrimSpace(line) {
		case "1":
			if err := a.sessionFlow(ctx, client, nil); err != nil {
				fmt.Printf("Fehler beim Termin: %v\n", err)
			}
		case "2":
			prev, ok := a.selectSession(ctx, client.ID)
			if !ok {
				continue
			}
			if err := a.sessionFlow(ctx, client, &prev); err != nil {
				fmt.Printf("Fehler bei der Überarbeitung: %v\n", err)
			}
		case "3":
			if err := a.anamnesisFlow(ctx, client); err != nil {
				fmt.Printf("Fehler bei der Anamnese: %v\n", err)
			}
		case "4":
			return nil
		case "5":
			os.Exit(0)
		default:
			fmt.Println("Ungültige Option.")
		}
	}
}

func (a *captureApp) createClientFlow(ctx context.Context) (domain.Client, error) {
	narrative, err := a.captureNarrative(ctx, false)
	if err != nil {
		return domain.Client{}, err
	}

	extracted, err := a.extractSvc.ExtractProfile(ctx, narrative)
	if err != nil {
		return domain.Client{}, err
	}
	client := service.MergeProfile(nil, extracted)
	if err := a.clients.Create(ctx, client); err != nil {
		return domain.Client{}, err
	}
	a.fragmentSvc.RecordFragment(ctx, client.ID, nil, narrative)
	fmt.Printf("Akte angelegt: %s\n", client.Name)
	return client, nil
}

func (a *captureApp) sessionFlow(ctx context.Context, client domain.Client, prev *domain.Session) error {
	if prev != nil {
		if history, err := a.indicators.ListBySession(ctx, prev.ID); err == nil && len(history) > 0 {
			fmt.Println("Bisherige Indikatoren:")
			for _, p := range history {
				fmt.Printf("  %s: %.1f\n", p.Kind, p.Score)
			}
		}
	}

	narrative, err := a.captureNarrative(ctx, prev != nil)
	if err != nil {
		return err
	}

	sessionDate := time.Now().UTC()
	if prev != nil {
		sessionDate = prev.SessionDate
	} else {
		fmt.Print("Termindatum (JJJJ-MM-TT, leer = heute): ")
		dateStr, _ := a.reader.ReadString('\n')
		dateStr = strings.TrimSpace(dateStr)
		if dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("datum parsen: %w", err)
			}
			sessionDate = parsed
		}
	}

	var existing *domain.SessionFields
	if prev != nil {
		existing = &prev.Fields
	}
	fields, indicators, err := a.extractSvc.ExtractSession(ctx, narrative, existing)
	if err != nil {
		return err
	}
	session, points, err := service.MergeSession(prev, client.ID, sessionDate, fields, indicators, narrative)
	if err != nil {
		return err
	}

	if prev == nil {
		err = a.sessions.Create(ctx, session, points)
	} else {
		err = a.sessions.Update(ctx, session, points)
	}
	if err != nil {
		return err
	}
	a.fragmentSvc.RecordFragment(ctx, client.ID, &session.ID, narrative)

	fmt.Println("\nTermin gespeichert:")
	for name, value := range session.Fields.Map() {
		fmt.Printf("  %s: %s\n", name, value)
	}
	for _, p := range points {
		fmt.Printf("  Indikator %s: %.1f\n", p.Kind, p.Score)
	}
	return nil
}

func (a *captureApp) anamnesisFlow(ctx context.Context, client domain.Client) error {
	var prev *domain.Anamnesis
	if existing, err := a.anamneses.GetByClientID(ctx, client.ID); err == nil {
		prev = &existing
	}

	narrative, err := a.captureNarrative(ctx, prev != nil)
	if err != nil {
		return err
	}

	var existingFields *domain.AnamnesisFields
	if prev != nil {
		existingFields = &prev.Fields
	}
	fields, err := a.extractSvc.ExtractAnamnesis(ctx, narrative, existingFields)
	if err != nil {
		return err
	}
	anamnesis, err := service.MergeAnamnesis(prev, client.ID, fields, narrative)
	if err != nil {
		return err
	}
	if err := a.anamneses.Upsert(ctx, anamnesis); err != nil {
		return err
	}
	a.fragmentSvc.RecordFragment(ctx, client.ID, nil, narrative)

	fmt.Println("\nAnamnese gespeichert:")
	for name, value := range anamnesis.Fields.Map() {
		fmt.Printf("  %s: %s\n", name, value)
	}
	return nil
}

func (a *captureApp) selectSession(ctx context.Context, clientID string) (domain.Session, bool) {
	sessions, err := a.sessions.ListByClient(ctx, clientID)
	if err != nil {
		fmt.Printf("Termine laden: %v\n", err)
		return domain.Session{}, false
	}
	if len(sessions) == 0 {
		fmt.Println("Keine Termine vorhanden.")
		return domain.Session{}, false
	}
	for i, s := range sessions {
		fmt.Printf("[%d] Termin vom %s\n", i+1, s.SessionDate.Format("02.01.2006"))
	}
	fmt.Print("Termin wählen: ")
	choice, _ := a.reader.ReadString('\n')
	idx, err := strconv.Atoi(strings.TrimSpace(choice))
	if err != nil || idx < 1 || idx > len(sessions) {
		fmt.Println("Ungültige Auswahl.")
		return domain.Session{}, false
	}
	return sessions[idx-1], true
}

// captureNarrative führt eine Erfassungsrunde durch und liefert das
// bestätigte Narrativ. Aufnahme heißt hier: Pfad zu einer Audiodatei,
// die transkribiert wird.
func (a *captureApp) captureNarrative(ctx context.Context, editingExisting bool) (string, error) {
	round := service.NewCaptureRound(editingExisting)

	for {
		switch round.State {
		case service.CaptureIdle:
			fmt.Println("\n[A] Audio transkribieren  [T] Narrativ tippen  [X] Abbrechen")
			fmt.Print("Auswahl: ")
			choice, _ := a.reader.ReadString('\n')
			switch strings.ToUpper(strings.TrimSpace(choice)) {
			case "A":
				next, err := round.Start()
				if err != nil {
					return "", err
				}
				round = next
			case "T":
				fmt.Print("Narrativ: ")
				text, _ := a.reader.ReadString('\n')
				next, err := round.TypeNarrative(strings.TrimSpace(text))
				if err != nil {
					fmt.Printf("Eingabe verworfen: %v\n", err)
					continue
				}
				round = next
			case "X":
				round = round.Cancel()
				return "", errors.New("erfassung abgebrochen")
			default:
				fmt.Println("Ungültige Auswahl.")
			}

		case service.CaptureRecording:
			fmt.Print("Pfad zur Audiodatei: ")
			path, _ := a.reader.ReadString('\n')
			path = strings.TrimSpace(path)
			next, err := round.Stop()
			if err != nil {
				return "", err
			}
			round = next

			audio, err := os.ReadFile(path)
			if err != nil {
				fmt.Printf("Datei lesen: %v\n", err)
				round = round.TranscribeFailed()
				continue
			}
			transcript, err := a.transcriber.Transcribe(ctx, audio, path, a.language)
			if err != nil {
				fmt.Printf("Transkription fehlgeschlagen: %v\n", err)
				round = round.TranscribeFailed()
				continue
			}
			next, err = round.TranscriptReady(transcript)
			if err != nil {
				fmt.Printf("Transkript leer, zurück zum Start: %v\n", err)
				round = round.TranscribeFailed()
				continue
			}
			round = next

		case service.CaptureEditing:
			fmt.Printf("\n--- Transkript ---\n%s\n------------------\n", round.Transcript)
			fmt.Println("[S] Übernehmen  [B] Text ersetzen  [N] Neu aufnehmen  [X] Abbrechen")
			fmt.Print("Auswahl: ")
			choice, _ := a.reader.ReadString('\n')
			switch strings.ToUpper(strings.TrimSpace(choice)) {
			case "S":
				next, err := round.Save()
				if err != nil {
					fmt.Printf("Speichern nicht möglich: %v\n", err)
					continue
				}
				round = next
			case "B":
				fmt.Print("Neuer Text: ")
				text, _ := a.reader.ReadString('\n')
				next, err := round.TypeNarrative(strings.TrimSpace(text))
				if err != nil {
					fmt.Printf("Eingabe verworfen: %v\n", err)
					continue
				}
				round = next
			case "N":
				next, err := round.ReRecord()
				if err != nil {
					return "", err
				}
				round = next
			case "X":
				round = round.Cancel()
				return "", errors.New("erfassung abgebrochen")
			default:
				fmt.Println("Ungültige Auswahl.")
			}

		case service.CaptureCommitted:
			return round.Transcript, nil

		default:
			return "", fmt.Errorf("unerwarteter zustand: %s", round.State)
		}
	}
}
