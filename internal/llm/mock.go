package llm

import "context"

// MockClient erlaubt Tests ohne echten LLM-Aufruf.
type MockClient struct {
	Response  string
	Responses []string // wenn gesetzt, der Reihe nach konsumiert
	Embedding []float32
	Err       error

	Prompts []string
	calls   int
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) > 0 {
		resp := m.Responses[m.calls%len(m.Responses)]
		m.calls++
		return resp, nil
	}
	return m.Response, nil
}

func (m *MockClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Embedding != nil {
		return m.Embedding, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// MockTranscriber liefert ein festes Transkript.
type MockTranscriber struct {
	Transcript string
	Err        error
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	return m.Transcript, m.Err
}
