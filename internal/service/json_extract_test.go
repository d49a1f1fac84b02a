package service

import "testing"

func TestCleanLLMJSONResponse(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bom", "\uFEFF{\"a\": 1}", `{"a": 1}`},
		{"whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
		{"empty", "   ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := cleanLLMJSONResponse(tc.in)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractFirstJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a": 1}`, `{"a": 1}`},
		{"leading prose", `Hier das Ergebnis: {"a": 1}`, `{"a": 1}`},
		{"trailing prose", `{"a": 1} Ich hoffe, das hilft.`, `{"a": 1}`},
		{"nested", `{"a": {"b": 2}}`, `{"a": {"b": 2}}`},
		{"brace in string", `{"a": "wert mit } klammer"}`, `{"a": "wert mit } klammer"}`},
		{"escaped quote", `{"a": "er sagte \"hallo\""}`, `{"a": "er sagte \"hallo\""}`},
		{"no object", "nur Prosa ohne JSON", ""},
		{"unbalanced", `{"a": 1`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractFirstJSONObject(tc.in)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
