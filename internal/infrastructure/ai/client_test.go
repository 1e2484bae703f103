package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doeshing/matrixsh/internal/domain"
)

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(domain.Settings{
		BaseURL: server.URL + "/v1",
		Token:   "mtx_token",
		APIKey:  "sk-ignored",
		Model:   "deepseek-r1",
		Timeout: 2 * time.Second,
	}, nil)
}

func TestSuggestSendsRequest(t *testing.T) {
	var got chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer mtx_token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, completionBody(`{"explanation":"List files","command":"ls -la","risk":"low"}`))
	})

	suggestion, err := client.Suggest(context.Background(), domain.SuggestionContext{
		OS:        "linux",
		ShellMode: domain.ShellBash,
		Cwd:       "/work",
		Entries:   []string{"a.txt", "b.txt"},
		History:   []domain.HistoryItem{{Kind: domain.KindUser, Text: "ls"}},
		Input:     "mostrami i file",
	})
	require.NoError(t, err)

	want := domain.Suggestion{Explanation: "List files", Command: "ls -la", Risk: domain.RiskLow}
	if diff := cmp.Diff(want, suggestion); diff != "" {
		t.Fatalf("suggestion mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "deepseek-r1", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "explanation, command, risk")
	assert.Equal(t, "user", got.Messages[1].Role)

	var payload contextPayload
	require.NoError(t, json.Unmarshal([]byte(got.Messages[1].Content), &payload))
	assert.Equal(t, "mostrami i file", payload.Input)
	assert.Equal(t, "bash", payload.Shell)
	assert.Equal(t, []string{"a.txt", "b.txt"}, payload.Files)
	assert.Equal(t, []historyPayload{{Kind: "user", Text: "ls"}}, payload.History)
}

func TestSuggestFallsBackToAPIKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-only", r.Header.Get("Authorization"))
		fmt.Fprint(w, completionBody(`{"explanation":"x","command":"pwd","risk":"low"}`))
	}))
	defer server.Close()

	client := NewClient(domain.Settings{BaseURL: server.URL, APIKey: "sk-only", Model: "m", Timeout: time.Second}, nil)
	_, err := client.Suggest(context.Background(), domain.SuggestionContext{Input: "where am I"})
	require.NoError(t, err)
}

func TestSuggestCapsContext(t *testing.T) {
	var got chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, completionBody(`{"explanation":"x","command":"ls","risk":"low"}`))
	})

	entries := make([]string, 500)
	for i := range entries {
		entries[i] = fmt.Sprintf("f%03d", i)
	}
	history := make([]domain.HistoryItem, 30)
	for i := range history {
		history[i] = domain.HistoryItem{Kind: domain.KindUser, Text: fmt.Sprintf("h%d", i)}
	}

	_, err := client.Suggest(context.Background(), domain.SuggestionContext{Entries: entries, History: history, Input: "what now"})
	require.NoError(t, err)

	var payload contextPayload
	require.NoError(t, json.Unmarshal([]byte(got.Messages[1].Content), &payload))
	assert.Len(t, payload.Files, domain.MaxContextEntries)
	require.Len(t, payload.History, domain.MaxContextHistory)
	assert.Equal(t, "h29", payload.History[len(payload.History)-1].Text)
}

func TestSuggestErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"bad token"}}`, domain.IsAuthError},
		{"forbidden", http.StatusForbidden, "", domain.IsAuthError},
		{"server error", http.StatusBadGateway, "upstream down", domain.IsNetworkError},
		{"not json", http.StatusOK, "<html>", domain.IsParseError},
		{"empty choices", http.StatusOK, `{"choices":[]}`, domain.IsParseError},
		{"prose reply", http.StatusOK, completionBody("Sure! Just run ls."), domain.IsParseError},
		{"missing command", http.StatusOK, completionBody(`{"explanation":"x","risk":"low"}`), domain.IsParseError},
		{"empty command", http.StatusOK, completionBody(`{"explanation":"x","command":"  ","risk":"low"}`), domain.IsParseError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			})
			_, err := client.Suggest(context.Background(), domain.SuggestionContext{Input: "how"})
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error kind: %v", err)
		})
	}
}

func TestSuggestUnreachableIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client := NewClient(domain.Settings{BaseURL: url, Token: "t", Model: "m", Timeout: time.Second}, nil)
	_, err := client.Suggest(context.Background(), domain.SuggestionContext{Input: "how"})
	require.Error(t, err)
	assert.True(t, domain.IsNetworkError(err))
}

func TestSuggestTimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(domain.Settings{BaseURL: server.URL, Token: "t", Model: "m", Timeout: 50 * time.Millisecond}, nil)
	_, err := client.Suggest(context.Background(), domain.SuggestionContext{Input: "how"})
	require.Error(t, err)
	assert.True(t, domain.IsNetworkError(err))
}

func TestChatStream(t *testing.T) {
	var got chatCompletionRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive\n\n")
		fmt.Fprint(w, "data: not-json\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored\"}}]}\n\n")
	})

	var chunks []string
	for chunk, err := range client.ChatStream(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}}) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
	assert.True(t, got.Stream)
}

func TestChatStreamAuthError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	var errs []error
	for _, err := range client.ChatStream(context.Background(), nil) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.True(t, domain.IsAuthError(errs[0]))
}

func TestHealth(t *testing.T) {
	var path string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	assert.True(t, client.Health(context.Background()))
	assert.Equal(t, "/health", path)

	down := NewClient(domain.Settings{BaseURL: "http://127.0.0.1:1", Token: "t", Timeout: time.Second}, nil)
	assert.False(t, down.Health(context.Background()))
}

func TestSuggestionRoundTrip(t *testing.T) {
	for _, want := range []domain.Suggestion{
		{Explanation: "Remove the folder", Command: `rm -rf "x"`, Risk: domain.RiskHigh},
		{Explanation: "Elenca i file", Command: "ls -la", Risk: domain.RiskLow},
		{Explanation: "Mostrar <uso> & más", Command: "du -sh * | sort -h", Risk: domain.RiskMedium},
	} {
		data, err := json.Marshal(want)
		require.NoError(t, err)
		got, err := ParseSuggestion(string(data))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseSuggestionWithoutExplanation(t *testing.T) {
	got, err := ParseSuggestion(`{"command":"rm -rf \"x\"","risk":"high"}`)
	require.NoError(t, err)
	assert.Equal(t, domain.Suggestion{Command: `rm -rf "x"`, Risk: domain.RiskHigh}, got)

	got, err = ParseSuggestion(`{"explanation":null,"command":"ls"}`)
	require.NoError(t, err)
	assert.Empty(t, got.Explanation)
}

func TestParseSuggestionRiskFallback(t *testing.T) {
	cases := []struct {
		input string
		want  domain.Risk
	}{
		{input: `{"explanation":"x","command":"ls"}`, want: domain.RiskHigh},
		{input: `{"explanation":"x","command":"ls","risk":"catastrophic"}`, want: domain.RiskHigh},
		{input: `{"explanation":"x","command":"ls","risk":3}`, want: domain.RiskHigh},
		{input: `{"explanation":"x","command":"ls","risk":"MEDIUM"}`, want: domain.RiskMedium},
		{input: "```json\n{\"explanation\":\"x\",\"command\":\"ls\",\"risk\":\"low\"}\n```", want: domain.RiskLow},
	}
	for _, tc := range cases {
		got, err := ParseSuggestion(tc.input)
		require.NoError(t, err, tc.input)
		assert.Equal(t, tc.want, got.Risk, tc.input)
	}
}

func TestURLs(t *testing.T) {
	cases := []struct {
		in, root, api string
	}{
		{"http://127.0.0.1:11435", "http://127.0.0.1:11435", "http://127.0.0.1:11435/v1"},
		{"http://127.0.0.1:11435/v1", "http://127.0.0.1:11435", "http://127.0.0.1:11435/v1"},
		{"http://127.0.0.1:11435/v1/", "http://127.0.0.1:11435", "http://127.0.0.1:11435/v1"},
		{"localhost:11435", "http://localhost:11435", "http://localhost:11435/v1"},
		{"https://gw.example.com/api/v1", "https://gw.example.com", "https://gw.example.com/v1"},
		{"", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.root, RootURL(tc.in))
			assert.Equal(t, tc.api, APIBaseURL(tc.in))
		})
	}
	assert.False(t, strings.HasSuffix(APIBaseURL("http://h/v1"), "/v1/v1"))
}
