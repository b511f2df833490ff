package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ollamaServer replies to /api/generate with reply as a single NDJSON chunk
// and records the prompts it receives.
func ollamaServer(t *testing.T, reply string, prompts *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if prompts != nil {
			*prompts = append(*prompts, req.Prompt)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "response": reply, "done": true})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(srv.URL, "llama3", 2*time.Second, srv.Client())
	require.NoError(t, err)
	return c
}

func TestAssessCompleteness(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		complete bool
		followUp string
	}{
		{name: "complete", reply: "COMPLETE", complete: true},
		{name: "complete lower case", reply: "complete.", complete: true},
		{name: "question", reply: "Which room is the leak in?", followUp: "Which room is the leak in?"},
		{name: "empty reply", reply: "  ", followUp: "Could you tell me a bit more about the problem?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var prompts []string
			c := newClient(t, ollamaServer(t, tt.reply, &prompts))

			complete, followUp, err := c.AssessCompleteness(context.Background(), "the sink is leaking")
			require.NoError(t, err)
			assert.Equal(t, tt.complete, complete)
			assert.Equal(t, tt.followUp, followUp)
			require.Len(t, prompts, 1)
			assert.Contains(t, prompts[0], "the sink is leaking")
		})
	}
}

func TestClassifyIssue(t *testing.T) {
	var prompts []string
	c := newClient(t, ollamaServer(t, "Electrician", &prompts))

	kind, err := c.ClassifyIssue(context.Background(), "lights flicker")
	require.NoError(t, err)
	assert.Equal(t, "Electrician", kind)
	assert.Contains(t, prompts[0], "Plumber, Electrician, General.")
}

func TestGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()
	c := newClient(t, srv)

	_, _, err := c.AssessCompleteness(context.Background(), "x")
	assert.Error(t, err)
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("not a url", "m", time.Second, nil)
	assert.Error(t, err)
}

func TestMatchType(t *testing.T) {
	tests := map[string]string{
		"Plumber":                     "Plumber",
		"electrician":                 "Electrician",
		"I think a Plumber is needed": "Plumber",
		"no idea":                     "General",
		"":                            "General",
		"Electrician, maybe Plumber":  "Electrician",
	}
	for reply, want := range tests {
		assert.Equal(t, want, MatchType(reply), strings.TrimSpace(reply))
	}
}
