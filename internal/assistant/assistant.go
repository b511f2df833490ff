package assistant

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"tenantsync/internal/models"
	"tenantsync/pkg/logger"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

const completenessPrompt = `You are the intake assistant of a property management company.
A tenant is describing a maintenance problem. The description so far is:

{{.Description}}

If the description says what is broken and where it is, answer with the single word COMPLETE.
Otherwise answer with one short follow-up question for the tenant and nothing else.`

const classifyPrompt = `Classify the maintenance problem below into exactly one of these categories:
{{range $i, $t := .Types}}{{if $i}}, {{end}}{{$t}}{{end}}.
Answer with the category name only.

{{.Description}}`

var (
	completenessTmpl = template.Must(template.New("completeness").Parse(completenessPrompt))
	classifyTmpl     = template.Must(template.New("classify").Parse(classifyPrompt))
)

// Client asks an Ollama model to judge and classify maintenance descriptions.
type Client struct {
	api     *api.Client
	model   string
	timeout time.Duration
}

func New(baseURL, model string, timeout time.Duration, httpClient *http.Client) (*Client, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{api: api.NewClient(u, httpClient), model: model, timeout: timeout}, nil
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stream := false
	var out strings.Builder
	start := time.Now()
	err := c.api.Generate(ctx, &api.GenerateRequest{Model: c.model, Prompt: prompt, Stream: &stream},
		func(r api.GenerateResponse) error {
			out.WriteString(r.Response)
			return nil
		})
	if err != nil {
		logger.ErrorLogger.Error("Assistant generate failed", zap.String("model", c.model), zap.Error(err))
		return "", fmt.Errorf("generate: %w", err)
	}
	logger.ContextLogger.Debug("Assistant generate", zap.String("model", c.model), zap.Duration("latency", time.Since(start)))
	return strings.TrimSpace(out.String()), nil
}

// AssessCompleteness reports whether description is enough to file a
// request. When it is not, followUp holds the question to ask the tenant.
func (c *Client) AssessCompleteness(ctx context.Context, description string) (bool, string, error) {
	prompt, err := render(completenessTmpl, struct{ Description string }{description})
	if err != nil {
		return false, "", err
	}
	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return false, "", err
	}
	if strings.HasPrefix(strings.ToUpper(reply), "COMPLETE") {
		return true, "", nil
	}
	if reply == "" {
		reply = "Could you tell me a bit more about the problem?"
	}
	return false, reply, nil
}

// ClassifyIssue maps description to one of the maintenance types. Replies
// naming no known type fall back to General.
func (c *Client) ClassifyIssue(ctx context.Context, description string) (string, error) {
	prompt, err := render(classifyTmpl, struct {
		Types       []string
		Description string
	}{models.MaintenanceTypes, description})
	if err != nil {
		return "", err
	}
	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return MatchType(reply), nil
}

// MatchType returns the first maintenance type named in reply, or General.
func MatchType(reply string) string {
	lower := strings.ToLower(reply)
	best, bestAt := models.TypeGeneral, -1
	for _, t := range models.MaintenanceTypes {
		if i := strings.Index(lower, strings.ToLower(t)); i >= 0 && (bestAt < 0 || i < bestAt) {
			best, bestAt = t, i
		}
	}
	return best
}
