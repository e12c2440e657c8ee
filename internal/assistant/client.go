// Package assistant forwards operator questions to the Q&A backend.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "intake/pkg/domain-errors"
)

const pathQuery = "/api/rag-query"

// Client calls the Q&A backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// NewClient builds a client rooted at baseURL. A zero timeout leaves the
// caller's deadline in charge.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tracer:     otel.Tracer("intake/assistant"),
	}
}

// Ask sends question and returns the backend's answer verbatim.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "No question provided")
	}

	ctx, span := c.tracer.Start(ctx, "assistant.Ask")
	defer span.End()

	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", fmt.Errorf("encoding question: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pathQuery, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "Q&A service timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "Q&A service unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "reading Q&A response")
	}

	var out struct {
		Answer string `json:"answer"`
		Error  string `json:"error"`
	}
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("Q&A service returned status %d", resp.StatusCode)
		}
		span.SetStatus(codes.Error, msg)
		return "", dErrors.New(dErrors.CodeUnavailable, msg)
	}
	if decodeErr != nil {
		return "", dErrors.Wrap(decodeErr, dErrors.CodeUnavailable, "malformed Q&A response")
	}
	return out.Answer, nil
}
