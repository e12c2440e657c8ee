package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"intake/pkg/domain"
)

const (
	pathExtractIdentity   = "/api/extract"
	pathExtractTaxID      = "/api/vision-extract"
	pathExtractTranscript = "/api/marksheet-extract"
	pathExtractResidency  = "/api/living-certificate-extract"
	pathClassifyName      = "/api/classify-name"
	pathClassifyTaxID     = "/api/classify-pan"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

var extractPaths = map[domain.DocumentType]string{
	domain.DocumentIdentity:   pathExtractIdentity,
	domain.DocumentTaxID:      pathExtractTaxID,
	domain.DocumentTranscript: pathExtractTranscript,
	domain.DocumentResidency:  pathExtractResidency,
}

// Observer receives call outcomes. The intake metrics implement it.
type Observer interface {
	ObserveExtraction(docType domain.DocumentType, outcome string, elapsed time.Duration)
	ObserveClassification(kind Kind, verdict Verdict)
}

// HTTPClient talks to the extraction service over multipart and JSON HTTP.
type HTTPClient struct {
	baseURL         string
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *slog.Logger
	observer        Observer
	tracer          trace.Tracer
	extractTimeout  time.Duration
	classifyTimeout time.Duration
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithLimiter paces outbound calls. A nil limiter disables pacing.
func WithLimiter(l *rate.Limiter) Option {
	return func(h *HTTPClient) { h.limiter = l }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(h *HTTPClient) { h.logger = l }
}

// WithObserver records latency and verdicts.
func WithObserver(o Observer) Option {
	return func(h *HTTPClient) { h.observer = o }
}

// WithTimeouts bounds each extraction and classification call. Zero leaves
// the caller's context deadline in charge.
func WithTimeouts(extract, classify time.Duration) Option {
	return func(h *HTTPClient) {
		h.extractTimeout = extract
		h.classifyTimeout = classify
	}
}

// NewHTTPClient builds a client rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
		tracer:     otel.Tracer("intake/extraction"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Extract uploads image to the endpoint for docType and decodes the result.
func (c *HTTPClient) Extract(ctx context.Context, docType domain.DocumentType, image []byte) (Result, error) {
	path, ok := extractPaths[docType]
	if !ok {
		return nil, fmt.Errorf("no extraction endpoint for document type %q", docType)
	}

	ext, ok := imageExtension(image)
	if !ok {
		return nil, newError(CategoryUnsupportedMedia, path, "rejected upload", ErrUnsupportedMedia)
	}

	ctx, span := c.tracer.Start(ctx, "extraction.Extract", trace.WithAttributes(
		attribute.String("document_type", docType.String()),
		attribute.String("endpoint", path),
	))
	defer span.End()

	ctx, cancel := withTimeout(ctx, c.extractTimeout)
	defer cancel()

	start := time.Now()
	result, err := c.extract(ctx, docType, path, ext, image)
	c.observeExtraction(docType, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CategoryOf(err)))
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) extract(ctx context.Context, docType domain.DocumentType, path, ext string, image []byte) (Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "upload."+ext)
	if err != nil {
		return nil, fmt.Errorf("creating multipart field: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("writing multipart field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	status, raw, err := c.do(ctx, path, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		e := newError(CategoryBadStatus, path, serviceMessage(raw, status), nil)
		e.StatusCode = status
		return nil, e
	}

	switch docType {
	case domain.DocumentIdentity:
		var p identityPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, newError(CategoryBadData, path, "decoding identity response", err)
		}
		r := p.toResult()
		if r.Name == "" && r.IdentityNumber == "" {
			return nil, newError(CategoryEmpty, path, "no name or identity number found", ErrExtractionEmpty)
		}
		return r, nil
	case domain.DocumentTaxID:
		var p taxIDPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, newError(CategoryBadData, path, "decoding tax-ID response", err)
		}
		return p.toResult(), nil
	case domain.DocumentTranscript:
		var p transcriptPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, newError(CategoryBadData, path, "decoding transcript response", err)
		}
		return p.toResult(), nil
	default:
		var p residencyPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, newError(CategoryBadData, path, "decoding residency response", err)
		}
		return p.toResult(), nil
	}
}

// Classify asks the model whether value is genuine. A non-2xx status or an
// undecodable body resolves to VerdictNo; only transport failure is an error.
func (c *HTTPClient) Classify(ctx context.Context, kind Kind, value string) (Verdict, error) {
	var (
		path    string
		payload any
	)
	switch kind {
	case KindName:
		path, payload = pathClassifyName, map[string]string{"name": value}
	case KindTaxID:
		path, payload = pathClassifyTaxID, map[string]string{"pan_number": value}
	default:
		return "", fmt.Errorf("unknown classification kind %q", kind)
	}

	ctx, span := c.tracer.Start(ctx, "extraction.Classify", trace.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("endpoint", path),
	))
	defer span.End()

	ctx, cancel := withTimeout(ctx, c.classifyTimeout)
	defer cancel()

	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encoding classify request: %w", err)
	}
	status, raw, err := c.do(ctx, path, "application/json", bytes.NewReader(b))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CategoryOf(err)))
		return "", err
	}

	verdict := VerdictNo
	if status >= 200 && status <= 299 {
		var resp struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(raw, &resp); err == nil {
			verdict = ParseVerdict(resp.Response)
		} else {
			c.logger.WarnContext(ctx, "undecodable classify response",
				"kind", kind,
				"error", err,
			)
		}
	} else {
		c.logger.WarnContext(ctx, "classify returned non-success status",
			"kind", kind,
			"status", status,
		)
	}
	span.SetAttributes(attribute.String("verdict", string(verdict)))
	if c.observer != nil {
		c.observer.ObserveClassification(kind, verdict)
	}
	return verdict, nil
}

func (c *HTTPClient) do(ctx context.Context, path, contentType string, body io.Reader) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, transportError(ctx, path, "waiting for rate limiter", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, transportError(ctx, path, "sending request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, transportError(ctx, path, "reading response", err)
	}
	return resp.StatusCode, raw, nil
}

func (c *HTTPClient) observeExtraction(docType domain.DocumentType, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "success"
	if err != nil {
		if cat := CategoryOf(err); cat != "" {
			outcome = string(cat)
		} else {
			outcome = "error"
		}
	}
	c.observer.ObserveExtraction(docType, outcome, elapsed)
}

// transportError maps a failed round trip to timeout or transport. A
// cancelled context keeps ctx.Err() as the cause so callers can detect it.
func transportError(ctx context.Context, path, msg string, err error) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return newError(CategoryTimeout, path, msg, context.DeadlineExceeded)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return newError(CategoryTransport, path, msg, context.Canceled)
	}
	return newError(CategoryTransport, path, msg, err)
}

// serviceMessage pulls the "error" field out of a failure body.
func serviceMessage(raw []byte, status int) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("service returned status %d", status)
}

// imageExtension sniffs the upload. Only PNG and JPEG are accepted.
func imageExtension(image []byte) (string, bool) {
	switch http.DetectContentType(image) {
	case "image/png":
		return "png", true
	case "image/jpeg":
		return "jpg", true
	}
	return "", false
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
