package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/time/rate"

	"intake/pkg/domain"
)

var (
	pngImage  = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	jpegImage = append([]byte("\xff\xd8\xff\xe0"), make([]byte, 32)...)
)

type recordingObserver struct {
	mu          sync.Mutex
	extractions []string
	verdicts    []Verdict
}

func (o *recordingObserver) ObserveExtraction(_ domain.DocumentType, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.extractions = append(o.extractions, outcome)
}

func (o *recordingObserver) ObserveClassification(_ Kind, v Verdict) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verdicts = append(o.verdicts, v)
}

type HTTPClientSuite struct {
	suite.Suite
	mux      *http.ServeMux
	server   *httptest.Server
	client   *HTTPClient
	observer *recordingObserver
}

func TestHTTPClientSuite(t *testing.T) {
	suite.Run(t, new(HTTPClientSuite))
}

func (s *HTTPClientSuite) SetupTest() {
	s.mux = http.NewServeMux()
	s.server = httptest.NewServer(s.mux)
	s.observer = &recordingObserver{}
	s.client = NewHTTPClient(s.server.URL+"/",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithObserver(s.observer),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
}

func (s *HTTPClientSuite) TearDownTest() {
	s.server.Close()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *HTTPClientSuite) TestExtractIdentity() {
	s.mux.HandleFunc(pathExtractIdentity, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		if !s.NoError(err) {
			return
		}
		defer file.Close()
		s.Equal("upload.png", header.Filename)
		writeJSON(w, http.StatusOK, map[string]string{"name": " Ravi Sharma ", "aadhaar_number": "3160 9723 2695"})
	})

	res, err := s.client.Extract(context.Background(), domain.DocumentIdentity, pngImage)
	s.Require().NoError(err)
	s.Equal(&IdentityResult{Name: "Ravi Sharma", IdentityNumber: "3160 9723 2695"}, res)
	s.Equal([]string{"success"}, s.observer.extractions)
}

func (s *HTTPClientSuite) TestExtractIdentityEmpty() {
	s.mux.HandleFunc(pathExtractIdentity, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := s.client.Extract(context.Background(), domain.DocumentIdentity, pngImage)
	s.Require().Error(err)
	s.ErrorIs(err, ErrExtractionEmpty)
	s.Equal(CategoryEmpty, CategoryOf(err))
}

func (s *HTTPClientSuite) TestExtractTaxIDUsesJPEGName() {
	s.mux.HandleFunc(pathExtractTaxID, func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("image")
		if !s.NoError(err) {
			return
		}
		s.Equal("upload.jpg", header.Filename)
		writeJSON(w, http.StatusOK, map[string]string{
			"extracted_text": "INCOME TAX DEPARTMENT",
			"pan_number":     "ABCDE1234F",
			"name":           "RAVI KUMAR SHARMA",
			"father_name":    "MOHAN SHARMA",
			"dob":            "01/02/1990",
		})
	})

	res, err := s.client.Extract(context.Background(), domain.DocumentTaxID, jpegImage)
	s.Require().NoError(err)
	tax, ok := res.(*TaxIDResult)
	s.Require().True(ok)
	s.Equal("ABCDE1234F", tax.Field(domain.FieldTaxID))
	s.Equal("RAVI KUMAR SHARMA", tax.Field(domain.FieldName))
	s.Equal("01/02/1990", tax.DateOfBirth)
}

func (s *HTTPClientSuite) TestExtractTranscriptAcceptsNumericMarks() {
	s.mux.HandleFunc(pathExtractTranscript, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{
			"extracted_text": "BOARD OF SECONDARY EDUCATION",
			"barcodes": [{"format": "QR_CODE", "value": "SSC-2019-1234"}],
			"structured_data": {
				"candidate_name": "SHARMA RAVI",
				"mother_name": "SUNITA",
				"subjects": [
					{"subject": "English", "marks_obtained": 78, "max_marks": "100"},
					{"subject": "Marathi", "marks_obtained": "AB", "max_marks": 100}
				],
				"percentage": 81.5,
				"result": "PASS"
			}
		}`)
	})

	res, err := s.client.Extract(context.Background(), domain.DocumentTranscript, pngImage)
	s.Require().NoError(err)
	tr := res.(*TranscriptResult)
	s.Equal("SHARMA RAVI", tr.Field(domain.FieldCandidateName))
	s.Equal("SUNITA", tr.Field(domain.FieldMotherName))
	s.Equal([]domain.Subject{
		{Subject: "English", Obtained: "78", Max: "100"},
		{Subject: "Marathi", Obtained: "AB", Max: "100"},
	}, tr.Subjects)
	s.Equal("81.5", tr.Percentage)
	s.Equal([]domain.Barcode{{Format: "QR_CODE", Value: "SSC-2019-1234"}}, tr.Barcodes)
}

func (s *HTTPClientSuite) TestExtractResidencyFillsFromRawText() {
	s.mux.HandleFunc(pathExtractResidency, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"raw_text":       "Certificate\n3160 9723 2695\nRavi Sharma\nSunita Sharma\nOBC",
			"candidate_name": nil,
		})
	})

	res, err := s.client.Extract(context.Background(), domain.DocumentResidency, pngImage)
	s.Require().NoError(err)
	s.Equal(&ResidencyResult{
		RawText:       "Certificate\n3160 9723 2695\nRavi Sharma\nSunita Sharma\nOBC",
		UID:           "3160 9723 2695",
		CandidateName: "Ravi Sharma",
		MotherName:    "Sunita Sharma",
		Caste:         "OBC",
	}, res)
}

func (s *HTTPClientSuite) TestExtractRejectsUnsupportedMediaWithoutCalling() {
	called := false
	s.mux.HandleFunc(pathExtractIdentity, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	_, err := s.client.Extract(context.Background(), domain.DocumentIdentity, []byte("%PDF-1.7 not an image"))
	s.Require().Error(err)
	s.ErrorIs(err, ErrUnsupportedMedia)
	s.False(called)
}

func (s *HTTPClientSuite) TestExtractBadStatusCarriesServiceMessage() {
	s.mux.HandleFunc(pathExtractIdentity, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	})

	_, err := s.client.Extract(context.Background(), domain.DocumentIdentity, pngImage)
	var e *Error
	s.Require().True(errors.As(err, &e))
	s.Equal(CategoryBadStatus, e.Category)
	s.Equal(http.StatusInternalServerError, e.StatusCode)
	s.Equal("Internal server error", e.Message)
	s.Equal([]string{"bad_status"}, s.observer.extractions)
}

func (s *HTTPClientSuite) TestExtractBadData() {
	s.mux.HandleFunc(pathExtractTaxID, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := s.client.Extract(context.Background(), domain.DocumentTaxID, pngImage)
	s.Equal(CategoryBadData, CategoryOf(err))
}

func (s *HTTPClientSuite) TestClassifyVerdicts() {
	responses := []struct {
		name   string
		status int
		body   string
		want   Verdict
	}{
		{"exact Y", http.StatusOK, `{"response":"Y"}`, VerdictYes},
		{"padded lower y", http.StatusOK, `{"response":" y\n"}`, VerdictYes},
		{"N", http.StatusOK, `{"response":"N"}`, VerdictNo},
		{"empty", http.StatusOK, `{"response":""}`, VerdictNo},
		{"maybe", http.StatusOK, `{"response":"maybe"}`, VerdictNo},
		{"malformed body", http.StatusOK, `not json`, VerdictNo},
		{"server error", http.StatusInternalServerError, `{"error":"Internal server error"}`, VerdictNo},
	}
	for _, tt := range responses {
		s.Run(tt.name, func() {
			mux := http.NewServeMux()
			mux.HandleFunc(pathClassifyName, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]string
				s.NoError(json.NewDecoder(r.Body).Decode(&body))
				s.Equal("Ravi Sharma", body["name"])
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			got, err := NewHTTPClient(srv.URL).Classify(context.Background(), KindName, "Ravi Sharma")
			s.Require().NoError(err)
			s.Equal(tt.want, got)
		})
	}
}

func (s *HTTPClientSuite) TestClassifyTaxIDSendsPanNumber() {
	s.mux.HandleFunc(pathClassifyTaxID, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		s.NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("ABCDE1234F", body["pan_number"])
		writeJSON(w, http.StatusOK, map[string]string{"response": "Y"})
	})

	got, err := s.client.Classify(context.Background(), KindTaxID, "ABCDE1234F")
	s.Require().NoError(err)
	s.Equal(VerdictYes, got)
	s.Equal([]Verdict{VerdictYes}, s.observer.verdicts)
}

func (s *HTTPClientSuite) TestClassifyTransportFailureIsError() {
	s.server.Close()

	_, err := s.client.Classify(context.Background(), KindName, "Ravi Sharma")
	s.Require().Error(err)
	s.Equal(CategoryTransport, CategoryOf(err))
}

func TestClassifyTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewHTTPClient(srv.URL, WithTimeouts(0, 20*time.Millisecond))
	_, err := client.Classify(context.Background(), KindName, "Ravi Sharma")
	require.Error(t, err)
	assert.Equal(t, CategoryTimeout, CategoryOf(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClassifyCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := NewHTTPClient(srv.URL).Classify(ctx, KindName, "Ravi Sharma")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, CategoryTransport, CategoryOf(err))
}
