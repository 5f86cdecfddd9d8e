package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	wav "github.com/youpy/go-wav"

	"github.com/nmehta/talkiee/internal/coach"
	"github.com/nmehta/talkiee/internal/history"
	"github.com/nmehta/talkiee/internal/session"
)

type generatorFunc func(ctx context.Context, prompt string) string

func (f generatorFunc) Generate(ctx context.Context, prompt string) string { return f(ctx, prompt) }

type sttFunc func(ctx context.Context, wavData []byte, language string) (string, error)

func (f sttFunc) Recognize(ctx context.Context, wavData []byte, language string) (string, error) {
	return f(ctx, wavData, language)
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	return Deps{
		Coach: coach.New(generatorFunc(func(ctx context.Context, prompt string) string {
			return "good pacing overall"
		})),
		STT: sttFunc(func(ctx context.Context, wavData []byte, language string) (string, error) {
			return "hello world", nil
		}),
		Store: history.NewStore(filepath.Join(t.TempDir(), "history.json")),
	}
}

func newTestRouter(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	cfg := RouterConfig{
		AccessCode: "open-sesame",
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
	}
	return NewRouter(cfg, log.New(testWriter{t}, "", 0), deps)
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func obtainToken(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/auth/token",
		strings.NewReader(`{"access_code": "open-sesame"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("token endpoint status = %d, body %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return body.Token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// toneWAV encodes one second of a 220 Hz tone.
func toneWAV(t *testing.T) []byte {
	t.Helper()
	const rate = 16000
	samples := make([]wav.Sample, rate)
	for i := range samples {
		v := 0.5 * math.Sin(2*math.Pi*220*float64(i)/rate)
		samples[i] = wav.Sample{Values: [2]int{int(v * 32767), 0}}
	}
	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(len(samples)), 1, rate, 16)
	if err := w.WriteSamples(samples); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, filename string, file []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write(file); err != nil {
		t.Fatal(err)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func TestTokenEndpoint(t *testing.T) {
	h := newTestRouter(t, testDeps(t))

	t.Run("valid code", func(t *testing.T) {
		if token := obtainToken(t, h); token == "" {
			t.Error("empty token")
		}
	})

	t.Run("invalid code", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/auth/token",
			strings.NewReader(`{"access_code": "wrong"}`))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestRouter(t, testDeps(t))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/history", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("valid token passes", func(t *testing.T) {
		token := obtainToken(t, h)
		req := authed(httptest.NewRequest("GET", "/api/history", nil), token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}

func TestTextFeedback(t *testing.T) {
	deps := testDeps(t)
	h := newTestRouter(t, deps)
	token := obtainToken(t, h)

	req := authed(httptest.NewRequest("POST", "/api/feedback/text",
		strings.NewReader(`{"text": "please review this", "mode": "text"}`)), token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res session.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Feedback != "good pacing overall" {
		t.Errorf("Feedback = %q", res.Feedback)
	}
	if res.ReviewScore != history.Score("good pacing overall") {
		t.Errorf("ReviewScore = %d", res.ReviewScore)
	}

	entries, err := deps.Store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("history entries = %d, want 1", len(entries))
	}
}

func TestAudioFeedbackSync(t *testing.T) {
	h := newTestRouter(t, testDeps(t))
	token := obtainToken(t, h)

	body, contentType := multipartBody(t, "clip.wav", toneWAV(t), map[string]string{"mode": "voice"})
	req := authed(httptest.NewRequest("POST", "/api/feedback/audio", body), token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res session.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Transcript != "hello world" {
		t.Errorf("Transcript = %q", res.Transcript)
	}
	if res.Metrics.AveragePitchHz < 100 {
		t.Errorf("AveragePitchHz = %.2f, want voiced tone detected", res.Metrics.AveragePitchHz)
	}
}

func TestAudioFeedbackWithoutSTT(t *testing.T) {
	deps := testDeps(t)
	deps.STT = nil
	h := newTestRouter(t, deps)
	token := obtainToken(t, h)

	body, contentType := multipartBody(t, "clip.wav", toneWAV(t), nil)
	req := authed(httptest.NewRequest("POST", "/api/feedback/audio", body), token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAudioFeedbackAsync(t *testing.T) {
	h := newTestRouter(t, testDeps(t))
	token := obtainToken(t, h)

	srv := httptest.NewServer(h)
	defer srv.Close()

	body, contentType := multipartBody(t, "clip.wav", toneWAV(t),
		map[string]string{"mode": "voice", "async": "1"})
	req, err := http.NewRequest("POST", srv.URL+"/api/feedback/audio", body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var accepted struct {
		SessionID string `json:"session_id"`
		WS        string `json:"ws"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatal(err)
	}
	if accepted.SessionID == "" {
		t.Fatal("empty session id")
	}

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		fmt.Sprintf("/api/sessions/%s/ws?token=%s", accepted.SessionID, token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close()

	// The job finishes quickly with the fake recognizer; read until the
	// result event or the server's close frame.
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var sawResult bool
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var ev jobEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("bad event %q: %v", data, err)
		}
		if ev.Type == "error" {
			t.Fatalf("job failed: %s", ev.Error)
		}
		if ev.Type == "result" {
			sawResult = true
			if ev.Result.Transcript != "hello world" {
				t.Errorf("Transcript = %q", ev.Result.Transcript)
			}
			break
		}
	}
	if !sawResult {
		t.Error("never received the result event")
	}
}

func TestSessionWSUnknownJob(t *testing.T) {
	h := newTestRouter(t, testDeps(t))
	token := obtainToken(t, h)

	req := httptest.NewRequest("GET", "/api/sessions/nope/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSessionWSRequiresToken(t *testing.T) {
	h := newTestRouter(t, testDeps(t))

	req := httptest.NewRequest("GET", "/api/sessions/some-id/ws", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestDocumentFeedbackUnsupportedFormat(t *testing.T) {
	h := newTestRouter(t, testDeps(t))
	token := obtainToken(t, h)

	body, contentType := multipartBody(t, "notes.txt", []byte("plain text"), nil)
	req := authed(httptest.NewRequest("POST", "/api/feedback/document", body), token)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415, body %s", rec.Code, rec.Body.String())
	}
}

func TestProgressEndpoint(t *testing.T) {
	deps := testDeps(t)
	h := newTestRouter(t, deps)
	token := obtainToken(t, h)

	// Two recorded exchanges give the progress deltas something to chew on.
	for _, text := range []string{"first try", "second try"} {
		req := authed(httptest.NewRequest("POST", "/api/feedback/text",
			strings.NewReader(fmt.Sprintf(`{"text": %q}`, text))), token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("feedback status = %d", rec.Code)
		}
	}

	req := authed(httptest.NewRequest("GET", "/api/progress", nil), token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var p history.Progress
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	if p.AverageReviewScore == 0 {
		t.Error("AverageReviewScore = 0, want recorded entries reflected")
	}
	if p.Latest == nil {
		t.Error("Latest = nil")
	}
}

func TestExerciseEndpoints(t *testing.T) {
	h := newTestRouter(t, testDeps(t))
	token := obtainToken(t, h)

	t.Run("interview question", func(t *testing.T) {
		req := authed(httptest.NewRequest("GET", "/api/exercises/interview-question", nil), token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Question == "" {
			t.Error("empty question")
		}
	})

	t.Run("passage", func(t *testing.T) {
		req := authed(httptest.NewRequest("GET", "/api/exercises/passage", nil), token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("summary", func(t *testing.T) {
		req := authed(httptest.NewRequest("POST", "/api/exercises/summary",
			strings.NewReader(`{"passage": "long text", "summary": "short text"}`)), token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Feedback string `json:"feedback"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.Feedback != "good pacing overall" {
			t.Errorf("feedback = %q", body.Feedback)
		}
	})
}

func TestHealthz(t *testing.T) {
	h := newTestRouter(t, testDeps(t))
	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
