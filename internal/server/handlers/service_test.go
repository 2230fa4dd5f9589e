package handlers

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/Yass5002/Lyrebird/internal/errors"
	"github.com/Yass5002/Lyrebird/pkg/jobregistry"
	"github.com/Yass5002/Lyrebird/pkg/outputs"
	"github.com/Yass5002/Lyrebird/pkg/synth"
)

// fakeWAV builds a minimal RIFF/WAVE payload lasting dataLen/byteRate
// seconds.
func fakeWAV(byteRate, dataLen uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	fmtChunk := make([]byte, 16)
	binary.LittleEndian.PutUint32(fmtChunk[8:12], byteRate)
	buf.Write(fmtChunk)
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(make([]byte, dataLen))
	return buf.Bytes()
}

// stubEngine implements synth.SpeechSynthesizer and the handler Engine
// interface.
type stubEngine struct {
	synthErr  error
	healthErr error
	device    string
}

func (e *stubEngine) Synthesize(_ context.Context, req synth.SynthesizeRequest) error {
	if e.synthErr != nil {
		return e.synthErr
	}
	return os.WriteFile(req.OutputPath, fakeWAV(176400, 176400), 0o600)
}

func (e *stubEngine) Device() string {
	if e.device == "" {
		return "cpu"
	}
	return e.device
}

func (e *stubEngine) HealthCheck(context.Context) error {
	return e.healthErr
}

type harness struct {
	svc        *Service
	router     http.Handler
	registry   *jobregistry.Registry
	dispatcher *jobregistry.Dispatcher
	engine     *stubEngine
	outputRoot string
	tempDir    string
	exampleDir string
}

func newHarness(t *testing.T, engine *stubEngine, mutate func(*ServiceConfig)) *harness {
	t.Helper()

	outputRoot := t.TempDir()
	tempDir := t.TempDir()
	exampleDir := t.TempDir()

	cfg := ServiceConfig{
		ModelName:  "XTTS v2",
		OutputRoot: outputRoot,
		TempDir:    tempDir,
		ExampleDir: exampleDir,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	log := zap.NewNop()
	registry := jobregistry.NewRegistry()
	retention := jobregistry.NewRetention(registry, time.Hour, 100, log)
	dispatcher := jobregistry.NewDispatcher(4, log)
	cloner := synth.NewCloner(engine, synth.NewRTFTracker(), outputs.NewOrganizer(outputRoot), tempDir, log)

	svc := NewService(cfg, cloner, engine, registry, retention, dispatcher, log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go dispatcher.Run(ctx)

	r := chi.NewRouter()
	r.Post("/api/clone", svc.Clone)
	r.Post("/api/clone/async", svc.CloneAsync)
	r.Get("/api/jobs", svc.ListJobs)
	r.Get("/api/jobs/{jobID}", svc.JobStatus)
	r.Delete("/api/jobs/{jobID}", svc.DeleteJob)
	r.Get("/api/audio/{filename}", svc.Audio)
	r.Get("/api/languages", svc.Languages)
	r.Get("/api/examples", svc.Examples)
	r.Get("/api/resources", svc.Resources)
	r.Get("/api/health", svc.APIHealth)
	r.Post("/api/admin/cleanup", svc.AdminCleanup)
	r.Get("/", svc.Root)

	return &harness{
		svc:        svc,
		router:     r,
		registry:   registry,
		dispatcher: dispatcher,
		engine:     engine,
		outputRoot: outputRoot,
		tempDir:    tempDir,
		exampleDir: exampleDir,
	}
}

// cloneForm builds a multipart clone request body.
func cloneForm(t *testing.T, text, language, filename string, audio []byte) (io.Reader, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if text != "" {
		require.NoError(t, mw.WriteField("text", text))
	}
	if language != "" {
		require.NoError(t, mw.WriteField("language", language))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("audio", filename)
		require.NoError(t, err)
		_, err = fw.Write(audio)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func doRequest(h *harness, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.HTTPErrorResponse {
	t.Helper()
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCloneSync(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	body, contentType := cloneForm(t, "hello there world", "English", "voice.wav", fakeWAV(176400, 176400))
	req := httptest.NewRequest(http.MethodPost, "/api/clone", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CloneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.AudioURL, "/api/audio/")
	assert.Equal(t, "English", resp.Language)
	assert.Equal(t, len("hello there world"), resp.TextLength)

	// The uploaded reference file is removed after the request.
	entries, err := os.ReadDir(h.tempDir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), "upload_")
	}
}

func TestCloneSyncMultibyteText(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	// 1200 Cyrillic characters are 2400 bytes; the character limit is
	// 2000 and the reported length counts characters.
	text := strings.Repeat("ж", 1200)
	body, contentType := cloneForm(t, text, "Russian", "voice.wav", fakeWAV(176400, 176400))
	req := httptest.NewRequest(http.MethodPost, "/api/clone", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CloneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1200, resp.TextLength)
}

func TestCloneSyncEngineFailure(t *testing.T) {
	h := newHarness(t, &stubEngine{synthErr: errors.New("model exploded")}, nil)

	body, contentType := cloneForm(t, "hello there world", "English", "voice.wav", fakeWAV(176400, 176400))
	req := httptest.NewRequest(http.MethodPost, "/api/clone", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	errBody := decodeError(t, rec)
	assert.Equal(t, apperrors.CodeSynthesisFailed, errBody.Error.Code)
	assert.Contains(t, errBody.Error.Message, "model exploded")
}

func TestCloneValidation(t *testing.T) {
	h := newHarness(t, &stubEngine{}, func(cfg *ServiceConfig) {
		cfg.MaxUploadBytes = 512
	})

	tests := []struct {
		name     string
		text     string
		language string
		filename string
		audio    []byte
	}{
		{"missing text", "", "English", "voice.wav", fakeWAV(176400, 64)},
		{"short text", "hi", "English", "voice.wav", fakeWAV(176400, 64)},
		{"bad language", "hello there world", "Klingon", "voice.wav", fakeWAV(176400, 64)},
		{"missing audio", "hello there world", "English", "", nil},
		{"bad extension", "hello there world", "English", "voice.txt", []byte("x")},
		{"empty audio", "hello there world", "English", "voice.wav", nil},
		{"oversized audio", "hello there world", "English", "voice.wav", make([]byte, 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := cloneForm(t, tt.text, tt.language, tt.filename, tt.audio)
			req := httptest.NewRequest(http.MethodPost, "/api/clone", body)
			req.Header.Set("Content-Type", contentType)

			rec := doRequest(h, req)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, apperrors.CodeValidation, decodeError(t, rec).Error.Code)
		})
	}
}

func TestCloneDefaultsToEnglish(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	body, contentType := cloneForm(t, "hello there world", "", "voice.wav", fakeWAV(176400, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/clone", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CloneResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "English", resp.Language)
}

func TestCloneNotMultipart(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/clone", bytes.NewBufferString(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCloneQueueFull(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	// Saturate the queue with tasks the dispatcher will not finish soon.
	block := make(chan struct{})
	defer close(block)
	for i := 0; i < 8; i++ {
		if err := h.dispatcher.Enqueue(func(context.Context) { <-block }); err != nil {
			break
		}
	}

	body, contentType := cloneForm(t, "hello there world", "English", "voice.wav", fakeWAV(176400, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/clone", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.CodeQueueFull, decodeError(t, rec).Error.Code)
}

func waitForTerminal(t *testing.T, h *harness, jobID string) jobregistry.JobRecord {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("job never reached a terminal state")
		case <-time.After(5 * time.Millisecond):
		}
		rec, ok := h.registry.Get(jobID)
		require.True(t, ok)
		if rec.Status.Terminal() {
			return rec
		}
	}
}

func TestCloneAsyncLifecycle(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	body, contentType := cloneForm(t, "hello there world", "Spanish", "voice.wav", fakeWAV(176400, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/clone/async", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp CloneAsyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, "/api/jobs/"+resp.JobID, resp.StatusURL)

	final := waitForTerminal(t, h, resp.JobID)
	assert.Equal(t, jobregistry.JobStateCompleted, final.Status)
	assert.Equal(t, 1.0, final.Progress)
	assert.Contains(t, final.AudioURL, "/api/audio/")
	assert.FileExists(t, final.ArtifactPath)

	// The job is visible over the status endpoint.
	statusRec := doRequest(h, httptest.NewRequest(http.MethodGet, resp.StatusURL, nil))
	require.Equal(t, http.StatusOK, statusRec.Code)

	var record jobregistry.JobRecord
	require.NoError(t, json.Unmarshal(statusRec.Body.Bytes(), &record))
	assert.Equal(t, resp.JobID, record.JobID)
	assert.Equal(t, "Spanish", record.Language)
}

func TestCloneAsyncFailureRecorded(t *testing.T) {
	h := newHarness(t, &stubEngine{synthErr: errors.New("no cuda device")}, nil)

	body, contentType := cloneForm(t, "hello there world", "English", "voice.wav", fakeWAV(176400, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/clone/async", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CloneAsyncResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	final := waitForTerminal(t, h, resp.JobID)
	assert.Equal(t, jobregistry.JobStateFailed, final.Status)
	assert.Contains(t, final.Error, "no cuda device")
}

func TestCloneAsyncValidationDoesNotCreateJob(t *testing.T) {
	h := newHarness(t, &stubEngine{}, nil)

	body, contentType := cloneForm(t, "hi", "English", "voice.wav", fakeWAV(176400, 64))
	req := httptest.NewRequest(http.MethodPost, "/api/clone/async", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(h, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.registry.Len())
}
