package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms/fake"

	"github.com/recommender/internal/aiconnectors"
	"github.com/recommender/internal/llm"
	"github.com/recommender/internal/prompts"
	"github.com/recommender/internal/recommendation"
	"github.com/recommender/pkg/models"
)

type memoryStore struct {
	mu   sync.Mutex
	rows []models.Recommendation
	err  error
}

func (m *memoryStore) Persist(_ context.Context, rec models.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, rec)
	return nil
}

func newTestServer(t *testing.T, completion string, store *memoryStore, webRoot string) *Server {
	t.Helper()

	builder, err := prompts.NewPromptBuilder("")
	require.NoError(t, err)

	connector := aiconnectors.NewConnectorWithModel(fake.NewFakeLLM([]string{completion}), aiconnectors.ConnectorOptions{
		Provider: aiconnectors.ProviderHuggingFace,
		APIKey:   "hf_test",
	})
	generator := llm.NewResilientClient(connector, llm.Options{})

	pipeline := recommendation.NewPipeline(builder, generator, store)
	return NewServer(Options{Port: 0, WebRoot: webRoot}, pipeline)
}

func post(t *testing.T, s *Server, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/get_recommendations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload), rec.Body.String())
	return rec, payload
}

func TestGetRecommendations_Success(t *testing.T) {
	store := &memoryStore{}
	s := newTestServer(t, "Título: X\nDescripción: Y", store, t.TempDir())

	rec, payload := post(t, s, `{"tipo": "libro", "edad": "adulto", "genero": "comedia", "cantidad": 3}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"result": "Título: X\nDescripción: Y"}, payload)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	require.Len(t, store.rows, 1)
	row := store.rows[0]
	assert.Equal(t, "libro", row.ContentType)
	assert.Equal(t, "español", row.Language)
	assert.Equal(t, 3, row.Count)
	assert.Equal(t, "Título: X\nDescripción: Y", row.Text)
}

func TestGetRecommendations_TrimsCompletion(t *testing.T) {
	store := &memoryStore{}
	s := newTestServer(t, "\n  Título: X\nDescripción: Y  \n", store, t.TempDir())

	rec, payload := post(t, s, `{"tipo": "libro", "edad": "adulto", "genero": "comedia", "cantidad": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Título: X\nDescripción: Y", payload["result"])
	require.Len(t, store.rows, 1)
	assert.Equal(t, "Título: X\nDescripción: Y", store.rows[0].Text)
}

func TestGetRecommendations_Defaults(t *testing.T) {
	store := &memoryStore{}
	s := newTestServer(t, "Título: A\nDescripción: B", store, t.TempDir())

	rec, _ := post(t, s, `{"tipo": "podcast", "edad": "juvenil", "genero": "terror"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, store.rows, 1)
	assert.Equal(t, models.DefaultLanguage, store.rows[0].Language)
	assert.Equal(t, models.DefaultCount, store.rows[0].Count)
}

func TestGetRecommendations_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{
			name:   "unknown age bracket",
			body:   `{"tipo": "libro", "edad": "anciano", "genero": "comedia", "cantidad": 3}`,
			detail: "La edad 'anciano' no es válida. Los valores permitidos son: infantil, juvenil, adulto.",
		},
		{
			name:   "count above ceiling",
			body:   `{"tipo": "libro", "edad": "adulto", "genero": "comedia", "cantidad": 7}`,
			detail: "La cantidad máxima permitida es 5.",
		},
		{
			name:   "missing genre",
			body:   `{"tipo": "libro", "edad": "adulto"}`,
			detail: "El campo 'genero' es obligatorio.",
		},
		{
			name:   "malformed json",
			body:   `{"tipo": "libro",`,
			detail: msgInvalidBody,
		},
		{
			name:   "count is not a number",
			body:   `{"tipo": "libro", "edad": "adulto", "genero": "comedia", "cantidad": "tres"}`,
			detail: msgInvalidBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{}
			s := newTestServer(t, "unused", store, t.TempDir())

			rec, payload := post(t, s, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, tt.detail, payload["detail"])
			assert.Equal(t, "invalid-input", payload["classification"])
			assert.Empty(t, store.rows)
		})
	}
}

func TestGetRecommendations_EmptyGeneration(t *testing.T) {
	store := &memoryStore{}
	s := newTestServer(t, "   ", store, t.TempDir())

	rec, payload := post(t, s, `{"tipo": "libro", "edad": "adulto", "genero": "comedia"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "El modelo no ha generado recomendaciones.", payload["detail"])
	assert.Equal(t, "server-error", payload["classification"])
	assert.Empty(t, store.rows)
}

func TestGetRecommendations_PersistenceFailure(t *testing.T) {
	store := &memoryStore{err: recommendation.Persistence(errors.New("db down"))}
	s := newTestServer(t, "Título: X\nDescripción: Y", store, t.TempDir())

	rec, payload := post(t, s, `{"tipo": "libro", "edad": "adulto", "genero": "comedia"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error al guardar en la base de datos.", payload["detail"])
	assert.NotContains(t, rec.Body.String(), "Título")
}

type failingRecommender struct{ err error }

func (f failingRecommender) Recommend(context.Context, models.RecommendationRequest) (string, error) {
	return "", f.err
}

func TestGetRecommendations_UnclassifiedError(t *testing.T) {
	s := NewServer(Options{}, failingRecommender{err: errors.New("boom")})

	rec, payload := post(t, s, `{"tipo": "libro", "edad": "adulto", "genero": "comedia"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Error al procesar la solicitud: boom", payload["detail"])
	assert.Equal(t, "server-error", payload["classification"])
}

func TestServeIndex(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>Recomendaciones</h1>"), 0o600))
	s := newTestServer(t, "unused", &memoryStore{}, root)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<h1>Recomendaciones</h1>", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestServeIndex_Missing(t *testing.T) {
	s := newTestServer(t, "unused", &memoryStore{}, t.TempDir())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail": "El archivo index.html no se encuentra en el directorio."}`, rec.Body.String())
}

func TestWebRedirect(t *testing.T) {
	s := newTestServer(t, "unused", &memoryStore{}, t.TempDir())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/web", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "Título: X\nDescripción: Y", &memoryStore{}, t.TempDir())
	post(t, s, `{"tipo": "libro", "edad": "adulto", "genero": "comedia"}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `recommendation_requests_total{outcome="completed"}`)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, "unused", &memoryStore{}, t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/get_recommendations", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
