package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

type fakeGenerator struct {
	got     domain.UserInput
	profile domain.GeneratedProfile
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, in domain.UserInput) (domain.GeneratedProfile, error) {
	f.got = in
	return f.profile, f.err
}

type fakeRetriever struct {
	gotProfession string
	gotThreshold  float64
	res           domain.RetrievalResult
	err           error
}

func (f *fakeRetriever) Retrieve(_ context.Context, profession string, threshold float64) (domain.RetrievalResult, error) {
	f.gotProfession, f.gotThreshold = profession, threshold
	return f.res, f.err
}

func ok(context.Context) error { return nil }

func do(t *testing.T, h http.HandlerFunc, method, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h(rec, req)
	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestGenerateProfileHandler(t *testing.T) {
	t.Parallel()
	lo, hi := 0.2, 3.5
	gen := &fakeGenerator{profile: domain.GeneratedProfile{
		ElevatorPitch:     "Pitch",
		AboutMe:           "About",
		RetrievedKeywords: []string{"ML"},
		SimilarityScores:  domain.SimilarityScores{Min: &lo, Max: &hi},
	}}
	s := httpserver.NewServer(config.Config{}, gen, &fakeRetriever{}, ok, ok, ok)

	rec, body := do(t, s.GenerateProfileHandler(), http.MethodPost,
		`{"profession":" Data Scientist ","keywords":["Python"],"background":"","similarity_score_input":60}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Data Scientist", gen.got.Profession)
	assert.Equal(t, domain.LevelMid, gen.got.ExperienceLevel)

	profile := body["profile"].(map[string]any)
	assert.Equal(t, "Pitch", profile["elevator_pitch"])
	assert.Equal(t, "About", profile["about_me"])
	assert.Equal(t, []any{"ML"}, profile["retrieved_keywords"])
	scores := profile["similarity_scores"].(map[string]any)
	assert.InDelta(t, 0.2, scores["min"], 1e-9)
	stats := body["stats"].(map[string]any)
	assert.Contains(t, stats, "time_taken")
}

func TestGenerateProfileHandler_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		body       string
		genErr     error
		wantStatus int
		wantCode   string
	}{
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{name: "missing profession", body: `{"experience_level":"senior"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{name: "unknown level", body: `{"profession":"Nurse","experience_level":"guru"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{name: "score out of range", body: `{"profession":"Nurse","similarity_score_input":101}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_ARGUMENT"},
		{
			name:       "unparseable model reply",
			body:       `{"profession":"Nurse"}`,
			genErr:     &domain.GenerationError{Raw: "prose", Err: &domain.ParseError{Raw: "prose", Err: errors.New("not json")}},
			wantStatus: http.StatusBadGateway,
			wantCode:   "MODEL_RESPONSE_INVALID",
		},
		{
			name:       "upstream rate limit",
			body:       `{"profession":"Nurse"}`,
			genErr:     &domain.GenerationError{Err: &domain.NetworkError{Op: "openai.Complete", Err: domain.ErrUpstreamRateLimit}},
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPSTREAM_RATE_LIMIT",
		},
		{name: "unexpected", body: `{"profession":"Nurse"}`, genErr: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := httpserver.NewServer(config.Config{}, &fakeGenerator{err: tt.genErr}, &fakeRetriever{}, ok, ok, ok)
			rec, body := do(t, s.GenerateProfileHandler(), http.MethodPost, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, body["code"])
			assert.IsType(t, "", body["error"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestRetrieveSkillsHandler(t *testing.T) {
	t.Parallel()
	ret := &fakeRetriever{res: domain.RetrievalResult{Keywords: []string{"EMR", "Triage"}}}
	s := httpserver.NewServer(config.Config{}, &fakeGenerator{}, ret, ok, ok, ok)

	rec, body := do(t, s.RetrieveSkillsHandler(), http.MethodPost, `{"profession":"Nurse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"EMR", "Triage"}, body["keywords"])
	assert.Equal(t, "Nurse", ret.gotProfession)
	assert.InDelta(t, 0, ret.gotThreshold, 1e-12)

	_, _ = do(t, s.RetrieveSkillsHandler(), http.MethodPost, `{"profession":"Nurse","similarity_score_input":80}`)
	assert.InDelta(t, 0.8, ret.gotThreshold, 1e-12)

	rec, body = do(t, s.RetrieveSkillsHandler(), http.MethodPost, `{"profession":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])

	failing := httpserver.NewServer(config.Config{}, &fakeGenerator{}, &fakeRetriever{err: &domain.DataSourceError{Path: "idx", Err: errors.New("closed")}}, ok, ok, ok)
	rec, body = do(t, failing.RetrieveSkillsHandler(), http.MethodPost, `{"profession":"Nurse"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DATA_SOURCE_UNAVAILABLE", body["code"])
}

func TestSubmitFeedbackHandler(t *testing.T) {
	t.Parallel()
	s := httpserver.NewServer(config.Config{}, &fakeGenerator{}, &fakeRetriever{}, ok, ok, ok)
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{name: "numeric stars", body: `{"stars":5,"comments":"great"}`, wantStatus: http.StatusOK},
		{name: "string stars from form", body: `{"stars":"3","comments":""}`, wantStatus: http.StatusOK},
		{name: "zero stars", body: `{"stars":0}`, wantStatus: http.StatusBadRequest},
		{name: "six stars", body: `{"stars":"6"}`, wantStatus: http.StatusBadRequest},
		{name: "non numeric", body: `{"stars":"five"}`, wantStatus: http.StatusBadRequest},
		{name: "missing stars", body: `{"comments":"hi"}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, body := do(t, s.SubmitFeedbackHandler(), http.MethodPost, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Thank you for your feedback!", body["message"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestHealthCheckHandler(t *testing.T) {
	t.Parallel()
	s := httpserver.NewServer(config.Config{}, &fakeGenerator{}, &fakeRetriever{}, ok, ok, ok)
	rec, body := do(t, s.HealthCheckHandler(), http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := body["health"].(map[string]any)
	for _, k := range []string{"vector_store", "model", "configuration"} {
		c := health[k].(map[string]any)
		assert.Equal(t, "healthy", c["status"], k)
		assert.NotEmpty(t, c["message"], k)
	}

	down := httpserver.NewServer(config.Config{}, &fakeGenerator{}, &fakeRetriever{},
		ok, func(context.Context) error { return errors.New("invalid api key") }, nil)
	rec, body = do(t, down.HealthCheckHandler(), http.MethodGet, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	health = body["health"].(map[string]any)
	assert.Equal(t, "healthy", health["vector_store"].(map[string]any)["status"])
	model := health["model"].(map[string]any)
	assert.Equal(t, "unhealthy", model["status"])
	assert.Equal(t, "invalid api key", model["message"])
	assert.Equal(t, "unhealthy", health["configuration"].(map[string]any)["status"])
}

func TestReadyzHandler(t *testing.T) {
	t.Parallel()
	modelCalled := false
	model := func(context.Context) error { modelCalled = true; return nil }

	s := httpserver.NewServer(config.Config{}, &fakeGenerator{}, &fakeRetriever{}, ok, model, ok)
	rec, _ := do(t, s.ReadyzHandler(), http.MethodGet, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, modelCalled)

	s.VectorCheck = func(context.Context) error { return errors.New("index locked") }
	rec, body := do(t, s.ReadyzHandler(), http.MethodGet, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks := body["checks"].([]any)
	first := checks[0].(map[string]any)
	assert.Equal(t, "vector_store", first["name"])
	assert.Equal(t, false, first["ok"])
	assert.Equal(t, "index locked", first["details"])
}
