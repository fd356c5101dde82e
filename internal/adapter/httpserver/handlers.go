package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/config"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/usecase"
)

const maxBodyBytes = 1 << 20

// Probe reports the health of one dependency.
type Probe func(ctx context.Context) error

// Server aggregates handler dependencies.
type Server struct {
	Cfg       config.Config
	Generator usecase.ProfileGenerator
	Retriever usecase.KeywordRetriever

	VectorCheck Probe
	ModelCheck  Probe
	ConfigCheck Probe
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New() })
	return validate
}

// NewServer constructs a Server.
func NewServer(cfg config.Config, gen usecase.ProfileGenerator, ret usecase.KeywordRetriever, vectorCheck, modelCheck, configCheck Probe) *Server {
	return &Server{Cfg: cfg, Generator: gen, Retriever: ret, VectorCheck: vectorCheck, ModelCheck: modelCheck, ConfigCheck: configCheck}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}

func validationDetails(err error) map[string]string {
	details := map[string]string{}
	if ve, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range ve {
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return details
}

type generateResponse struct {
	Profile domain.GeneratedProfile `json:"profile"`
	Stats   generateStats           `json:"stats"`
}

type generateStats struct {
	TimeTaken float64 `json:"time_taken"`
}

// GenerateProfileHandler handles POST /api/generate-profile.
func (s *Server) GenerateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in domain.UserInput
		if err := decodeBody(w, r, &in); err != nil {
			writeError(w, r, err, nil)
			return
		}
		in.Profession = strings.TrimSpace(in.Profession)
		if in.ExperienceLevel == "" {
			in.ExperienceLevel = domain.LevelMid
		}
		if err := getValidator().Struct(in); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		start := time.Now()
		profile, err := s.Generator.Generate(r.Context(), in)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		took := math.Round(time.Since(start).Seconds()*100) / 100
		writeJSON(w, http.StatusOK, generateResponse{Profile: profile, Stats: generateStats{TimeTaken: took}})
	}
}

type retrieveRequest struct {
	Profession string `json:"profession" validate:"required,max=200"`
	// Strictness uses the same 0..100 scale as profile generation; 0 keeps every neighbour.
	Strictness int `json:"similarity_score_input" validate:"min=0,max=100"`
}

// RetrieveSkillsHandler handles POST /api/retrieve-skills.
func (s *Server) RetrieveSkillsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req retrieveRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, r, err, nil)
			return
		}
		req.Profession = strings.TrimSpace(req.Profession)
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		res, err := s.Retriever.Retrieve(r.Context(), req.Profession, usecase.RelevanceThreshold(req.Strictness))
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"keywords": res.Keywords})
	}
}

// SubmitFeedbackHandler handles POST /submit-feedback. Feedback is only logged.
func (s *Server) SubmitFeedbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fb domain.Feedback
		if err := decodeBody(w, r, &fb); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if err := getValidator().Struct(fb); err != nil {
			writeError(w, r, fmt.Errorf("%w: stars must be between 1 and 5", domain.ErrInvalidArgument), validationDetails(err))
			return
		}
		LoggerFrom(r).Info("feedback received",
			"stars", int(fb.Stars),
			"comments", strings.TrimSpace(fb.Comments))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Thank you for your feedback!"})
	}
}

type componentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func runProbe(ctx context.Context, p Probe, okMsg string) componentHealth {
	if p == nil {
		return componentHealth{Status: "unhealthy", Message: "not configured"}
	}
	if err := p(ctx); err != nil {
		return componentHealth{Status: "unhealthy", Message: err.Error()}
	}
	return componentHealth{Status: "healthy", Message: okMsg}
}

// HealthCheckHandler handles GET /api/health-check. It responds 503 when any
// component is unhealthy; the body always lists every component.
func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		health := map[string]componentHealth{
			"vector_store":  runProbe(ctx, s.VectorCheck, "Vector store is reachable."),
			"model":         runProbe(ctx, s.ModelCheck, "Language model is reachable."),
			"configuration": runProbe(ctx, s.ConfigCheck, "Configuration is valid."),
		}
		status := http.StatusOK
		for _, c := range health {
			if c.Status != "healthy" {
				status = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, status, map[string]any{"health": health})
	}
}

// ReadyzHandler reports readiness from the vector store and configuration
// probes. The model is not pinged here to keep readiness checks free.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		probes := []struct {
			name string
			p    Probe
		}{{"vector_store", s.VectorCheck}, {"configuration", s.ConfigCheck}}
		checks := make([]check, 0, len(probes))
		ok := true
		for _, pr := range probes {
			if pr.p == nil {
				continue
			}
			if err := pr.p(ctx); err != nil {
				ok = false
				checks = append(checks, check{Name: pr.name, OK: false, Details: err.Error()})
				continue
			}
			checks = append(checks, check{Name: pr.name, OK: true})
		}
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{"checks": checks})
	}
}
