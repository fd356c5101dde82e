package domain

import (
	"context"
	"encoding/json"
	"strconv"
)

// ExperienceLevel enumerates the seniority bands a profile can target.
type ExperienceLevel string

const (
	LevelEntry  ExperienceLevel = "entry-level"
	LevelMid    ExperienceLevel = "mid-level"
	LevelSenior ExperienceLevel = "senior"
)

// ExperienceLevels lists the accepted levels in display order.
var ExperienceLevels = []ExperienceLevel{LevelEntry, LevelMid, LevelSenior}

// Valid reports whether l is one of the known levels.
func (l ExperienceLevel) Valid() bool {
	for _, v := range ExperienceLevels {
		if l == v {
			return true
		}
	}
	return false
}

// KeywordRecord is one scraped dataset row.
type KeywordRecord struct {
	JobTitle       string   `json:"job_title"`
	TrendingSkills []string `json:"trending_skills"`
}

// DocumentMetadata is stored next to every indexed job title.
// TrendingKeywords holds a JSON encoded list of strings.
type DocumentMetadata struct {
	TrendingKeywords string `json:"trending_keywords"`
}

// IndexedDocument is the unit written to the vector store.
// Documents are never mutated after insertion; the whole index is rebuilt instead.
type IndexedDocument struct {
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// ScoredDocument is a search hit. Score is a distance: lower means more similar.
type ScoredDocument struct {
	Document IndexedDocument
	Score    float64
}

// VectorPoint is an embedded document ready for a backend upsert.
type VectorPoint struct {
	ID       string
	Vector   []float32
	Document IndexedDocument
}

// UserInput is a single profile generation request.
type UserInput struct {
	Profession           string          `json:"profession" validate:"required,max=200"`
	ExperienceLevel      ExperienceLevel `json:"experience_level" validate:"required,oneof=entry-level mid-level senior"`
	Keywords             []string        `json:"keywords" validate:"max=50,dive,max=100"`
	Background           string          `json:"background,omitempty" validate:"max=8000"`
	SimilarityScoreInput int             `json:"similarity_score_input" validate:"min=0,max=100"`
}

// Keyword sources reported on a RetrievalResult.
const (
	SourceVectorStore = "vector_store"
	SourceScrape      = "scrape"
)

// RetrievalResult is computed per request and never persisted.
// MinScore and MaxScore are nil when keywords came from the scrape fallback.
type RetrievalResult struct {
	Keywords []string `json:"keywords"`
	MinScore *float64 `json:"min_score"`
	MaxScore *float64 `json:"max_score"`
	Source   string   `json:"source"`
}

// SimilarityScores carries retrieval diagnostics into the generated profile.
type SimilarityScores struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// GeneratedProfile is the output of one generation call.
// RetrievedKeywords is the merged keyword list given to the model and
// KeywordsUsed is the list the model reported back.
type GeneratedProfile struct {
	ElevatorPitch     string           `json:"elevator_pitch"`
	AboutMe           string           `json:"about_me"`
	RetrievedKeywords []string         `json:"retrieved_keywords"`
	KeywordsUsed      []string         `json:"keywords_used,omitempty"`
	Reason            string           `json:"reason"`
	SimilarityScores  SimilarityScores `json:"similarity_scores"`
}

// EvaluationScores are the rubric axes, each in [1,100].
type EvaluationScores struct {
	KeywordsQuality int `json:"keywords_quality"`
	Relevance       int `json:"relevance"`
	Hallucination   int `json:"hallucination"`
	OverallQuality  int `json:"overall_quality"`
}

// EvaluationResult is the judge verdict for one (input, profile) pair.
type EvaluationResult struct {
	Evaluation  EvaluationScores `json:"evaluation"`
	Explanation string           `json:"explanation"`
}

// Feedback is a visitor rating posted from the web form.
type Feedback struct {
	Stars    FlexInt `json:"stars" validate:"min=1,max=5"`
	Comments string  `json:"comments" validate:"max=2000"`
}

// FlexInt decodes from a JSON number or a numeric JSON string.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*f = FlexInt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}

// Ports

// KeywordSource fetches trending keywords for a profession from a live source.
type KeywordSource interface {
	FetchKeywords(ctx context.Context, profession string, max int) ([]string, error)
}

// Embedder turns texts into vectors; output order matches input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// ChatRequest is a single stateless completion request.
type ChatRequest struct {
	System      string
	Prompt      string
	Model       string
	MaxTokens   int
	Temperature float64
	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}

// ChatModel completes one prompt. Implementations carry no conversation state.
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	// Ping performs a cheap call proving credentials and model are usable.
	Ping(ctx context.Context) error
}

// VectorStore indexes documents and answers similarity queries.
type VectorStore interface {
	Index(ctx context.Context, docs []IndexedDocument) error
	SearchWithScores(ctx context.Context, query string, k int) ([]ScoredDocument, error)
	Reset(ctx context.Context) error
	Ping(ctx context.Context) error
}

// VectorBackend stores pre-embedded points for one backend technology.
type VectorBackend interface {
	Upsert(ctx context.Context, collection string, points []VectorPoint) error
	Search(ctx context.Context, collection string, vector []float32, k int) ([]ScoredDocument, error)
	Drop(ctx context.Context, collection string) error
	Ping(ctx context.Context) error
}

// ArtifactStore publishes batch artifacts such as the combined CSV.
type ArtifactStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}
