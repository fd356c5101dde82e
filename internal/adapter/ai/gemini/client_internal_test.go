package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
)

func TestExtractText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		resp    *genai.GenerateContentResponse
		want    string
		wantErr bool
	}{
		{name: "nil", resp: nil, wantErr: true},
		{name: "no candidates", resp: &genai.GenerateContentResponse{}, wantErr: true},
		{name: "no parts", resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{}}}}, wantErr: true},
		{
			name: "joins text parts",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"a":`), genai.Text(`1}`)}},
			}}},
			want: `{"a":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := extractText(tt.resp)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, Retryable(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, Retryable(&googleapi.Error{Code: http.StatusServiceUnavailable}))
	assert.False(t, Retryable(&googleapi.Error{Code: http.StatusBadRequest}))
	assert.True(t, Retryable(errors.New("connection reset by peer")))
	assert.False(t, Retryable(context.Canceled))
	assert.Equal(t, 429, statusOf(&googleapi.Error{Code: 429}))
}

func TestNew_RequiresKey(t *testing.T) {
	t.Parallel()
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
