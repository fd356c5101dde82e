package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/scraper"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
)

const page = `<html><body>
<div class="B0jnne">Patient Care</div>
<div class="B0jnne"> EMR </div>
<div class="other">Ignored</div>
<div class="B0jnne">Patient Care</div>
<div class="B0jnne">Telehealth</div>
<div class="B0jnne"></div>
</body></html>`

func newClient(url string) *scraper.Client {
	return scraper.New(scraper.Options{
		BaseURL:    url,
		UserAgent:  "test-agent",
		Retry:      retry.Fixed(3, time.Millisecond, nil),
		HTTPClient: &http.Client{Timeout: time.Second},
	})
}

func TestClient_FetchKeywords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		max       int
		statuses  []int
		want      []string
		wantCalls int32
		wantErr   error
	}{
		{name: "dedupes in page order", max: 10, statuses: []int{200}, want: []string{"Patient Care", "EMR", "Telehealth"}, wantCalls: 1},
		{name: "caps at max", max: 2, statuses: []int{200}, want: []string{"Patient Care", "EMR"}, wantCalls: 1},
		{name: "retries rate limit", max: 10, statuses: []int{429, 429, 200}, want: []string{"Patient Care", "EMR", "Telehealth"}, wantCalls: 3},
		{name: "retries server errors", max: 10, statuses: []int{503, 200}, want: []string{"Patient Care", "EMR", "Telehealth"}, wantCalls: 2},
		{name: "rate limit exhausts attempts", max: 10, statuses: []int{429, 429, 429}, wantCalls: 3, wantErr: domain.ErrUpstreamRateLimit},
		{name: "client error is permanent", max: 10, statuses: []int{404}, wantCalls: 1, wantErr: domain.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
				assert.Equal(t, "trending skills for Registered Nurse", r.URL.Query().Get("q"))
				status := tt.statuses[len(tt.statuses)-1]
				if int(n) <= len(tt.statuses) {
					status = tt.statuses[n-1]
				}
				w.WriteHeader(status)
				if status == http.StatusOK {
					_, _ = w.Write([]byte(page))
				}
			}))
			defer srv.Close()

			got, err := newClient(srv.URL).FetchKeywords(context.Background(), "Registered Nurse", tt.max)
			assert.Equal(t, tt.wantCalls, calls.Load())
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrNetwork)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_EmptyProfession(t *testing.T) {
	t.Parallel()
	_, err := newClient("http://127.0.0.1:1").FetchKeywords(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestClient_SearchURL(t *testing.T) {
	t.Parallel()
	c := newClient("https://www.google.com/search")
	assert.Equal(t, "https://www.google.com/search?q=trending+skills+for+Data+Scientist", c.SearchURL("Data Scientist"))
}

func TestRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, scraper.Retryable(errors.New("connection reset")))
	assert.False(t, scraper.Retryable(context.Canceled))
}
