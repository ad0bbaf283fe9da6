package dblp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dblpResponse = `@inproceedings{DBLP:conf/inlg/DusekK20,
  author       = {Ondrej Dusek and
                  Zdenek Kasner},
  title        = {Evaluating Semantic Accuracy of Data-to-Text Generation with Natural
                  Language Inference},
  booktitle    = {Proceedings of the 13th International Conference on Natural Language
                  Generation, {INLG} 2020, Dublin, Ireland, December 15-18, 2020},
  pages        = {131--137},
  year         = {2020},
  timestamp    = {Mon, 08 Nov 2021 13:22:30 +0100},
}

@article{DBLP:journals/corr/abs-2011-10819,
  author       = {Ondrej Dusek and
                  Zdenek Kasner},
  title        = {Evaluating Semantic Accuracy of Data-to-Text Generation with Natural
                  Language Inference},
  journal      = {CoRR},
  volume       = {abs/2011.10819},
  year         = {2020},
}
`

type recordedSleeps struct {
	delays []time.Duration
}

func (r *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *recordedSleeps) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sleeps := &recordedSleeps{}
	base := []ClientOption{
		WithBaseURL(server.URL),
		WithRateLimit(0),
		WithSleeper(sleeps.sleep),
	}
	return NewClient(append(base, opts...)...), sleeps
}

func TestSearch_ParsesEntries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bib", r.URL.Query().Get("format"))
		assert.Equal(t, "Evaluating semantic accuracy Ondrej Dusek", r.URL.Query().Get("q"))
		assert.Equal(t, "5", r.URL.Query().Get("h"))
		assert.Equal(t, "reffix-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, dblpResponse)
	}, WithUserAgent("reffix-test"), WithMaxHits(5))

	entries, err := client.Search(context.Background(), "Evaluating  semantic accuracy\n Ondrej Dusek")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "DBLP:conf/inlg/DusekK20", entries[0].Key)
	assert.Equal(t, "inproceedings", entries[0].Type)
	assert.Equal(t, "131--137", entries[0].Get("pages"))
	assert.Equal(t, "DBLP:journals/corr/abs-2011-10819", entries[1].Key)
}

func TestSearch_NoHits(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	entries, err := client.Search(context.Background(), "nothing matches this")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSearch_BlankQuerySkipsRequest(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	entries, err := client.Search(context.Background(), "  \n ")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, calls.Load())
}

func TestSearch_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "3")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, dblpResponse)
	})

	entries, err := client.Search(context.Background(), "query")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{3 * time.Second}, sleeps.delays)
}

func TestSearch_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	client, sleeps := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithMaxRetries(2))

	_, err := client.Search(context.Background(), "query")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, IsTransient(err))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
}

func TestSearch_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Search(context.Background(), "query")
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestSearch_InvalidResponse(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "@article{broken, title = {never closed")
	})

	_, err := client.Search(context.Background(), "query")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestSearch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	sleeps := &recordedSleeps{}
	client := NewClient(WithBaseURL(url), WithRateLimit(0), WithSleeper(sleeps.sleep), WithMaxRetries(1))

	_, err := client.Search(context.Background(), "query")
	assert.ErrorIs(t, err, ErrNetworkError)
	assert.Len(t, sleeps.delays, 1)
}

func TestSearch_ContextCancelled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, dblpResponse)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Search(ctx, "query")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		rateLimited bool
		transient   bool
	}{
		{"nil", nil, false, false},
		{"rate limited sentinel", fmt.Errorf("%w: status 429", ErrRateLimited), true, true},
		{"api 429", &APIError{StatusCode: 429}, true, true},
		{"api 502", &APIError{StatusCode: 502}, false, true},
		{"api 408", &APIError{StatusCode: 408}, false, true},
		{"api 404", &APIError{StatusCode: 404}, false, false},
		{"network", fmt.Errorf("%w: refused", ErrNetworkError), false, true},
		{"invalid response", ErrInvalidResponse, false, false},
		{"other", errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.rateLimited, IsRateLimited(tt.err))
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 500, Message: "HTTP 500", Query: "some title"}
	assert.Equal(t, `DBLP API error (status 500): HTTP 500 (query: "some title")`, err.Error())
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
	assert.Equal(t, defaultRetryMaxDelay, backoffDelay(10))
}

func TestParseRetryAfter(t *testing.T) {
	d, ok := parseRetryAfter("5")
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	_, ok = parseRetryAfter("")
	assert.False(t, ok)

	_, ok = parseRetryAfter("-1")
	assert.False(t, ok)

	_, ok = parseRetryAfter("soon")
	assert.False(t, ok)
}
