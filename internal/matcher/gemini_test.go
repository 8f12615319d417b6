package matcher

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mediscan/internal/catalog"
)

var testEntries = []catalog.Summary{
	{ID: "cv-001", Name: "阿司匹林肠溶片", BrandName: "拜阿司匹灵", CategoryLabel: "心血管药", Description: "抗血小板"},
	{ID: "pj-001", Name: "布洛芬缓释胶囊", BrandName: "芬必得", CategoryLabel: "消炎止痛/骨关节", Description: "缓解头痛"},
}

func geminiBody(text string) string {
	encoded, _ := stdjson.Marshal(text)
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%s}]},"finishReason":"STOP"}]}`, encoded)
}

func newTestMatcher(url string) *GeminiMatcher {
	return NewGeminiMatcher(GeminiConfig{
		BaseURL: url + "/",
		APIKey:  "test-key",
		Model:   "gemini-test",
		Timeout: time.Second,
	}, zap.NewNop())
}

func TestGeminiMatcher_Match(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateRequest
		require.NoError(t, stdjson.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 1)
		gotPrompt = req.Contents[0].Parts[0].Text
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		assert.Contains(t, req.GenerationConfig.ResponseSchema, "properties")

		_, _ = fmt.Fprint(w, geminiBody(`{"matchedIds":["pj-001","ghost","pj-001"]}`))
	}))
	defer server.Close()

	ids, err := newTestMatcher(server.URL).Match(context.Background(), "头痛", testEntries)
	require.NoError(t, err)
	assert.Equal(t, []string{"pj-001"}, ids)

	assert.Contains(t, gotPrompt, `"头痛"`)
	assert.Contains(t, gotPrompt, "ID: cv-001, name: 阿司匹林肠溶片 (brand: 拜阿司匹灵), category: 心血管药, description: 抗血小板")
	assert.Contains(t, gotPrompt, "matchedIds")
}

func TestGeminiMatcher_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantErr: ErrMalformedResponse},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantErr: ErrEmptyResponse},
		{name: "empty text", status: http.StatusOK, body: geminiBody("  "), wantErr: ErrEmptyResponse},
		{name: "model text not json", status: http.StatusOK, body: geminiBody("sorry, I cannot help"), wantErr: ErrMalformedResponse},
		{name: "blocked prompt", status: http.StatusOK, body: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			ids, err := newTestMatcher(server.URL).Match(context.Background(), "query", testEntries)
			require.Error(t, err)
			assert.Nil(t, ids)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGeminiMatcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	m := newTestMatcher(server.URL)
	m.timeout = 30 * time.Millisecond

	_, err := m.Match(context.Background(), "query", testEntries)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
}

func TestGeminiMatcher_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = fmt.Fprint(w, geminiBody(`{"matchedIds":[]}`))
	}))
	defer server.Close()

	m := NewGeminiMatcher(GeminiConfig{
		BaseURL:   server.URL,
		Model:     "gemini-test",
		Timeout:   50 * time.Millisecond,
		RateLimit: 0.01,
		Burst:     1,
	}, zap.NewNop())

	ids, err := m.Match(context.Background(), "first", testEntries)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = m.Match(context.Background(), "second", testEntries)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewGeminiMatcher_Defaults(t *testing.T) {
	m := NewGeminiMatcher(GeminiConfig{}, zap.NewNop())
	assert.Equal(t, defaultGeminiBaseURL, m.BaseURL)
	assert.Equal(t, defaultGeminiModel, m.Model)
	assert.Equal(t, defaultTimeout, m.timeout)
}

func TestParseMatchedIDs(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    []string
		wantErr error
	}{
		{name: "plain", text: `{"matchedIds":["cv-001","pj-001"]}`, want: []string{"cv-001", "pj-001"}},
		{name: "missing field", text: `{}`, want: []string{}},
		{name: "code fence", text: "```json\n{\"matchedIds\":[\"pj-001\"]}\n```", want: []string{"pj-001"}},
		{name: "unknown ids dropped", text: `{"matchedIds":["nope"," cv-001 "]}`, want: []string{"cv-001"}},
		{name: "empty", text: "", wantErr: ErrEmptyResponse},
		{name: "wrong shape", text: `{"matchedIds":"cv-001"}`, wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMatchedIDs(tt.text, testEntries)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Match(context.Background(), "anything", testEntries)
	assert.ErrorIs(t, err, ErrMatcherDisabled)
}

func TestBuildPrompt_ListsEveryEntry(t *testing.T) {
	prompt := BuildPrompt("stomach ache", testEntries)
	assert.Equal(t, len(testEntries), strings.Count(prompt, "\nID: "))
	assert.Contains(t, prompt, `"stomach ache"`)
}
