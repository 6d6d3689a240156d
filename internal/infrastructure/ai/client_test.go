package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AtRiskMedia/pagecraft-go/internal/domain/entities/editor"
	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	assert.Equal(t, "<p>x</p>", StripFences("```html\n<p>x</p>\n```"))
	assert.Equal(t, "<p>x</p>", StripFences("```\n<p>x</p>"))
	assert.Equal(t, "<p>x</p>", StripFences("  <p>x</p>  "))
}

func TestSanitizerRemovesScriptsKeepsStyling(t *testing.T) {
	s := NewSanitizer()
	out := s.Clean("```html\n<section class=\"hero\" onclick=\"steal()\"><h1 style=\"color: red\">Hi</h1><script>alert(1)</script><a href=\"javascript:alert(1)\">x</a></section>\n```")

	assert.Contains(t, out, `<section class="hero">`)
	assert.Contains(t, out, `<h1 style="color: red">Hi</h1>`)
	assert.NotContains(t, out, "onclick")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "alert")
}

func TestSanitizerKeepsStyleBlocks(t *testing.T) {
	out := NewSanitizer().Clean(`<html><head><style>.hero { color: blue; }</style></head><body><div class="hero">A</div></body></html>`)
	assert.Contains(t, out, "<style>")
	assert.Contains(t, out, ".hero")
	assert.Contains(t, out, `<div class="hero">A</div>`)
}

func TestClientGenerate(t *testing.T) {
	var got editor.GenerationRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"html": "```html\n<main><h1>New</h1></main>\n```"})
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, APIKey: "secret"}, logging.NewDiscardLogger())
	out, err := client.Generate(context.Background(), editor.GenerationRequest{Prompt: "hero", HTML: "<p>old</p>", Stream: true})
	require.NoError(t, err)
	assert.Equal(t, "<main><h1>New</h1></main>", out)
	assert.Equal(t, "hero", got.Prompt)
	assert.Equal(t, "<p>old</p>", got.HTML)
	assert.False(t, got.Stream)
}

func TestClientStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"<main>", "<h1>Draft</h1>", "</main>"} {
			data, _ := json.Marshal(map[string]string{"delta": delta})
			fmt.Fprintf(w, "data: %s\n\n", data)
		}
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL}, logging.NewDiscardLogger())
	var partials []string
	out, err := client.Stream(context.Background(), editor.GenerationRequest{Prompt: "p"}, func(partial string) {
		partials = append(partials, partial)
	})
	require.NoError(t, err)
	assert.Equal(t, "<main><h1>Draft</h1></main>", out)
	require.Len(t, partials, 3)
	assert.Equal(t, "<main>", partials[0])
}

func TestClientErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL}, logging.NewDiscardLogger())
	_, err := client.Generate(context.Background(), editor.GenerationRequest{Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"html":"<script>x()</script>"}`)
	}))
	defer empty.Close()
	_, err = NewClient(Config{Endpoint: empty.URL}, logging.NewDiscardLogger()).Generate(context.Background(), editor.GenerationRequest{})
	assert.ErrorIs(t, err, ErrEmptyResult)

	_, err = NewClient(Config{}, logging.NewDiscardLogger()).Generate(context.Background(), editor.GenerationRequest{})
	assert.Error(t, err)
}
