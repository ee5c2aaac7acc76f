package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nguyentantai21042004/lecture-notes/internal/config"
	"github.com/nguyentantai21042004/lecture-notes/internal/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.LLMConfig
		wantName string
		wantErr  bool
	}{
		{name: "ollama", cfg: config.LLMConfig{Backend: "ollama"}, wantName: OllamaName},
		{name: "gemini", cfg: config.LLMConfig{Backend: "gemini", Gemini: config.GeminiConfig{Model: "m", APIKeys: []string{"k"}}}, wantName: GeminiName},
		{name: "gemini without keys", cfg: config.LLMConfig{Backend: "gemini"}, wantErr: true},
		{name: "unknown", cfg: config.LLMConfig{Backend: "gpt2"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.cfg, logger.Nop())
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if g.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", g.Name(), tt.wantName)
			}
		})
	}
}

func TestCheckAvailable(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer up.Close()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	downURL := down.URL
	down.Close()

	gemini, err := NewGemini("m", []string{"k"}, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		gen     Generator
		wantErr bool
	}{
		{name: "ollama reachable", gen: NewOllama(OllamaConfig{BaseURL: up.URL, Model: "llama3"})},
		{name: "ollama unreachable", gen: NewOllama(OllamaConfig{BaseURL: downURL, Model: "llama3"}), wantErr: true},
		{name: "backend without probe", gen: gemini},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAvailable(context.Background(), tt.gen)
			if tt.wantErr != (err != nil) {
				t.Fatalf("CheckAvailable() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrUnavailable) {
				t.Errorf("error = %v, want ErrUnavailable", err)
			}
		})
	}
}
