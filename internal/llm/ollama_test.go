package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOllamaComplete(t *testing.T) {
	var gotPrompt, gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPrompt = req.Prompt
		gotModel = req.Model
		if req.Stream {
			t.Error("stream should be false")
		}
		json.NewEncoder(w).Encode(generateResponse{
			Model:    req.Model,
			Response: "FINAL ANSWER: all good",
			Done:     true,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.1", time.Minute)
	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "FINAL ANSWER: all good" {
		t.Errorf("completion = %q", out)
	}
	if gotPrompt != "hello" || gotModel != "llama3.1" {
		t.Errorf("request = (%q, %q)", gotModel, gotPrompt)
	}
}

func TestOllamaWaitsOutSlowGeneration(t *testing.T) {
	// Headers arrive only after the completion finishes generating, so
	// the transport must not enforce its own header deadline; only the
	// overall client timeout bounds the call.
	if tr := completionTransport(); tr.ResponseHeaderTimeout != 0 {
		t.Fatalf("ResponseHeaderTimeout = %v, want none", tr.ResponseHeaderTimeout)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(generateResponse{Response: "took a while", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.1", 5*time.Second)
	out, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "took a while" {
		t.Errorf("completion = %q", out)
	}
}

func TestOllamaTimeoutBoundsCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		json.NewEncoder(w).Encode(generateResponse{Response: "too late", Done: true})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.1", 50*time.Millisecond)
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Error("expected timeout error")
	}
}

func TestOllamaCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "nope", time.Minute)
	if _, err := c.Complete(context.Background(), "hello"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestOllamaPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, "llama3.1", time.Minute)
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}
