package personaplex

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGenerate(t *testing.T) {
	var gotAuth string
	var gotBody apiRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"audio":{"url":"https://cdn.example/reply.wav"},"text":"Tell me about your last project.","duration":4.2,"seed":77}`))
	}))
	defer srv.Close()

	client, err := New(zap.NewNop(), "test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.Endpoint = srv.URL

	resp, err := client.Generate(context.Background(), &Request{
		AudioURL: "https://cdn.example/answer.wav",
		Prompt:   "You are an interviewer.",
		Voice:    "NATF2",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if gotAuth != "Key test-key" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if gotBody.Voice != "NATF2" || gotBody.AudioURL != "https://cdn.example/answer.wav" {
		t.Errorf("unexpected request body: %+v", gotBody)
	}
	if gotBody.TemperatureAudio != audioTemperature || gotBody.TemperatureText != textTemperature {
		t.Errorf("temperatures = %v/%v", gotBody.TemperatureAudio, gotBody.TemperatureText)
	}
	if resp.AudioURL != "https://cdn.example/reply.wav" {
		t.Errorf("audio url = %q", resp.AudioURL)
	}
	if resp.Text != "Tell me about your last project." {
		t.Errorf("text = %q", resp.Text)
	}
	if resp.Duration != 4.2 || resp.Seed != 77 {
		t.Errorf("duration/seed = %v/%v", resp.Duration, resp.Seed)
	}
}

func TestGenerateBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client, err := New(zap.NewNop(), "test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.Endpoint = srv.URL

	if _, err := client.Generate(context.Background(), &Request{Voice: "NATF2"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestGenerateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := New(zap.NewNop(), "test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	client.Endpoint = srv.URL
	client.HTTPClient.Timeout = 20 * time.Millisecond

	_, err = client.Generate(context.Background(), &Request{Voice: "NATF2"})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(zap.NewNop(), ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}
