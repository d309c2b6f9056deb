package whisper_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/termscribe/termscribe/pkg/provider/asr"
	"github.com/termscribe/termscribe/pkg/provider/asr/whisper"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meeting.mp3")
	if err := os.WriteFile(path, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNew_RequiresServerURL(t *testing.T) {
	t.Parallel()
	if _, err := whisper.New(""); err == nil {
		t.Fatal("expected error for empty server URL, got nil")
	}
}

func TestClient_Requirements(t *testing.T) {
	t.Parallel()
	c, err := whisper.New("http://localhost:8080")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if reqs := c.Requirements(); reqs.WAV {
		t.Error("the HTTP client must not require WAV input")
	}
	if c.Name() != "whisper" {
		t.Errorf("Name = %q, want whisper", c.Name())
	}
}

func TestClient_Transcribe(t *testing.T) {
	t.Parallel()
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("path = %q, want /inference", r.URL.Path)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		gotForm = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotForm[k] = v[0]
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": " вот этот шалайзер \n"}`))
	}))
	defer srv.Close()

	c, err := whisper.New(srv.URL,
		whisper.WithModel("large-v3"),
		whisper.WithLanguage("ru"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tr, err := c.Transcribe(context.Background(), writeAudio(t), asr.Hint{
		Prompt:   "initializer, config",
		Hotwords: []string{"ignored"},
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if tr.Text != "вот этот шалайзер" {
		t.Errorf("Text = %q", tr.Text)
	}
	if tr.Language != "ru" {
		t.Errorf("Language = %q, want ru", tr.Language)
	}
	if gotForm["prompt"] != "initializer, config" {
		t.Errorf("prompt field = %q", gotForm["prompt"])
	}
	if gotForm["model"] != "large-v3" {
		t.Errorf("model field = %q", gotForm["model"])
	}
	if gotForm["language"] != "ru" {
		t.Errorf("language field = %q", gotForm["language"])
	}
	if gotForm["response_format"] != "json" {
		t.Errorf("response_format field = %q", gotForm["response_format"])
	}
}

func TestClient_Transcribe_NoPromptField(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if _, ok := r.MultipartForm.Value["prompt"]; ok {
			t.Error("prompt field should be absent for an empty hint")
		}
		w.Write([]byte(`{"text": "ok"}`))
	}))
	defer srv.Close()

	c, _ := whisper.New(srv.URL)
	if _, err := c.Transcribe(context.Background(), writeAudio(t), asr.Hint{}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestClient_Transcribe_ServerError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := whisper.New(srv.URL)
	if _, err := c.Transcribe(context.Background(), writeAudio(t), asr.Hint{}); err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
}

func TestClient_Transcribe_ErrorBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "", "error": "decode failed"}`))
	}))
	defer srv.Close()

	c, _ := whisper.New(srv.URL)
	if _, err := c.Transcribe(context.Background(), writeAudio(t), asr.Hint{}); err == nil {
		t.Fatal("expected error for error body, got nil")
	}
}

func TestClient_Transcribe_MissingFile(t *testing.T) {
	t.Parallel()
	c, _ := whisper.New("http://localhost:8080")
	if _, err := c.Transcribe(context.Background(), "/nonexistent/audio.mp3", asr.Hint{}); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestNewNative_RequiresModelPath(t *testing.T) {
	t.Parallel()
	if _, err := whisper.NewNative(""); err == nil {
		t.Fatal("expected error for empty model path, got nil")
	}
}
