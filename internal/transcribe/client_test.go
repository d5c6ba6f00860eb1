package transcribe

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/timelinehq/timeline/internal/domain"
)

func TestTranscribe_Success(t *testing.T) {
	var gotField, gotFilename, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/backend/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Fatalf("ParseMediaType() error = %v", err)
		}
		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		if err != nil {
			t.Fatalf("NextPart() error = %v", err)
		}
		gotField = part.FormName()
		gotFilename = part.FileName()
		gotContentType = part.Header.Get("Content-Type")
		io.Copy(io.Discard, part)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"我2点去买菜，3点去理发"}`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	text, err := client.Transcribe(context.Background(), []byte("fake audio"), "memo.m4a", "")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}

	if text != "我2点去买菜，3点去理发" {
		t.Errorf("text = %q", text)
	}
	if gotField != "audio_file" {
		t.Errorf("form field = %q, want audio_file", gotField)
	}
	if gotFilename != "memo.m4a" {
		t.Errorf("filename = %q, want memo.m4a", gotFilename)
	}
	if gotContentType != "audio/m4a" {
		t.Errorf("part content type = %q, want audio/m4a (inferred)", gotContentType)
	}
}

func TestTranscribe_FallsBackToUnprefixedEndpoint(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/v1/audio/transcriptions" {
			w.Write([]byte(`{"text":"hello"}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	text, err := client.Transcribe(context.Background(), []byte("x"), "a.wav", "audio/wav")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello" {
		t.Errorf("text = %q, want hello", text)
	}
	want := []string{"/backend/v1/audio/transcriptions", "/v1/audio/transcriptions"}
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestTranscribe_MissingCredential(t *testing.T) {
	client := NewClient("")
	_, err := client.Transcribe(context.Background(), []byte("x"), "a.mp3", "")
	if kind := domain.KindOf(err); kind != domain.ErrorKindMissingCredential {
		t.Fatalf("KindOf(err) = %q, want %q", kind, domain.ErrorKindMissingCredential)
	}
}

func TestTranscribe_MissingTextField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail":"no text here"}`))
	}))
	defer server.Close()

	client := NewClient("secret", WithBaseURL(server.URL))
	_, err := client.Transcribe(context.Background(), []byte("x"), "a.mp3", "")
	if kind := domain.KindOf(err); kind != domain.ErrorKindTranscription {
		t.Fatalf("KindOf(err) = %q, want %q", kind, domain.ErrorKindTranscription)
	}
}

func TestInferContentType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"memo.m4a", "audio/m4a"},
		{"song.MP3", "audio/mpeg"},
		{"clip.wav", "audio/wav"},
		{"rec.flac", "audio/flac"},
		{"browser.webm", "audio/webm"},
		{"unknown.xyz", "audio/webm"},
		{"noextension", "audio/webm"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := inferContentType(tt.filename); got != tt.want {
				t.Errorf("inferContentType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
