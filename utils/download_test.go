package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
)

func TestFetchResource(t *testing.T) {
	const body = "not really a jpeg, just some bytes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f, err := FetchResource(srv.URL)
	if err != nil {
		t.Fatalf("FetchResource: %v", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if !strings.Contains(f.Name(), "lqr-resource") {
		t.Errorf("expected the downloaded resource in a lqr-resource temp file, got %q", f.Name())
	}

	got := make([]byte, len(body))
	if _, err := f.Read(got); err != nil {
		t.Fatalf("reading downloaded resource: %v", err)
	}
	if string(got) != body {
		t.Errorf("downloaded content = %q, want %q", got, body)
	}
}

func TestFetchResource_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, err := FetchResource(srv.URL); err == nil {
		t.Error("expected an error for a 404 response")
	}
}

func TestIsValidURL(t *testing.T) {
	cases := map[string]bool{
		"https://github.com/esimov/lqr/": true,
		"http://example.com/image.jpg":   true,
		"not-a-url":                      false,
		"/just/a/path.jpg":               false,
		"":                               false,
	}
	for in, want := range cases {
		if got := IsValidURL(in); got != want {
			t.Errorf("IsValidURL(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDetectFileContentType(t *testing.T) {
	f, err := os.CreateTemp("", "lqr-content-type")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	defer os.Remove(f.Name())

	// A minimal valid PNG header is enough for http.DetectContentType to
	// recognize the format without needing a real image fixture.
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	if _, err := f.Write(pngHeader); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	f.Close()

	ftype, err := DetectFileContentType(f.Name())
	if err != nil {
		t.Fatalf("DetectFileContentType: %v", err)
	}
	if !strings.Contains(ftype, "image/png") {
		t.Errorf("content type = %q, want it to contain image/png", ftype)
	}
}
