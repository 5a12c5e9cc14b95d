package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"v0.1.1", "v0.1.0", 1},
		{"v0.1.0", "0.1.0", 0},
		{"v0.10.0", "v0.9.0", 1},
		{"v1.0", "v1.0.1", -1},
		{"v1.2.0-rc1", "v1.2.0", -1},
		{"v1.0.0", "v1.0.0-rc1", 1},
		{"v1.0.0-rc2", "v1.0.0-rc1", 1},
		{"v1.2.0+build.7", "v1.2.0", 0},
		{"v0.1.0", "dev", 1},
		{"dev", "v0.1.0", -1},
		{"dev", "unknown", 0},
	}
	for _, tt := range tests {
		if got := compareVersions(tt.v1, tt.v2); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.v1, tt.v2, got, tt.want)
		}
	}
}

func releaseServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckForUpdates(t *testing.T) {
	srv := releaseServer(t, http.StatusOK, `{"tag_name":"v1.2.0","html_url":"https://example.com/r/v1.2.0"}`)

	tag, url, err := CheckForUpdates(context.Background(), srv.Client(), srv.URL, "v1.1.9")
	if err != nil {
		t.Fatalf("CheckForUpdates: %v", err)
	}
	if tag != "v1.2.0" || url != "https://example.com/r/v1.2.0" {
		t.Errorf("got %q %q", tag, url)
	}

	tag, _, err = CheckForUpdates(context.Background(), srv.Client(), srv.URL, "v1.2.0")
	if err != nil || tag != "" {
		t.Errorf("up to date: tag=%q err=%v", tag, err)
	}

	tag, _, err = CheckForUpdates(context.Background(), srv.Client(), srv.URL, "v1.2.0-rc1")
	if err != nil || tag != "v1.2.0" {
		t.Errorf("release candidate: tag=%q err=%v", tag, err)
	}
}

func TestCheckForUpdates_BadStatus(t *testing.T) {
	srv := releaseServer(t, http.StatusForbidden, `{"message":"rate limited"}`)
	if _, _, err := CheckForUpdates(context.Background(), srv.Client(), srv.URL, "v0.1.0"); err == nil {
		t.Error("expected error for 403")
	}
}
