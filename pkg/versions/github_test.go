package versions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSplitRepo(t *testing.T) {
	tests := []struct {
		repo      string
		owner     string
		name      string
		wantError bool
	}{
		{repo: "BurntSushi/ripgrep", owner: "BurntSushi", name: "ripgrep"},
		{repo: "sharkdp/bat", owner: "sharkdp", name: "bat"},
		{repo: "ripgrep", wantError: true},
		{repo: "/ripgrep", wantError: true},
		{repo: "BurntSushi/", wantError: true},
		{repo: "", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.repo, func(t *testing.T) {
			owner, name, err := splitRepo(tt.repo)
			if (err != nil) != tt.wantError {
				t.Fatalf("splitRepo(%q) error = %v, wantError %v", tt.repo, err, tt.wantError)
			}
			if err != nil {
				return
			}
			if owner != tt.owner || name != tt.name {
				t.Errorf("splitRepo(%q) = %s, %s", tt.repo, owner, name)
			}
		})
	}
}

// releaseServer serves a canned latest-release response in the GitHub API
// shape.
func releaseServer(t *testing.T, status int, tag string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/releases/latest") {
			http.NotFound(w, r)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"tag_name": tag})
	}))
}

func TestLatestVersion(t *testing.T) {
	srv := releaseServer(t, http.StatusOK, "14.1.0")
	defer srv.Close()

	client, err := NewGitHubClient(GitHubConfig{BaseURL: srv.URL + "/", RequestsPerSecond: 100}, nil)
	if err != nil {
		t.Fatalf("NewGitHubClient() error = %v", err)
	}

	tag, err := client.LatestVersion(context.Background(), "BurntSushi/ripgrep")
	if err != nil {
		t.Fatalf("LatestVersion() error = %v", err)
	}
	if tag != "14.1.0" {
		t.Errorf("tag = %q, want 14.1.0", tag)
	}
}

func TestLatestVersionNotFound(t *testing.T) {
	srv := releaseServer(t, http.StatusNotFound, "")
	defer srv.Close()

	client, err := NewGitHubClient(GitHubConfig{BaseURL: srv.URL + "/", RequestsPerSecond: 100}, nil)
	if err != nil {
		t.Fatalf("NewGitHubClient() error = %v", err)
	}

	_, err = client.LatestVersion(context.Background(), "nobody/norepo")
	if err == nil {
		t.Fatal("LatestVersion() succeeded for a repository without releases")
	}
	if !strings.Contains(err.Error(), "404 Not Found") {
		t.Errorf("error = %q, want it to carry 404 Not Found for classification", err)
	}
}

func TestLatestVersionInvalidRepo(t *testing.T) {
	client, err := NewGitHubClient(GitHubConfig{}, nil)
	if err != nil {
		t.Fatalf("NewGitHubClient() error = %v", err)
	}

	if _, err := client.LatestVersion(context.Background(), "not-a-repo"); err == nil {
		t.Fatal("LatestVersion() succeeded for a malformed repository")
	}
}
