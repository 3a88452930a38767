package resolver

import (
	"testing"

	"github.com/toolgrab/toolgrab/pkg/catalog"
)

func testHandlerCatalog(t *testing.T) *catalog.HandlerCatalog {
	t.Helper()
	cat, err := catalog.LoadDefaultHandlers()
	if err != nil {
		t.Fatalf("LoadDefaultHandlers() error = %v", err)
	}
	return cat
}

func TestClassifyLayerPriority(t *testing.T) {
	classifier := NewClassifier(testHandlerCatalog(t))

	tests := []struct {
		name        string
		recipe      string
		method      string
		transport   string
		errorText   string
		wantHandler string
		wantLayer   Layer
	}{
		{
			name:        "tool override beats everything",
			recipe:      "bat",
			method:      "apt",
			errorText:   "update-alternatives: error: alternative bat can't be slave",
			wantHandler: "bat-alternatives-conflict",
			wantLayer:   LayerToolOverride,
		},
		{
			name:        "method family for other recipes",
			recipe:      "ripgrep",
			method:      "apt",
			errorText:   "E: Unable to locate package ripgrep",
			wantHandler: "apt-package-not-found",
			wantLayer:   LayerMethodFamily,
		},
		{
			name:        "transport class before infrastructure",
			recipe:      "ripgrep",
			method:      "_default",
			transport:   "github_release",
			errorText:   "403 Forbidden: API rate limit exceeded for 203.0.113.7",
			wantHandler: "github-rate-limited",
			wantLayer:   LayerTransportClass,
		},
		{
			name:        "infrastructure backstop for a network failure",
			recipe:      "ripgrep",
			method:      "apt",
			errorText:   "Could not resolve host: deb.debian.org",
			wantHandler: "infra-network",
			wantLayer:   LayerInfrastructure,
		},
		{
			name:        "untagged method skips transport classes",
			recipe:      "ripgrep",
			method:      "apt",
			errorText:   "404 Not Found",
			wantHandler: "unclassified",
			wantLayer:   LayerInfrastructure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			match := classifier.Classify(tt.recipe, tt.method, tt.transport, tt.errorText)
			if match.Handler.Name != tt.wantHandler {
				t.Errorf("handler = %q, want %q", match.Handler.Name, tt.wantHandler)
			}
			if match.Layer != tt.wantLayer {
				t.Errorf("layer = %q, want %q", match.Layer, tt.wantLayer)
			}
		})
	}
}

func TestClassifyFirstDeclaredWins(t *testing.T) {
	doc := `
method_families:
  apt:
    - name: broad
      pattern: "(?i)lock"
      category: package_manager
      remediations:
        - action: retry
    - name: narrow
      pattern: "(?i)could not get lock /var/lib/dpkg"
      category: package_manager
      remediations:
        - action: abort
infrastructure:
  - name: backstop
    pattern: "connection refused"
    category: transport
    remediations:
      - action: retry
scenarios:
  infrastructure:
    - name: refused
      error_text: "connection refused"
`
	cat, err := catalog.ParseHandlers([]byte(doc))
	if err != nil {
		t.Fatalf("ParseHandlers() error = %v", err)
	}

	match := NewClassifier(cat).Classify("ripgrep", "apt", "",
		"E: Could not get lock /var/lib/dpkg/lock-frontend")
	if match.Handler.Name != "broad" {
		t.Errorf("handler = %q, want the first declared match %q", match.Handler.Name, "broad")
	}
}

func TestClassifyCatchAll(t *testing.T) {
	classifier := NewClassifier(testHandlerCatalog(t))

	match := classifier.Classify("ripgrep", "apt", "", "some entirely novel failure mode")
	if !match.CatchAll {
		t.Fatal("expected the built-in backstop for unmatched text")
	}
	if match.Handler.Category != catalog.CategoryUnclassified {
		t.Errorf("backstop category = %q, want %q", match.Handler.Category, catalog.CategoryUnclassified)
	}
	if len(match.Handler.Remediations) == 0 {
		t.Error("backstop must carry remediation options")
	}
}

func TestClassifyDeterministicAcrossTimestamps(t *testing.T) {
	classifier := NewClassifier(testHandlerCatalog(t))

	first := classifier.Classify("ripgrep", "apt", "",
		"2026-08-31T10:15:02Z E: Unable to locate package ripgrep")
	second := classifier.Classify("ripgrep", "apt", "",
		"2026-08-31T23:59:59+02:00 E: Unable to locate package ripgrep")

	if first.Handler.Name != second.Handler.Name {
		t.Errorf("same failure classified differently: %q vs %q", first.Handler.Name, second.Handler.Name)
	}
	if first.Handler.Name != "apt-package-not-found" {
		t.Errorf("handler = %q, want apt-package-not-found", first.Handler.Name)
	}
}

func TestStripTimestamps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rfc3339",
			in:   "2026-08-31T10:15:02Z error: boom",
			want: "error: boom",
		},
		{
			name: "rfc3339 with zone offset",
			in:   "2026-08-31 10:15:02+02:00 error: boom",
			want: "error: boom",
		},
		{
			name: "syslog",
			in:   "Aug 31 10:15:02 host error: boom",
			want: "host error: boom",
		},
		{
			name: "bracketed clock",
			in:   "[10:15:02] error: boom",
			want: "error: boom",
		},
		{
			name: "no timestamp",
			in:   "error: boom",
			want: "error: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTimestamps(tt.in); got != tt.want {
				t.Errorf("StripTimestamps(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
