package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseGitHubURL(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantOwner string
		wantRepo  string
		wantErr   bool
	}{
		// Full HTTPS URLs
		{
			name:      "https url",
			input:     "https://github.com/tech4life-beyond/products",
			wantOwner: "tech4life-beyond",
			wantRepo:  "products",
			wantErr:   false,
		},
		{
			name:      "https url with .git",
			input:     "https://github.com/tech4life-beyond/products.git",
			wantOwner: "tech4life-beyond",
			wantRepo:  "products",
			wantErr:   false,
		},
		{
			name:      "http url",
			input:     "http://github.com/tech4life-beyond/products",
			wantOwner: "tech4life-beyond",
			wantRepo:  "products",
			wantErr:   false,
		},
		// Without protocol
		{
			name:      "without protocol",
			input:     "github.com/tech4life-beyond/products",
			wantOwner: "tech4life-beyond",
			wantRepo:  "products",
			wantErr:   false,
		},
		// Shorthand
		{
			name:      "shorthand",
			input:     "tech4life-beyond/products",
			wantOwner: "tech4life-beyond",
			wantRepo:  "products",
			wantErr:   false,
		},
		{
			name:      "shorthand with underscore",
			input:     "tech4life-beyond/product_packs",
			wantOwner: "tech4life-beyond",
			wantRepo:  "product_packs",
			wantErr:   false,
		},
		// With whitespace
		{
			name:      "with leading/trailing whitespace",
			input:     "  tech4life-beyond/products  ",
			wantOwner: "tech4life-beyond",
			wantRepo:  "products",
			wantErr:   false,
		},
		// Invalid inputs
		{
			name:    "no slash",
			input:   "products",
			wantErr: true,
		},
		{
			name:    "too many slashes in shorthand",
			input:   "tech4life-beyond/products/extra",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "gitlab url",
			input:   "https://gitlab.com/tech4life-beyond/products",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, err := ParseGitHubURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseGitHubURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr {
				if owner != tt.wantOwner {
					t.Errorf("ParseGitHubURL() owner = %v, want %v", owner, tt.wantOwner)
				}
				if repo != tt.wantRepo {
					t.Errorf("ParseGitHubURL() repo = %v, want %v", repo, tt.wantRepo)
				}
			}
		})
	}
}

func TestRepoSlug(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{
			name:  "https url",
			input: "https://github.com/tech4life-beyond/products",
			want:  "tech4life-beyond/products",
		},
		{
			name:  "shorthand",
			input: "tech4life-beyond/products",
			want:  "tech4life-beyond/products",
		},
		{
			name:  "with .git",
			input: "https://github.com/tech4life-beyond/products.git",
			want:  "tech4life-beyond/products",
		},
		{
			name:    "invalid",
			input:   "not-a-url",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RepoSlug(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("RepoSlug() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("RepoSlug() = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeContents serves a minimal contents API for one products repository.
func fakeContents(t *testing.T, files map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/repos/tech4life-beyond/products/contents/"
		path := r.URL.Path[len(prefix):]

		if content, ok := files[path]; ok {
			json.NewEncoder(w).Encode(map[string]string{
				"name":     filepath.Base(path),
				"path":     path,
				"type":     "file",
				"encoding": "base64",
				"content":  base64.StdEncoding.EncodeToString([]byte(content)),
			})
			return
		}

		// Directory listing: entries directly under path.
		seen := map[string]bool{}
		var entries []map[string]string
		for file := range files {
			rel := file
			if path != "" {
				if !strings.HasPrefix(file, path+"/") {
					continue
				}
				rel = strings.TrimPrefix(file, path+"/")
			}
			name := rel
			entryType := "file"
			if idx := strings.IndexByte(rel, '/'); idx >= 0 {
				name = rel[:idx]
				entryType = "dir"
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			entryPath := name
			if path != "" {
				entryPath = path + "/" + name
			}
			entries = append(entries, map[string]string{
				"name": name,
				"path": entryPath,
				"type": entryType,
			})
		}
		if len(entries) == 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(entries)
	}))
}

func TestGetFile(t *testing.T) {
	server := fakeContents(t, map[string]string{
		"clean-drain-device/README.md": "ID: T4L-TOIL-001-CDD\n",
	})
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	data, err := client.GetFile(context.Background(), "tech4life-beyond/products", "clean-drain-device/README.md")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if string(data) != "ID: T4L-TOIL-001-CDD\n" {
		t.Errorf("GetFile() = %q, want decoded README", data)
	}
}

func TestGetFile_NotFound(t *testing.T) {
	server := fakeContents(t, map[string]string{
		"clean-drain-device/README.md": "ID: T4L-TOIL-001-CDD\n",
	})
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.GetFile(context.Background(), "tech4life-beyond/products", "missing/README.md")
	if !IsNotFound(err) {
		t.Errorf("GetFile() error = %v, want not-found", err)
	}
}

func TestDownloadPacks(t *testing.T) {
	server := fakeContents(t, map[string]string{
		"clean-drain-device/README.md":     "ID: T4L-TOIL-001-CDD\n",
		"clean-drain-device/metadata.json": `{"toil_id": "T4L-TOIL-001-CDD"}`,
		"air-quality-sensor/README.md":     "ID: T4L-TOIL-002-AQS\n",
		"not-a-pack/datasheet.txt":         "no readme here",
		"LICENSE":                          "top-level file, not a pack",
	})
	defer server.Close()

	dest := t.TempDir()
	client := NewClient(WithBaseURL(server.URL))
	names, err := client.DownloadPacks(context.Background(), "tech4life-beyond/products", dest)
	if err != nil {
		t.Fatalf("DownloadPacks() error = %v", err)
	}

	if len(names) != 2 {
		t.Fatalf("DownloadPacks() = %v, want 2 packs", names)
	}
	readme, err := os.ReadFile(filepath.Join(dest, "clean-drain-device", "README.md"))
	if err != nil {
		t.Fatalf("reading downloaded README: %v", err)
	}
	if string(readme) != "ID: T4L-TOIL-001-CDD\n" {
		t.Errorf("downloaded README = %q", readme)
	}
	if _, err := os.Stat(filepath.Join(dest, "clean-drain-device", "metadata.json")); err != nil {
		t.Error("metadata.json should have been downloaded when present")
	}
	if _, err := os.Stat(filepath.Join(dest, "air-quality-sensor", "metadata.json")); !os.IsNotExist(err) {
		t.Error("metadata.json should be absent for packs without one")
	}
	if _, err := os.Stat(filepath.Join(dest, "not-a-pack")); !os.IsNotExist(err) {
		t.Error("folders without a README are not packs")
	}
}

func TestCheckHTTPErrors_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.ListDir(context.Background(), "tech4life-beyond/products", "")
	if !IsRateLimited(err) {
		t.Errorf("ListDir() error = %v, want rate-limited", err)
	}
}

func TestCheckHTTPErrors_Auth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.ListDir(context.Background(), "tech4life-beyond/products", "")
	if err == nil || IsRateLimited(err) || IsNotFound(err) {
		t.Errorf("ListDir() error = %v, want auth error", err)
	}
}
