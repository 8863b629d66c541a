package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func newTestSampler(t *testing.T, handler http.Handler) (*Sampler, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(zap.NewNop(), "")
	client.APIURL = server.URL
	client.RawURL = server.URL + "/raw"

	return NewSampler(client, zap.NewNop()), server
}

func writeTree(t *testing.T, w http.ResponseWriter, entries []TreeEntry) {
	t.Helper()
	if err := json.NewEncoder(w).Encode(treeResponse{Tree: entries}); err != nil {
		t.Fatalf("encode tree: %v", err)
	}
}

func TestScoreFileSizeBonusSaturates(t *testing.T) {
	t.Parallel()

	cases := []struct {
		size   int64
		expect float64
	}{
		{0, 0},
		{15000, 3},
		{50000, 3},
	}

	for _, tc := range cases {
		if got := scoreFile("lib/parser.py", tc.size); got != tc.expect {
			t.Fatalf("size %d: expected score %v, got %v", tc.size, tc.expect, got)
		}
	}

	small := scoreFile("lib/parser.py", 2500)
	larger := scoreFile("lib/parser.py", 4000)
	if small >= larger {
		t.Fatalf("size bonus must be non-decreasing: %v >= %v", small, larger)
	}
}

func TestSelectPathsExcludesIgnoredAndNonBlobEntries(t *testing.T) {
	t.Parallel()

	sampler := &Sampler{maxFiles: defaultMaxFiles, logger: zap.NewNop()}

	paths := sampler.selectPaths([]TreeEntry{
		{Path: "src", Type: "tree", Size: 0},
		{Path: "src/main.py", Type: "blob", Size: 12000},
		{Path: "tests/test_main.py", Type: "blob", Size: 500},
		{Path: "node_modules/react/index.js", Type: "blob", Size: 90000},
		{Path: "docs/guide.py", Type: "blob", Size: 8000},
		{Path: "assets/logo.png", Type: "blob", Size: 4000},
	})

	if len(paths) != 1 || paths[0] != "src/main.py" {
		t.Fatalf("expected only src/main.py to survive, got %v", paths)
	}
}

func TestSelectPathsRanksByScoreWithStableTieBreak(t *testing.T) {
	t.Parallel()

	sampler := &Sampler{maxFiles: 2, logger: zap.NewNop()}

	paths := sampler.selectPaths([]TreeEntry{
		{Path: "pkg/first.go", Type: "blob", Size: 1000},
		{Path: "pkg/second.go", Type: "blob", Size: 1000},
		{Path: "cmd/main.go", Type: "blob", Size: 100},
	})

	if len(paths) != 2 {
		t.Fatalf("expected two paths, got %v", paths)
	}
	if paths[0] != "cmd/main.go" {
		t.Fatalf("expected the important-name file first, got %v", paths)
	}
	// Equal scores keep enumeration order.
	if paths[1] != "pkg/first.go" {
		t.Fatalf("expected stable tie-break, got %v", paths)
	}
}

func TestSampleConcatenatesReadmeAndTopFiles(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/demo/git/trees/main", func(w http.ResponseWriter, _ *http.Request) {
		writeTree(t, w, []TreeEntry{
			{Path: "src/main.py", Type: "blob", Size: 12000},
			{Path: "tests/test_main.py", Type: "blob", Size: 500},
		})
	})
	mux.HandleFunc("/raw/octocat/demo/main/README.md", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("# demo"))
	})
	mux.HandleFunc("/raw/octocat/demo/main/src/main.py", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("print('hi')"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})

	sampler, _ := newTestSampler(t, mux)

	sample, err := sampler.Sample(context.Background(), "https://github.com/octocat/demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(sample, "# demo") {
		t.Fatalf("expected README in sample: %q", sample)
	}
	if !strings.Contains(sample, "print('hi')") {
		t.Fatalf("expected main.py content in sample: %q", sample)
	}
	if strings.Contains(sample, "test_main") {
		t.Fatalf("test file must not be sampled: %q", sample)
	}
}

func TestSampleFallsBackToMasterBranch(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/octocat/old/git/trees/master", func(w http.ResponseWriter, _ *http.Request) {
		writeTree(t, w, []TreeEntry{{Path: "app.py", Type: "blob", Size: 6000}})
	})
	mux.HandleFunc("/raw/octocat/old/master/app.py", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("legacy"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})

	sampler, _ := newTestSampler(t, mux)

	sample, err := sampler.Sample(context.Background(), "https://github.com/octocat/old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(sample, "legacy") {
		t.Fatalf("expected master branch content: %q", sample)
	}
}

func TestSampleReturnsEmptyWhenNoBranchResolves(t *testing.T) {
	t.Parallel()

	sampler, _ := newTestSampler(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	}))

	sample, err := sampler.Sample(context.Background(), "https://github.com/octocat/ghost")
	if err != nil {
		t.Fatalf("empty sample must not be an error: %v", err)
	}
	if sample != "" {
		t.Fatalf("expected empty sample, got %q", sample)
	}
}

func TestParseRepoURL(t *testing.T) {
	t.Parallel()

	owner, repo, err := parseRepoURL("https://github.com/octocat/demo/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if owner != "octocat" || repo != "demo" {
		t.Fatalf("unexpected parse result: %s/%s", owner, repo)
	}

	if _, _, err := parseRepoURL("https://github.com/"); err == nil {
		t.Fatalf("expected error for url without owner and repo")
	}
}
