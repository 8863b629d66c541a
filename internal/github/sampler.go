package github

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultMaxFiles = 5

	// Size bonus: one point per 5000 bytes, capped at 3.
	sizeBonusDivisor = 5000
	sizeBonusCap     = 3.0
	nameBonus        = 3.0
)

// Path tokens that mark a file as likely central to the codebase.
var importantNameTokens = []string{
	"main", "app", "core", "model", "engine", "utils", "agent", "service", "controller",
}

// Path fragments that disqualify a file: tests, docs, build output, vendored deps.
var ignoredPathParts = []string{
	"test", "tests", "docs", "example", "demo", "dist", "build", "__pycache__", "node_modules",
}

var sourceExtensions = []string{
	".py", ".js", ".ts", ".java", ".kt", ".c", ".cpp", ".h", ".cs", ".go",
	".rs", ".swift", ".rb", ".php", ".sh", ".dart", ".scala",
}

var defaultBranches = []string{"main", "master"}

// Sampler assembles a bounded, representative text sample of a repository
// (README plus the top-scored source files) without fetching the whole tree.
type Sampler struct {
	client   *Client
	logger   *zap.Logger
	maxFiles int
}

func NewSampler(client *Client, logger *zap.Logger) *Sampler {
	return &Sampler{
		client:   client,
		logger:   logger,
		maxFiles: defaultMaxFiles,
	}
}

type candidateFile struct {
	score float64
	path  string
}

// Sample returns the concatenated README and top files of the repository at
// repoURL. An unreachable repository yields an empty sample and no error:
// callers treat it as "no signal", not a failure.
func (s *Sampler) Sample(ctx context.Context, repoURL string) (string, error) {
	owner, repo, err := parseRepoURL(repoURL)
	if err != nil {
		return "", err
	}

	branch, tree := s.resolveTree(ctx, owner, repo)
	if branch == "" {
		s.logger.Debug("no resolvable branch, returning empty sample",
			zap.String("owner", owner), zap.String("repo", repo))
		return "", nil
	}

	var sample strings.Builder

	if readme := s.fetchBranchProbed(ctx, owner, repo, "README.md"); readme != "" {
		sample.WriteString(readme)
		sample.WriteString("\n\n")
	}

	for _, path := range s.selectPaths(tree) {
		content := s.fetchBranchProbed(ctx, owner, repo, path)
		if content == "" {
			// Best-effort: a file that disappeared between the tree listing
			// and the fetch is skipped, not fatal.
			continue
		}
		sample.WriteString(content)
		sample.WriteString("\n\n")
	}

	return sample.String(), nil
}

// resolveTree probes the fixed branch preference order and returns the first
// branch whose recursive tree listing succeeds.
func (s *Sampler) resolveTree(ctx context.Context, owner, repo string) (string, []TreeEntry) {
	for _, branch := range defaultBranches {
		tree, err := s.client.GetTree(ctx, owner, repo, branch)
		if err == nil {
			return branch, tree
		}
		s.logger.Debug("branch tree listing failed",
			zap.String("branch", branch), zap.Error(err))
	}
	return "", nil
}

func (s *Sampler) fetchBranchProbed(ctx context.Context, owner, repo, path string) string {
	for _, branch := range defaultBranches {
		content, err := s.client.GetRawFile(ctx, owner, repo, branch, path)
		if err == nil {
			return content
		}
	}
	return ""
}

// selectPaths filters the flat tree down to scored source files and returns
// the top maxFiles paths, ordered by score descending. Ties keep the original
// enumeration order for determinism.
func (s *Sampler) selectPaths(tree []TreeEntry) []string {
	candidates := make([]candidateFile, 0, len(tree))

	for _, entry := range tree {
		if entry.Type != "blob" {
			continue
		}

		path := strings.ToLower(entry.Path)
		if !hasSourceExtension(path) || containsIgnoredPart(path) {
			continue
		}

		candidates = append(candidates, candidateFile{
			score: scoreFile(path, entry.Size),
			path:  entry.Path,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > s.maxFiles {
		candidates = candidates[:s.maxFiles]
	}

	paths := make([]string, len(candidates))
	for i, c := range candidates {
		paths[i] = c.path
	}
	return paths
}

// scoreFile expects an already-lowercased path. The size bonus is monotonic
// and saturates, so a huge generated file cannot dominate selection.
func scoreFile(path string, size int64) float64 {
	var score float64
	for _, token := range importantNameTokens {
		if strings.Contains(path, token) {
			score += nameBonus
			break
		}
	}

	bonus := float64(size) / sizeBonusDivisor
	if bonus > sizeBonusCap {
		bonus = sizeBonusCap
	}
	return score + bonus
}

func hasSourceExtension(path string) bool {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func containsIgnoredPart(path string) bool {
	for _, part := range ignoredPathParts {
		if strings.Contains(path, part) {
			return true
		}
	}
	return false
}

// parseRepoURL extracts owner and repository name from a repository URL like
// https://github.com/owner/repo.
func parseRepoURL(repoURL string) (string, string, error) {
	parsed, err := url.Parse(strings.TrimSuffix(strings.TrimSpace(repoURL), "/"))
	if err != nil {
		return "", "", fmt.Errorf("parse repository url: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("repository url %q must contain owner and repository", repoURL)
	}

	return parts[len(parts)-2], parts[len(parts)-1], nil
}
