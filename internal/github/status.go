package github

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Commit probing across many repositories burns through the unauthenticated
// rate limit, so only the first few are checked.
const commitProbeLimit = 5

const topRepoCount = 3

// ProfileStatus summarizes a GitHub profile for the analysis model. When the
// user cannot be resolved, Exists is false and Message explains why; that is
// still a valid tool result, not an error.
type ProfileStatus struct {
	Exists          bool           `json:"exists"`
	Message         string         `json:"message,omitempty"`
	Bio             string         `json:"bio,omitempty"`
	TotalPublicRepo int            `json:"total_public_repos,omitempty"`
	TotalStars      int            `json:"total_stars"`
	TotalForks      int            `json:"total_forks"`
	TotalOpenIssues int            `json:"total_open_issues"`
	Languages       map[string]int `json:"languages,omitempty"`
	LastCommit      string         `json:"last_commit,omitempty"`
	ProfileURL      string         `json:"profile_url,omitempty"`
	TopRepos        []TopRepo      `json:"top_repos,omitempty"`
}

type TopRepo struct {
	Name     string `json:"name"`
	Stars    int    `json:"stars"`
	Forks    int    `json:"forks"`
	Language string `json:"language,omitempty"`
	RepoURL  string `json:"repo_url"`
}

// ProfileStatusChecker aggregates a candidate's public GitHub activity.
type ProfileStatusChecker struct {
	client *Client
	logger *zap.Logger
}

func NewProfileStatusChecker(client *Client, logger *zap.Logger) *ProfileStatusChecker {
	return &ProfileStatusChecker{client: client, logger: logger}
}

// Check resolves the user and aggregates repository statistics. Lookup
// failures degrade to an Exists=false status instead of an error.
func (p *ProfileStatusChecker) Check(ctx context.Context, username string) *ProfileStatus {
	user, err := p.client.GetUser(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return &ProfileStatus{Exists: false, Message: "GitHub user not found."}
		}
		p.logger.Warn("github user lookup failed", zap.String("username", username), zap.Error(err))
		return &ProfileStatus{Exists: false, Message: fmt.Sprintf("Error accessing GitHub: %v", err)}
	}

	repos, err := p.client.ListUserRepos(ctx, username)
	if err != nil {
		p.logger.Warn("github repo listing failed", zap.String("username", username), zap.Error(err))
		return &ProfileStatus{Exists: false, Message: "Failed to fetch repositories."}
	}

	status := &ProfileStatus{
		Exists:          true,
		Bio:             user.Bio,
		TotalPublicRepo: user.PublicRepos,
		Languages:       make(map[string]int),
		ProfileURL:      user.HTMLURL,
	}

	for _, repo := range repos {
		status.TotalStars += repo.Stargazers
		status.TotalForks += repo.Forks
		status.TotalOpenIssues += repo.OpenIssues
		if repo.Language != "" {
			status.Languages[repo.Language]++
		}
	}

	if last := p.latestCommit(ctx, username, repos); !last.IsZero() {
		status.LastCommit = last.Format(time.RFC3339)
	}

	status.TopRepos = topReposByStars(repos)

	return status
}

func (p *ProfileStatusChecker) latestCommit(ctx context.Context, username string, repos []Repo) time.Time {
	var last time.Time

	probed := repos
	if len(probed) > commitProbeLimit {
		probed = probed[:commitProbeLimit]
	}

	for _, repo := range probed {
		at, err := p.client.LatestCommitTime(ctx, username, repo.Name)
		if err != nil {
			continue
		}
		if at.After(last) {
			last = at
		}
	}

	return last
}

func topReposByStars(repos []Repo) []TopRepo {
	ranked := make([]Repo, len(repos))
	copy(ranked, repos)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Stargazers > ranked[j].Stargazers
	})

	if len(ranked) > topRepoCount {
		ranked = ranked[:topRepoCount]
	}

	top := make([]TopRepo, len(ranked))
	for i, repo := range ranked {
		top[i] = TopRepo{
			Name:     repo.Name,
			Stars:    repo.Stargazers,
			Forks:    repo.Forks,
			Language: repo.Language,
			RepoURL:  repo.HTMLURL,
		}
	}
	return top
}
