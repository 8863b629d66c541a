package chat

import (
	"fmt"
	"strings"
)

// CandidateRecord is one analyzed candidate supplied by the caller. The engine
// only reads these; ranking state is recomputed per request and never written
// back.
type CandidateRecord struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	GitHubURL  string `json:"github_url,omitempty"`
	Skills     string `json:"skills,omitempty"`
	Experience string `json:"experience,omitempty"`
	Education  string `json:"education,omitempty"`
	Projects   string `json:"projects,omitempty"`
	Summary    string `json:"summary,omitempty"`

	MatchingScore   *float64 `json:"matching_score,omitempty"`
	VibeCodingScore *float64 `json:"vibe_coding_score,omitempty"`

	// Embedding is the candidate's precomputed vector; empty until backfilled.
	Embedding []float32 `json:"embedding,omitempty"`
}

// render produces the fixed context block for one candidate, omitting absent
// fields so the model is not fed empty labels.
func (c CandidateRecord) render(index int) string {
	var b strings.Builder

	name := strings.TrimSpace(c.Name)
	if name == "" {
		name = fmt.Sprintf("Candidate #%d", c.ID)
	}
	fmt.Fprintf(&b, "Candidate %d: %s\n", index, name)

	var contacts []string
	if c.Email != "" {
		contacts = append(contacts, "email "+c.Email)
	}
	if c.Phone != "" {
		contacts = append(contacts, "phone "+c.Phone)
	}
	if c.GitHubURL != "" {
		contacts = append(contacts, "github "+c.GitHubURL)
	}
	if len(contacts) > 0 {
		fmt.Fprintf(&b, "Contact: %s\n", strings.Join(contacts, " | "))
	}

	appendField(&b, "Skills", c.Skills)
	appendField(&b, "Experience", c.Experience)
	appendField(&b, "Education", c.Education)
	appendField(&b, "Projects", c.Projects)

	var scores []string
	if c.MatchingScore != nil {
		scores = append(scores, fmt.Sprintf("matching %.0f", *c.MatchingScore))
	}
	if c.VibeCodingScore != nil {
		scores = append(scores, fmt.Sprintf("vibe coding %.0f", *c.VibeCodingScore))
	}
	if len(scores) > 0 {
		fmt.Fprintf(&b, "Scores: %s\n", strings.Join(scores, ", "))
	}

	appendField(&b, "Summary", c.Summary)

	return strings.TrimRight(b.String(), "\n")
}

func appendField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
