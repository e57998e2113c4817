package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"basegraph.app/specflow/common"
	"basegraph.app/specflow/common/logger"
	"basegraph.app/specflow/internal/model"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type GitLabConfig struct {
	Token     string
	BaseURL   string // Instance URL, e.g. https://gitlab.example.com. Empty = gitlab.com
	ProjectID string // Numeric ID or "group/project" path
}

type gitLabPublisher struct {
	client    *gitlab.Client
	projectID string
}

func NewGitLabPublisher(cfg GitLabConfig) (Publisher, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab token is required")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("gitlab project is required")
	}

	client, err := newClient(cfg.BaseURL, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &gitLabPublisher{client: client, projectID: cfg.ProjectID}, nil
}

func newClient(baseURL, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
}

// Publish creates one issue per ticket, in order. It stops at the first
// failure and returns the issues created before it.
func (p *gitLabPublisher) Publish(ctx context.Context, tickets []model.Ticket) ([]PublishedIssue, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "specflow.tracker.gitlab"})

	published := make([]PublishedIssue, 0, len(tickets))
	for i, t := range tickets {
		issue, _, err := p.client.Issues.CreateIssue(p.projectID, issueOptions(t), gitlab.WithContext(ctx))
		if err != nil {
			return published, fmt.Errorf("creating gitlab issue %d/%d %q: %w", i+1, len(tickets), t.Title, err)
		}

		slog.InfoContext(ctx, "gitlab issue created",
			"project", p.projectID,
			"iid", issue.IID,
			"title", t.Title)

		published = append(published, PublishedIssue{
			Title:  issue.Title,
			IID:    int64(issue.IID),
			WebURL: issue.WebURL,
		})
	}
	return published, nil
}

func issueOptions(t model.Ticket) *gitlab.CreateIssueOptions {
	typeLabel, err := common.Slugify(string(t.Type), string(model.WorkItemTypeUserStory))
	if err != nil {
		typeLabel = "user-story"
	}
	labels := gitlab.LabelOptions{
		"type::" + typeLabel,
		"priority::" + string(t.Priority),
	}
	return &gitlab.CreateIssueOptions{
		Title:       gitlab.Ptr(t.Title),
		Description: gitlab.Ptr(issueDescription(t)),
		Labels:      &labels,
	}
}

func issueDescription(t model.Ticket) string {
	var b strings.Builder
	b.WriteString(t.Description)
	if t.AcceptanceCriteria != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("## Acceptance Criteria\n\n")
		b.WriteString(string(t.AcceptanceCriteria))
	}
	return b.String()
}
