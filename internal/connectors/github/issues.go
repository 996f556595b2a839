package github

import (
	"fmt"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// MIMETypeMarkdown is the content type of rendered tickets.
const MIMETypeMarkdown = "text/markdown"

// IssueFilename is the document file name for an issue.
func IssueFilename(owner, repo string, number int) string {
	return fmt.Sprintf("%s-%s-issue-%d.md", owner, repo, number)
}

// labelNames returns the issue's label names.
func labelNames(issue *gh.Issue) []string {
	labels := make([]string, len(issue.Labels))
	for i, l := range issue.Labels {
		labels[i] = l.GetName()
	}
	return labels
}

// RenderIssue renders an issue and its comments as markdown.
func RenderIssue(owner, repo string, issue *gh.Issue, comments []*gh.IssueComment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", issue.GetTitle())
	fmt.Fprintf(&b, "- Repository: %s/%s\n", owner, repo)
	fmt.Fprintf(&b, "- Issue: #%d\n", issue.GetNumber())
	fmt.Fprintf(&b, "- State: %s\n", issue.GetState())
	fmt.Fprintf(&b, "- Author: %s\n", issue.GetUser().GetLogin())
	if labels := labelNames(issue); len(labels) > 0 {
		fmt.Fprintf(&b, "- Labels: %s\n", strings.Join(labels, ", "))
	}
	if len(issue.Assignees) > 0 {
		assignees := make([]string, len(issue.Assignees))
		for i, a := range issue.Assignees {
			assignees[i] = a.GetLogin()
		}
		fmt.Fprintf(&b, "- Assignees: %s\n", strings.Join(assignees, ", "))
	}
	if issue.Milestone != nil {
		fmt.Fprintf(&b, "- Milestone: %s\n", issue.Milestone.GetTitle())
	}
	fmt.Fprintf(&b, "- Created: %s\n", issue.GetCreatedAt().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Updated: %s\n", issue.GetUpdatedAt().Format(time.RFC3339))

	if body := strings.TrimSpace(issue.GetBody()); body != "" {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}

	if len(comments) > 0 {
		b.WriteString("\n## Comments\n")
		for _, c := range comments {
			fmt.Fprintf(&b, "\n### %s (%s)\n\n", c.GetUser().GetLogin(), c.GetCreatedAt().Format(time.RFC3339))
			b.WriteString(strings.TrimSpace(c.GetBody()))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// IssueToRawDocument converts an issue into a candidate document.
func IssueToRawDocument(sourceID, owner, repo string, issue *gh.Issue, comments []*gh.IssueComment) domain.RawDocument {
	content := []byte(RenderIssue(owner, repo, issue, comments))
	doc := domain.NewRawDocument(
		domain.ConnectorGitHub,
		sourceID,
		IssueFilename(owner, repo, issue.GetNumber()),
		content,
		MIMETypeMarkdown,
		issue.GetHTMLURL(),
	)
	doc.UploadedAt = issue.GetUpdatedAt().Time
	doc.Metadata["owner"] = owner
	doc.Metadata["repo"] = repo
	doc.Metadata["number"] = issue.GetNumber()
	doc.Metadata["title"] = issue.GetTitle()
	doc.Metadata["state"] = issue.GetState()
	doc.Metadata["labels"] = labelNames(issue)
	doc.Metadata["updated_at"] = issue.GetUpdatedAt().Format(time.RFC3339)
	return doc
}
