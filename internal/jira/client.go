// Package jira provides functionality for interacting with the JIRA API.
package jira

import (
	"fmt"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/jbranch/internal/config"
	"github.com/danielolaszy/jbranch/internal/logging"
	"github.com/danielolaszy/jbranch/pkg/models"
)

// Client handles interactions with the JIRA API
type Client struct {
	client *jira.Client
}

// NewClient creates a JIRA client authenticated with basic auth and verifies
// the credentials by fetching the current user.
func NewClient(cfg config.JiraConfig) (*Client, error) {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	logging.Debug("jira configuration",
		"host", cfg.Host,
		"username", cfg.Username,
		"password", logging.MaskSensitive(cfg.Password))

	tp := jira.BasicAuthTransport{
		Username: cfg.Username,
		Password: cfg.Password,
	}

	client, err := jira.NewClient(tp.Client(), cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	user, resp, err := client.User.GetSelf()
	if err != nil {
		logging.Debug("failed to authenticate with jira",
			"host", cfg.Host,
			"error", err,
			"status_code", statusCode(resp))
		return nil, fmt.Errorf("jira authentication failed: %w", err)
	}

	logging.Info("jira authentication successful",
		"user", user.DisplayName)

	return &Client{client: client}, nil
}

// BuildAssignedJQL returns the query selecting tickets of a project assigned to
// assignee in one of statuses, most recently touched first.
func BuildAssignedJQL(project, assignee string, statuses []string) string {
	quoted := make([]string, len(statuses))
	for i, status := range statuses {
		quoted[i] = quoteJQL(status)
	}

	jql := fmt.Sprintf("project = %s AND assignee = %s", quoteJQL(project), quoteJQL(assignee))
	if len(quoted) > 0 {
		jql += fmt.Sprintf(" AND status IN (%s)", strings.Join(quoted, ", "))
	}
	return jql + " ORDER BY updated DESC, created DESC"
}

func quoteJQL(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `\'`) + "'"
}

// SearchAssigned returns at most maxResults tickets of project assigned to
// assignee whose status is one of statuses.
func (c *Client) SearchAssigned(project, assignee string, statuses []string, maxResults int) ([]models.JiraTicket, error) {
	if c.client == nil {
		return nil, fmt.Errorf("JIRA client not initialized")
	}

	jql := BuildAssignedJQL(project, assignee, statuses)
	logging.Debug("searching jira issues", "jql", jql, "max_results", maxResults)

	issues, resp, err := c.client.Issue.Search(jql, &jira.SearchOptions{
		MaxResults: maxResults,
		Fields:     []string{"summary", "status"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search JIRA issues: %w (status: %d)", err, statusCode(resp))
	}

	tickets := make([]models.JiraTicket, 0, len(issues))
	for i := range issues {
		tickets = append(tickets, toTicket(&issues[i]))
	}

	logging.Debug("found jira issues", "count", len(tickets))
	return tickets, nil
}

// GetTicket fetches a single ticket by key.
func (c *Client) GetTicket(key string) (models.JiraTicket, error) {
	if c.client == nil {
		return models.JiraTicket{}, fmt.Errorf("JIRA client not initialized")
	}

	issue, resp, err := c.client.Issue.Get(key, &jira.GetQueryOptions{Fields: "summary,status"})
	if err != nil {
		return models.JiraTicket{}, fmt.Errorf("failed to get JIRA issue %s: %w (status: %d)", key, err, statusCode(resp))
	}

	return toTicket(issue), nil
}

func toTicket(issue *jira.Issue) models.JiraTicket {
	ticket := models.JiraTicket{Key: issue.Key}
	if issue.Fields != nil {
		ticket.Title = issue.Fields.Summary
		if issue.Fields.Status != nil {
			ticket.Status = issue.Fields.Status.Name
		}
	}
	return ticket
}

// statusCode tolerates the nil response go-jira returns on transport errors.
func statusCode(resp *jira.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return resp.StatusCode
}
