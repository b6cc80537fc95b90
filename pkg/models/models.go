// Package models defines data structures shared across the application.
package models

// JiraTicket represents a JIRA ticket with the properties needed to name a branch.
type JiraTicket struct {
	// Key is the full JIRA ticket identifier (e.g., "ABC-123")
	Key string

	// Title is the ticket's summary field
	Title string

	// Status is the workflow status name (e.g., "In Progress")
	Status string
}
