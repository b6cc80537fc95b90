// Package naming derives git branch names from JIRA tickets.
package naming

import (
	"regexp"
	"strings"
)

// separatorRun matches runs of characters git rejects or mangles in ref names.
var separatorRun = regexp.MustCompile(`[ ~^?*:\[\]]+`)

// BuildBranchName returns "<KEY>-<slug>" for a ticket. The slug is the ticket title
// with any leading "[Tag]" prefix removed, forbidden characters collapsed to single
// hyphens, and lower-cased.
//
// Only the text after the first ']' of the trimmed title is used, so a title such as
// "  [UI] Fix" yields the same slug as "[UI] Fix".
func BuildBranchName(issueKey, issueTitle string) string {
	title := strings.TrimSpace(issueTitle)
	if idx := strings.Index(title, "]"); idx != -1 {
		title = title[idx+1:]
	}

	title = strings.TrimSpace(separatorRun.ReplaceAllString(title, " "))
	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))

	return strings.ToUpper(issueKey) + "-" + slug
}
