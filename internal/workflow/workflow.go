// Package workflow turns a JIRA ticket into a freshly created git branch: it
// resolves which ticket to use, names the branch and drives the repository
// through checkout, pull and branch creation.
package workflow

import (
	"errors"
	"fmt"
	"io"

	"github.com/danielolaszy/jbranch/internal/git"
	"github.com/danielolaszy/jbranch/internal/logging"
	"github.com/danielolaszy/jbranch/internal/naming"
	"github.com/danielolaszy/jbranch/pkg/models"
)

// ErrNoIssues is returned when no explicit key was given and the search
// found nothing to choose from.
var ErrNoIssues = errors.New("no issues found")

// Repository is the version control surface the workflow needs.
type Repository interface {
	ActiveBranch() (string, error)
	Checkout(branch string) error
	Pull(remote, branch string) error
	HasBranch(branch string) (bool, error)
	CreateBranch(branch string) error
}

// Tracker is the issue tracker surface the workflow needs.
type Tracker interface {
	SearchAssigned(project, assignee string, statuses []string, maxResults int) ([]models.JiraTicket, error)
	GetTicket(key string) (models.JiraTicket, error)
}

// Picker asks the user to choose one of several tickets and returns its key.
type Picker interface {
	SelectTicket(tickets []models.JiraTicket) (string, error)
}

// SearchCriteria selects the tickets offered when no key is given.
type SearchCriteria struct {
	Project    string
	Assignee   string
	Statuses   []string
	MaxResults int
}

// Options configures a single Run.
type Options struct {
	// IssueKey skips the search when set.
	IssueKey   string
	MainBranch string
	Remote     string
	Search     SearchCriteria
}

// Result describes the branch a Run created.
type Result struct {
	IssueKey string
	Branch   string

	// Status is the ticket's workflow status when the branch was cut.
	Status string
}

// Runner wires the collaborators of a Run together. Progress messages go to Out.
type Runner struct {
	Repo    Repository
	Tracker Tracker
	Picker  Picker
	Out     io.Writer
}

// ResolveIssueKey returns explicitKey when set. Otherwise it searches for
// tickets matching criteria and lets picker choose among them.
//
// Known quirk: a single search result is not auto-selected, it still goes
// through the picker. Only an explicit key skips the prompt.
func ResolveIssueKey(tracker Tracker, picker Picker, explicitKey string, criteria SearchCriteria, out io.Writer) (string, error) {
	if explicitKey != "" {
		logging.Debug("using explicit issue key", "issue", explicitKey)
		return explicitKey, nil
	}

	fmt.Fprintln(out, "No issue key provided, trying to find the right issue ...")

	tickets, err := tracker.SearchAssigned(criteria.Project, criteria.Assignee, criteria.Statuses, criteria.MaxResults)
	if err != nil {
		return "", err
	}

	logging.Info("issue search finished", "project", criteria.Project, "count", len(tickets))

	if len(tickets) == 0 {
		return "", ErrNoIssues
	}

	return picker.SelectTicket(tickets)
}

// Run resolves the ticket, derives the branch name, syncs the main branch and
// creates and checks out the new branch.
func (r *Runner) Run(opts Options) (Result, error) {
	key, err := ResolveIssueKey(r.Tracker, r.Picker, opts.IssueKey, opts.Search, r.Out)
	if err != nil {
		return Result{}, err
	}

	ticket, err := r.Tracker.GetTicket(key)
	if err != nil {
		return Result{}, err
	}

	branch := naming.BuildBranchName(key, ticket.Title)
	logging.Info("derived branch name", "issue", key, "title", ticket.Title, "status", ticket.Status, "branch", branch)

	exists, err := r.Repo.HasBranch(branch)
	if err != nil {
		return Result{}, err
	}
	// Checked before the main branch sync so the working tree is left alone.
	if exists {
		return Result{}, fmt.Errorf("%w: %s", git.ErrBranchExists, branch)
	}

	if err := r.syncMainBranch(opts.MainBranch, opts.Remote); err != nil {
		return Result{}, err
	}

	fmt.Fprintln(r.Out, "Creating new branch...")
	if err := r.Repo.CreateBranch(branch); err != nil {
		return Result{}, err
	}
	fmt.Fprintf(r.Out, "New branch [%s] for jira task [%s] created\n", branch, key)

	if err := r.Repo.Checkout(branch); err != nil {
		return Result{}, err
	}

	return Result{IssueKey: key, Branch: branch, Status: ticket.Status}, nil
}

// syncMainBranch checks out the main branch when needed and pulls it.
func (r *Runner) syncMainBranch(mainBranch, remote string) error {
	active, err := r.Repo.ActiveBranch()
	if err != nil {
		return err
	}

	if active != mainBranch {
		fmt.Fprintf(r.Out, "Checking out %s branch...\n", mainBranch)
		if err := r.Repo.Checkout(mainBranch); err != nil {
			return err
		}
	}
	fmt.Fprintf(r.Out, "You are on %s branch\n", mainBranch)

	fmt.Fprintf(r.Out, "Pulling %s branch...\n", mainBranch)
	return r.Repo.Pull(remote, mainBranch)
}
