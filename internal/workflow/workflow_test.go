package workflow

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/danielolaszy/jbranch/internal/git"
	"github.com/danielolaszy/jbranch/internal/prompt"
	"github.com/danielolaszy/jbranch/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTracker implements Tracker for testing
type MockTracker struct {
	SearchAssignedFunc func(string, string, []string, int) ([]models.JiraTicket, error)
	GetTicketFunc      func(string) (models.JiraTicket, error)
	searches           int
}

func (m *MockTracker) SearchAssigned(project, assignee string, statuses []string, maxResults int) ([]models.JiraTicket, error) {
	m.searches++
	if m.SearchAssignedFunc != nil {
		return m.SearchAssignedFunc(project, assignee, statuses, maxResults)
	}
	return nil, errors.New("SearchAssigned not implemented")
}

func (m *MockTracker) GetTicket(key string) (models.JiraTicket, error) {
	if m.GetTicketFunc != nil {
		return m.GetTicketFunc(key)
	}
	return models.JiraTicket{}, errors.New("GetTicket not implemented")
}

// MockPicker implements Picker for testing
type MockPicker struct {
	SelectTicketFunc func([]models.JiraTicket) (string, error)
	offered          []models.JiraTicket
	calls            int
}

func (m *MockPicker) SelectTicket(tickets []models.JiraTicket) (string, error) {
	m.calls++
	m.offered = tickets
	if m.SelectTicketFunc != nil {
		return m.SelectTicketFunc(tickets)
	}
	return "", errors.New("SelectTicket not implemented")
}

// MockRepository records the operations applied to it.
type MockRepository struct {
	active   string
	branches map[string]bool
	ops      []string
	failOn   map[string]error
}

func newMockRepository(active string) *MockRepository {
	return &MockRepository{
		active:   active,
		branches: map[string]bool{"master": true, active: true},
		failOn:   map[string]error{},
	}
}

func (m *MockRepository) ActiveBranch() (string, error) {
	return m.active, m.failOn["active"]
}

func (m *MockRepository) Checkout(branch string) error {
	m.ops = append(m.ops, "checkout "+branch)
	if err := m.failOn["checkout "+branch]; err != nil {
		return err
	}
	m.active = branch
	return nil
}

func (m *MockRepository) Pull(remote, branch string) error {
	m.ops = append(m.ops, "pull "+remote+" "+branch)
	return m.failOn["pull"]
}

func (m *MockRepository) HasBranch(branch string) (bool, error) {
	return m.branches[branch], nil
}

func (m *MockRepository) CreateBranch(branch string) error {
	m.ops = append(m.ops, "create "+branch)
	m.branches[branch] = true
	return nil
}

var searchResults = []models.JiraTicket{
	{Key: "NOVA-3", Title: "Third", Status: "To Do"},
	{Key: "NOVA-2", Title: "Refactor ~auth module?", Status: "In Progress"},
	{Key: "NOVA-1", Title: "[Backend] Fix login bug", Status: "To Do"},
}

func ticketsByKey(tickets []models.JiraTicket) func(string) (models.JiraTicket, error) {
	return func(key string) (models.JiraTicket, error) {
		for _, ticket := range tickets {
			if ticket.Key == key {
				return ticket, nil
			}
		}
		return models.JiraTicket{}, errors.New("issue does not exist")
	}
}

var criteria = SearchCriteria{
	Project:    "NOVA",
	Assignee:   "dev",
	Statuses:   []string{"To Do", "In Progress"},
	MaxResults: 10,
}

func TestResolveIssueKeyExplicitSkipsSearch(t *testing.T) {
	tracker := &MockTracker{}
	picker := &MockPicker{}

	key, err := ResolveIssueKey(tracker, picker, "NOVA-7", criteria, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "NOVA-7", key)
	assert.Zero(t, tracker.searches)
	assert.Zero(t, picker.calls)
}

func TestResolveIssueKeySearch(t *testing.T) {
	testCases := []struct {
		name        string
		results     []models.JiraTicket
		input       string
		want        string
		wantErr     error
		wantPrompts int
	}{
		{
			name:        "No results",
			results:     nil,
			wantErr:     ErrNoIssues,
			wantPrompts: 0,
		},
		{
			// one result is still offered to the user instead of being auto-selected
			name:        "Single result still prompts",
			results:     searchResults[:1],
			input:       "1\n",
			want:        "NOVA-3",
			wantPrompts: 1,
		},
		{
			name:        "Pick second of three",
			results:     searchResults,
			input:       "2\n",
			want:        "NOVA-2",
			wantPrompts: 1,
		},
		{
			name:        "Quit",
			results:     searchResults,
			input:       "q\n",
			wantErr:     prompt.ErrQuit,
			wantPrompts: 1,
		},
		{
			name:        "Out of range",
			results:     searchResults,
			input:       "9\n",
			wantErr:     prompt.ErrInvalidChoice,
			wantPrompts: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker := &MockTracker{
				SearchAssignedFunc: func(project, assignee string, statuses []string, maxResults int) ([]models.JiraTicket, error) {
					assert.Equal(t, "NOVA", project)
					assert.Equal(t, "dev", assignee)
					assert.Equal(t, []string{"To Do", "In Progress"}, statuses)
					assert.Equal(t, 10, maxResults)
					return tc.results, nil
				},
			}
			var out bytes.Buffer
			p := prompt.New(strings.NewReader(tc.input), &out)
			picker := &MockPicker{SelectTicketFunc: p.SelectTicket}

			key, err := ResolveIssueKey(tracker, picker, "", criteria, &out)
			assert.Equal(t, tc.wantPrompts, picker.calls)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, key)
			assert.Equal(t, tc.results, picker.offered)
		})
	}
}

func TestResolveIssueKeySearchError(t *testing.T) {
	searchErr := errors.New("jira unavailable")
	tracker := &MockTracker{
		SearchAssignedFunc: func(string, string, []string, int) ([]models.JiraTicket, error) {
			return nil, searchErr
		},
	}

	_, err := ResolveIssueKey(tracker, &MockPicker{}, "", criteria, &bytes.Buffer{})
	assert.ErrorIs(t, err, searchErr)
}

func newRunner(repo *MockRepository, input string, out *bytes.Buffer) *Runner {
	tracker := &MockTracker{
		SearchAssignedFunc: func(string, string, []string, int) ([]models.JiraTicket, error) {
			return searchResults, nil
		},
		GetTicketFunc: ticketsByKey(searchResults),
	}
	return &Runner{
		Repo:    repo,
		Tracker: tracker,
		Picker:  prompt.New(strings.NewReader(input), out),
		Out:     out,
	}
}

var runOptions = Options{MainBranch: "master", Remote: "origin", Search: criteria}

func TestRunFromFeatureBranch(t *testing.T) {
	repo := newMockRepository("feature/old")
	var out bytes.Buffer
	runner := newRunner(repo, "", &out)

	opts := runOptions
	opts.IssueKey = "NOVA-1"
	result, err := runner.Run(opts)
	require.NoError(t, err)

	assert.Equal(t, Result{IssueKey: "NOVA-1", Branch: "NOVA-1-fix-login-bug", Status: "To Do"}, result)
	assert.Equal(t, []string{
		"checkout master",
		"pull origin master",
		"create NOVA-1-fix-login-bug",
		"checkout NOVA-1-fix-login-bug",
	}, repo.ops)
	assert.Equal(t, "NOVA-1-fix-login-bug", repo.active)
	assert.Contains(t, out.String(), "New branch [NOVA-1-fix-login-bug] for jira task [NOVA-1] created")
}

func TestRunOnMainBranchSkipsCheckout(t *testing.T) {
	repo := newMockRepository("master")
	var out bytes.Buffer
	runner := newRunner(repo, "2\n", &out)

	result, err := runner.Run(runOptions)
	require.NoError(t, err)

	assert.Equal(t, "NOVA-2-refactor-auth-module", result.Branch)
	assert.Equal(t, "In Progress", result.Status)
	assert.Equal(t, []string{
		"pull origin master",
		"create NOVA-2-refactor-auth-module",
		"checkout NOVA-2-refactor-auth-module",
	}, repo.ops)
	assert.Contains(t, out.String(), "You are on master branch")
}

func TestRunQuitLeavesRepositoryUntouched(t *testing.T) {
	repo := newMockRepository("master")
	var out bytes.Buffer
	runner := newRunner(repo, "q\n", &out)

	_, err := runner.Run(runOptions)
	assert.ErrorIs(t, err, prompt.ErrQuit)
	assert.Empty(t, repo.ops)
}

func TestRunExistingBranch(t *testing.T) {
	repo := newMockRepository("master")
	repo.branches["NOVA-1-fix-login-bug"] = true
	var out bytes.Buffer
	runner := newRunner(repo, "", &out)

	opts := runOptions
	opts.IssueKey = "NOVA-1"
	_, err := runner.Run(opts)
	assert.ErrorIs(t, err, git.ErrBranchExists)
	assert.Empty(t, repo.ops)
}

func TestRunPropagatesBackendErrors(t *testing.T) {
	pullErr := errors.New("remote hung up")
	repo := newMockRepository("master")
	repo.failOn["pull"] = pullErr
	var out bytes.Buffer
	runner := newRunner(repo, "", &out)

	opts := runOptions
	opts.IssueKey = "NOVA-3"
	_, err := runner.Run(opts)
	assert.ErrorIs(t, err, pullErr)
	assert.Equal(t, []string{"pull origin master"}, repo.ops)
}

func TestRunUnknownIssue(t *testing.T) {
	repo := newMockRepository("master")
	var out bytes.Buffer
	runner := newRunner(repo, "", &out)

	opts := runOptions
	opts.IssueKey = "NOVA-404"
	_, err := runner.Run(opts)
	require.Error(t, err)
	assert.Empty(t, repo.ops)
}
