// Package git wraps go-git with the few repository operations needed to cut a
// ticket branch from a freshly pulled main branch.
package git

import (
	"errors"
	"fmt"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/danielolaszy/jbranch/internal/logging"
)

var (
	// ErrNotRepository is returned by Open for folders that are not a git
	// repository with a working tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrBranchExists is returned when the branch to create is already present.
	ErrBranchExists = errors.New("branch already exists")
)

// Options configures remote access. Username and Token are only sent to
// HTTP(S) remotes; SSH remotes authenticate through the SSH agent.
type Options struct {
	Username string
	Token    string
}

// Repository is an opened, non-bare git repository.
type Repository struct {
	repo *gogit.Repository
	path string
	opts Options
}

// Open opens the repository at path. Bare repositories are rejected with
// ErrNotRepository since there is no working tree to check branches out into.
func Open(path string, opts Options) (*Repository, error) {
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gogit.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, path)
		}
		return nil, fmt.Errorf("failed to open repository %s: %w", path, err)
	}

	r := &Repository{repo: repo, path: path, opts: opts}
	if r.IsBare() {
		return nil, fmt.Errorf("%w: %s is a bare repository", ErrNotRepository, path)
	}

	logging.Debug("opened repository", "path", path)
	return r, nil
}

// Path returns the folder the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// IsBare reports whether the repository has no working tree.
func (r *Repository) IsBare() bool {
	_, err := r.repo.Worktree()
	return errors.Is(err, gogit.ErrIsBareRepository)
}

// ActiveBranch returns the short name of the checked out branch, or an empty
// string when HEAD is detached.
func (r *Repository) ActiveBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", nil
	}
	return head.Name().Short(), nil
}

// Checkout switches the working tree to an existing local branch.
func (r *Repository) Checkout(branch string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		return fmt.Errorf("failed to checkout %s: %w", branch, err)
	}

	logging.Debug("checked out branch", "branch", branch)
	return nil
}

// Pull fetches branch from remote and merges it into the current branch. Being
// already up to date is not an error.
func (r *Repository) Pull(remote, branch string) error {
	auth, err := r.authFor(remote)
	if err != nil {
		return err
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = wt.Pull(&gogit.PullOptions{
		RemoteName:    remote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		logging.Debug("branch already up to date", "remote", remote, "branch", branch)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to pull %s from %s: %w", branch, remote, err)
	}

	logging.Debug("pulled branch", "remote", remote, "branch", branch)
	return nil
}

// authFor returns basic auth for HTTP(S) remotes when a token is configured.
func (r *Repository) authFor(remote string) (transport.AuthMethod, error) {
	rem, err := r.repo.Remote(remote)
	if err != nil {
		return nil, fmt.Errorf("failed to find remote %s: %w", remote, err)
	}

	if r.opts.Token == "" {
		return nil, nil
	}
	urls := rem.Config().URLs
	if len(urls) == 0 || !strings.HasPrefix(urls[0], "http") {
		return nil, nil
	}

	username := r.opts.Username
	if username == "" {
		username = "git"
	}
	logging.Debug("using http auth for remote",
		"remote", remote,
		"username", username,
		"token", logging.MaskSensitive(r.opts.Token))

	return &http.BasicAuth{Username: username, Password: r.opts.Token}, nil
}

// CreateBranch creates a local branch pointing at HEAD without checking it out.
func (r *Repository) CreateBranch(branch string) error {
	exists, err := r.HasBranch(branch)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrBranchExists, branch)
	}

	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(branch), head.Hash())
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}

	logging.Debug("created branch", "branch", branch, "commit", head.Hash().String())
	return nil
}

// HasBranch reports whether a local branch with the given name exists.
func (r *Repository) HasBranch(branch string) (bool, error) {
	_, err := r.repo.Reference(plumbing.NewBranchReferenceName(branch), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up branch %s: %w", branch, err)
	}
	return true, nil
}

// Branches returns the short names of all local branches.
func (r *Repository) Branches() ([]string, error) {
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		names = append(names, ref.Name().Short())
		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}
	return names, nil
}
