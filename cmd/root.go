// Package cmd provides the command-line interface for the jbranch CLI tool.
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/danielolaszy/jbranch/internal/config"
	"github.com/danielolaszy/jbranch/internal/git"
	"github.com/danielolaszy/jbranch/internal/jira"
	"github.com/danielolaszy/jbranch/internal/logging"
	"github.com/danielolaszy/jbranch/internal/project"
	"github.com/danielolaszy/jbranch/internal/prompt"
	"github.com/danielolaszy/jbranch/internal/workflow"
)

// Backends used by the command. Tests swap them for fakes.
var (
	projectFs = afero.NewOsFs()

	openRepository = func(path string, cfg config.GitConfig) (workflow.Repository, error) {
		repo, err := git.Open(path, git.Options{Username: cfg.Username, Token: cfg.Token})
		if err != nil {
			return nil, err
		}
		return repo, nil
	}

	newTracker = func(cfg config.JiraConfig) (workflow.Tracker, error) {
		client, err := jira.NewClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
)

// newRootCmd builds the jbranch command.
func newRootCmd() *cobra.Command {
	var logFile io.Closer

	rootCmd := &cobra.Command{
		Use:   "jbranch",
		Short: "Create a git branch for a JIRA ticket",
		Long: `jbranch creates a git branch named after a JIRA ticket assigned to you.

It finds the local clone of the project under the configured repository root,
picks the ticket (the one given with --issue, or one chosen from your open
tickets), updates the main branch and creates and checks out a branch named
<KEY>-<ticket-summary>.

Example:
  jbranch -p backend -i NOVA-123
  jbranch -p backend`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("log-file")
			if err != nil || path == "" {
				return err
			}

			f, err := logging.OpenLogFile(path)
			if err != nil {
				return err
			}
			logFile = f
			logging.SetupLogger(io.MultiWriter(cmd.ErrOrStderr(), f), logging.LevelFromEnv())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logFile == nil {
				return nil
			}
			return logFile.Close()
		},
		RunE: runBranch,
	}

	rootCmd.Flags().StringP("issue", "i", "", "JIRA issue key (e.g., 'NOVA-123'); prompts for one when omitted")
	rootCmd.Flags().StringP("project", "p", "", "Project name, matched against the folders in the repository root")
	rootCmd.MarkFlagRequired("project")

	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Configuration file")
	rootCmd.PersistentFlags().String("log-file", "", "Also append log records to this file")

	return rootCmd
}

// runBranch locates the project clone, resolves the ticket and creates its branch.
func runBranch(cmd *cobra.Command, args []string) error {
	issueKey, err := cmd.Flags().GetString("issue")
	if err != nil {
		return err
	}
	projectName, err := cmd.Flags().GetString("project")
	if err != nil {
		return err
	}
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logging.Info("starting branch creation",
		"project", projectName,
		"issue", issueKey,
		"repository_root", cfg.RepositoryRoot)

	folder, err := project.Resolve(&afero.Afero{Fs: projectFs}, cfg.RepositoryRoot, projectName)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Project folder found: %s\n", folder)

	repo, err := openRepository(folder, cfg.Git)
	if err != nil {
		return err
	}

	tracker, err := newTracker(cfg.Jira)
	if err != nil {
		return err
	}

	runner := &workflow.Runner{
		Repo:    repo,
		Tracker: tracker,
		Picker:  prompt.New(cmd.InOrStdin(), out),
		Out:     out,
	}

	result, err := runner.Run(workflow.Options{
		IssueKey:   issueKey,
		MainBranch: cfg.Git.MainBranch,
		Remote:     cfg.Git.Remote,
		Search: workflow.SearchCriteria{
			Project:    cfg.Jira.Project,
			Assignee:   cfg.Jira.Username,
			Statuses:   cfg.Jira.Statuses,
			MaxResults: cfg.Jira.MaxResults,
		},
	})
	if err != nil {
		return err
	}

	logging.Info("branch created",
		"issue", result.IssueKey,
		"branch", result.Branch,
		"status", result.Status,
		"repository", folder)
	return nil
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return newRootCmd().Execute()
}

// ExitCode maps the error returned by Execute to the process exit status.
// Cancelling the ticket selection is a successful exit.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, prompt.ErrQuit) {
		return 0
	}
	return 1
}

// Report writes err to w as a single line and returns the exit status for it.
// Nothing is written for a successful exit.
func Report(w io.Writer, err error) int {
	code := ExitCode(err)
	if code != 0 {
		logging.Debug("command execution failed", "error", err)
		fmt.Fprintln(w, err)
	}
	return code
}
