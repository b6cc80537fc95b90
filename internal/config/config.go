// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// DefaultPath is the configuration file read when no --config flag is given.
const DefaultPath = "config.json"

// Config holds all configuration parameters for the application.
type Config struct {
	// RepositoryRoot is the folder holding the local clones, one per project.
	RepositoryRoot string
	Jira           JiraConfig
	Git            GitConfig
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	Host       string
	Username   string
	Password   string
	Project    string
	Statuses   []string
	MaxResults int
}

// GitConfig holds git specific configuration.
type GitConfig struct {
	MainBranch string
	Remote     string

	// Username and Token are only used for HTTP(S) remotes.
	Username string
	Token    string
}

// LoadConfig reads the configuration document at path. Environment variables
// override values from the file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("jira.statuses", []string{"To Do", "In Progress"})
	v.SetDefault("jira.maxResults", 10)
	v.SetDefault("git.mainBranch", "master")
	v.SetDefault("git.remote", "origin")

	// Map specific environment variables
	v.BindEnv("repositoryRoot", "REPOSITORY_ROOT")
	v.BindEnv("jira.host", "JIRA_URL")
	v.BindEnv("jira.username", "JIRA_USERNAME")
	v.BindEnv("jira.password", "JIRA_TOKEN")
	v.BindEnv("jira.project", "JIRA_PROJECT")
	v.BindEnv("git.token", "GIT_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	config := &Config{
		RepositoryRoot: v.GetString("repositoryRoot"),
		Jira: JiraConfig{
			Host:       v.GetString("jira.host"),
			Username:   v.GetString("jira.username"),
			Password:   v.GetString("jira.password"),
			Project:    v.GetString("jira.project"),
			Statuses:   v.GetStringSlice("jira.statuses"),
			MaxResults: v.GetInt("jira.maxResults"),
		},
		Git: GitConfig{
			MainBranch: v.GetString("git.mainBranch"),
			Remote:     v.GetString("git.remote"),
			Username:   v.GetString("git.username"),
			Token:      v.GetString("git.token"),
		},
	}

	if err := Validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate ensures that all required configuration values are provided.
func Validate(config *Config) error {
	var missing []string

	if config.RepositoryRoot == "" {
		missing = append(missing, "repositoryRoot")
	}
	missing = append(missing, missingJiraKeys(config.Jira)...)
	if config.Git.MainBranch == "" {
		missing = append(missing, "git.mainBranch")
	}

	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(cfg JiraConfig) error {
	if missing := missingJiraKeys(cfg); len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	return nil
}

func missingJiraKeys(cfg JiraConfig) []string {
	var missing []string

	if cfg.Host == "" {
		missing = append(missing, "jira.host")
	}
	if cfg.Username == "" {
		missing = append(missing, "jira.username")
	}
	if cfg.Password == "" {
		missing = append(missing, "jira.password")
	}
	if cfg.Project == "" {
		missing = append(missing, "jira.project")
	}
	if cfg.MaxResults <= 0 {
		missing = append(missing, "jira.maxResults")
	}

	return missing
}

// MissingError lists configuration keys that are absent or invalid.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing required configuration values: %v", e.Keys)
}
