package bootstrap

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aspain/sweatyboot/pkg/pathresolve"
	"github.com/aspain/sweatyboot/pkg/repo"
)

// DefaultConfigPath is probed when no --config flag is given; it is fine
// for it not to exist.
const DefaultConfigPath = "sweatyboot.toml"

var (
	defaultUpstreamRepo = "aspain/git-sweaty"
	defaultSetupScript  = "scripts/setup_auth.py"
	defaultInterpreter  = "python3"
	defaultRawBaseURL   = "https://raw.githubusercontent.com"
)

// Config is the configuration struct for the bootstrap flow. It can be
// created with ParseConfig.
type Config struct {
	// UpstreamRepo is the canonical OWNER/NAME being contributed to
	UpstreamRepo string `toml:"upstream_repository"`

	// ForkRepo is an explicit OWNER/NAME fork override, skipping discovery
	ForkRepo string `toml:"fork_repository"`

	// SetupScript is the script path relative to a clone root
	SetupScript string `toml:"setup_script"`

	// Interpreter runs the setup script
	Interpreter string `toml:"interpreter"`

	// RawBaseURL is the raw-content host used by online mode
	RawBaseURL string `toml:"raw_base_url"`

	// WSLMountRoot is where WSL mounts host drives
	WSLMountRoot string `toml:"wsl_mount_root"`

	// WSLUsersRoots are the user-home roots scanned for existing clones
	WSLUsersRoots []string `toml:"wsl_users_roots"`
}

// ParseConfig builds a Config from a toml file layered under environment
// overrides. A missing file is only an error when the operator asked for a
// non-default path explicitly.
func ParseConfig(configPath string) (*Config, error) {
	var config Config

	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, &config); err != nil {
			return nil, err
		}
	} else if configPath != DefaultConfigPath {
		return nil, fmt.Errorf("config file %s does not exist", configPath)
	}

	if config.UpstreamRepo == "" {
		config.UpstreamRepo = defaultUpstreamRepo
	}
	if config.SetupScript == "" {
		config.SetupScript = defaultSetupScript
	}
	if config.Interpreter == "" {
		config.Interpreter = defaultInterpreter
	}
	if config.RawBaseURL == "" {
		config.RawBaseURL = defaultRawBaseURL
	}
	if config.WSLMountRoot == "" {
		config.WSLMountRoot = pathresolve.DefaultMountRoot
	}

	applyEnv(&config)

	if _, err := repo.ParseSlug(config.UpstreamRepo); err != nil {
		return nil, fmt.Errorf("invalid upstream repository: %w", err)
	}
	if config.ForkRepo != "" {
		if _, err := repo.ParseSlug(config.ForkRepo); err != nil {
			return nil, fmt.Errorf("invalid fork repository override: %w", err)
		}
	}

	return &config, nil
}

// applyEnv layers the environment overrides over file values.
func applyEnv(config *Config) {
	if v := os.Getenv("GIT_SWEATY_UPSTREAM_REPO"); v != "" {
		config.UpstreamRepo = v
	}
	if v := os.Getenv("GIT_SWEATY_FORK_REPO"); v != "" {
		config.ForkRepo = v
	}
	if v := os.Getenv("GIT_SWEATY_WSL_MOUNT_PREFIX"); v != "" {
		config.WSLMountRoot = v
	}
	if v := os.Getenv("GIT_SWEATY_WSL_USERS_ROOTS"); v != "" {
		config.WSLUsersRoots = strings.Split(v, ":")
	}
}

// Upstream returns the parsed upstream slug. ParseConfig already validated
// it.
func (c *Config) Upstream() repo.Slug {
	slug, _ := repo.ParseSlug(c.UpstreamRepo)
	return slug
}
