// Package bootstrap drives the contributor environment setup: it finds or
// provisions a fork of the upstream project, resolves or creates a local
// clone, wires remotes and hands off to the project setup script.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/rs/zerolog/log"

	"github.com/aspain/sweatyboot/pkg/clonedir"
	"github.com/aspain/sweatyboot/pkg/execx"
	"github.com/aspain/sweatyboot/pkg/gitservice"
	ghsvc "github.com/aspain/sweatyboot/pkg/gitservice/github"
	"github.com/aspain/sweatyboot/pkg/pathresolve"
	"github.com/aspain/sweatyboot/pkg/prompt"
	"github.com/aspain/sweatyboot/pkg/repo"
)

// Orchestrator runs the bootstrap decision tree. All state is local to a
// single run; nothing survives the process.
type Orchestrator struct {
	config   *Config
	upstream repo.Slug

	prompt     *prompt.Prompter
	runner     execx.Runner
	fs         billy.Filesystem
	resolver   *pathresolve.Resolver
	validator  *clonedir.Validator
	scanner    *clonedir.Scanner
	httpClient *http.Client

	// service is lazily established; newService builds the real client
	// unless tests inject one via Options.Service.
	service    gitservice.Service
	newService func(ctx context.Context, token string) gitservice.Service

	args     []string
	tempRoot string
}

// Options configures an Orchestrator. Zero fields get production defaults.
type Options struct {
	Config     *Config
	Prompt     *prompt.Prompter
	Runner     execx.Runner
	Fs         billy.Filesystem
	Resolver   *pathresolve.Resolver
	Service    gitservice.Service
	HTTPClient *http.Client

	// NewService overrides how the platform client is built from a token.
	NewService func(ctx context.Context, token string) gitservice.Service

	// Args are passed through verbatim to the setup script.
	Args []string

	// TempRoot overrides where online mode places its scratch directory.
	TempRoot string
}

// New builds an Orchestrator from opts.
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}

	o := &Orchestrator{
		config:     opts.Config,
		upstream:   opts.Config.Upstream(),
		prompt:     opts.Prompt,
		runner:     opts.Runner,
		fs:         opts.Fs,
		resolver:   opts.Resolver,
		service:    opts.Service,
		httpClient: opts.HTTPClient,
		args:       opts.Args,
		tempRoot:   opts.TempRoot,
	}

	if o.prompt == nil {
		o.prompt = prompt.New(os.Stdin, os.Stdout)
	}
	if o.runner == nil {
		o.runner = execx.NewRunner()
	}
	if o.fs == nil {
		o.fs = osfs.New("/")
	}
	if o.resolver == nil {
		o.resolver = pathresolve.Detect(o.config.WSLMountRoot)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	o.newService = opts.NewService
	if o.newService == nil {
		o.newService = func(ctx context.Context, token string) gitservice.Service {
			return ghsvc.NewWithToken(ctx, token)
		}
	}

	o.validator = clonedir.NewValidator(o.fs, o.config.SetupScript, clonedir.GitConfirm(o.runner))
	o.scanner = clonedir.NewScanner(o.fs, o.validator, o.config.WSLUsersRoots)

	return o, nil
}

// Run walks the decision tree. It returns nil on graceful completion or
// operator cancellation; online mode surfaces the setup script's exit
// status as an *execx.ExitStatusError.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.checkTools(); err != nil {
		return err
	}

	if root, ok := o.currentWorktreeRoot(); ok && o.validator.IsCompatible(root) {
		o.prompt.Say("Detected a compatible clone at %s.", root)
		return o.offerSetup(ctx, root)
	}

	mode := o.prompt.Choice("Choose setup mode:", []string{
		"local  - clone the repository and run setup here",
		"online - run setup against a GitHub repository, no local clone",
	}, 0)
	if mode == 1 {
		return o.runOnline(ctx)
	}
	return o.runLocal(ctx)
}

func (o *Orchestrator) checkTools() error {
	for _, tool := range []string{"git", "gh", o.config.Interpreter} {
		if err := o.runner.LookPath(tool); err != nil {
			return fmt.Errorf("required tool %q not found on PATH", tool)
		}
	}
	return nil
}

// currentWorktreeRoot reports the toplevel of the working tree containing
// the current directory, if any.
func (o *Orchestrator) currentWorktreeRoot() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}
	r, err := git.PlainOpenWithOptions(cwd, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	wt, err := r.Worktree()
	if err != nil {
		return "", false
	}
	return wt.Filesystem.Root(), true
}

// offerSetup asks whether to run the setup script in dir now, printing the
// resume command otherwise. A non-zero script status is advisory here;
// only online mode propagates it.
func (o *Orchestrator) offerSetup(ctx context.Context, dir string) error {
	if !o.prompt.YesNo("Run the setup script now?", true) {
		o.prompt.Say("Resume later with: cd %s && %s %s", dir, o.config.Interpreter, o.config.SetupScript)
		return nil
	}

	code, err := o.runSetup(ctx, dir, nil)
	if err != nil {
		return fmt.Errorf("failed to run the setup script: %w", err)
	}
	if code != 0 {
		log.Warn().Int("status", code).Msg("setup script exited with a non-zero status")
	}
	return nil
}

// runSetup executes the setup script in dir with extra arguments followed
// by the operator passthrough arguments.
func (o *Orchestrator) runSetup(ctx context.Context, dir string, extra []string) (int, error) {
	args := append([]string{o.config.SetupScript}, extra...)
	args = append(args, o.args...)
	return o.runner.RunInteractive(ctx, dir, o.config.Interpreter, args...)
}

// configureRemotes points origin at the fork when one is known (the
// upstream otherwise) and keeps an upstream remote at the canonical
// repository.
func (o *Orchestrator) configureRemotes(dir string, fork repo.Slug, haveFork bool) error {
	r, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}

	originURL := o.upstream.CloneURL()
	if haveFork {
		originURL = fork.CloneURL()
	}

	if err := setRemote(r, "origin", originURL); err != nil {
		return fmt.Errorf("failed to set origin remote: %w", err)
	}
	if haveFork {
		if err := setRemote(r, "upstream", o.upstream.CloneURL()); err != nil {
			return fmt.Errorf("failed to set upstream remote: %w", err)
		}
	}

	log.Debug().Str("dir", dir).Str("origin", originURL).Msg("remotes configured")
	return nil
}

func setRemote(r *git.Repository, name, url string) error {
	if _, err := r.Remote(name); err == nil {
		if err := r.DeleteRemote(name); err != nil {
			return err
		}
	}
	_, err := r.CreateRemote(&gitconfig.RemoteConfig{
		Name: name,
		URLs: []string{url},
	})
	return err
}
