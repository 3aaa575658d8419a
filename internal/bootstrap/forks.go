package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/aspain/sweatyboot/pkg/gitservice"
	"github.com/aspain/sweatyboot/pkg/repo"
)

var (
	forkPollAttempts = 5
	forkPollDelay    = 2 * time.Second
)

// ensureService establishes an authenticated platform session, offering to
// run the gh login flow when none exists.
func (o *Orchestrator) ensureService(ctx context.Context) (gitservice.Service, string, error) {
	if o.service != nil {
		login, err := o.service.AuthenticatedLogin(ctx)
		return o.service, login, err
	}

	res, err := o.runner.Run(ctx, "", "gh", "auth", "status")
	if err != nil {
		return nil, "", fmt.Errorf("failed to run gh: %w", err)
	}
	if res.ExitCode != 0 {
		if !o.prompt.YesNo("GitHub CLI is not authenticated. Run 'gh auth login' now?", true) {
			return nil, "", errors.New("a GitHub session is required to continue")
		}
		code, err := o.runner.RunInteractive(ctx, "", "gh", "auth", "login")
		if err != nil {
			return nil, "", fmt.Errorf("failed to run gh auth login: %w", err)
		}
		if code != 0 {
			return nil, "", errors.New("gh auth login did not complete")
		}
	}

	return o.buildService(ctx)
}

// quietService is ensureService without any prompting. Used for the
// best-effort fork discovery during local auto-detection, where a missing
// session is not an error worth interrupting the operator for.
func (o *Orchestrator) quietService(ctx context.Context) (gitservice.Service, string, error) {
	if o.service != nil {
		login, err := o.service.AuthenticatedLogin(ctx)
		return o.service, login, err
	}

	res, err := o.runner.Run(ctx, "", "gh", "auth", "status")
	if err != nil || res.ExitCode != 0 {
		return nil, "", errors.New("no gh session")
	}
	return o.buildService(ctx)
}

func (o *Orchestrator) buildService(ctx context.Context) (gitservice.Service, string, error) {
	token, err := o.sessionToken(ctx)
	if err != nil {
		return nil, "", err
	}

	svc := o.newService(ctx, token)
	login, err := svc.AuthenticatedLogin(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("could not resolve the GitHub identity: %w", err)
	}
	if login == "" {
		return nil, "", errors.New("could not resolve the GitHub identity")
	}

	o.service = svc
	return svc, login, nil
}

func (o *Orchestrator) sessionToken(ctx context.Context) (string, error) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		return token, nil
	}
	res, err := o.runner.Run(ctx, "", "gh", "auth", "token")
	if err != nil {
		return "", fmt.Errorf("failed to run gh auth token: %w", err)
	}
	token := strings.TrimSpace(res.Stdout)
	if res.ExitCode != 0 || token == "" {
		return "", errors.New("could not obtain a token from gh")
	}
	return token, nil
}

// locateFork resolves an existing fork of the upstream for login. First
// success wins: the configured override, then forks owned by login with a
// matching parent, then the upstream fork listing filtered by owner. Every
// candidate is re-validated live; one that fails re-validation is skipped
// and the next strategy tried.
func (o *Orchestrator) locateFork(ctx context.Context, svc gitservice.Service, login string) (repo.Slug, bool) {
	if o.config.ForkRepo != "" {
		slug, err := repo.ParseSlug(o.config.ForkRepo)
		if err == nil {
			if ok, err := svc.RepositoryExists(ctx, slug); err == nil && ok {
				return slug, true
			}
			log.Debug().Str("repo", slug.String()).
				Msg("configured fork override is not accessible, ignoring")
		}
	}

	if forks, err := svc.ListOwnedForks(ctx, login); err != nil {
		log.Warn().Err(err).Msg("could not list owned forks")
	} else {
		for _, f := range forks {
			if f.Parent != o.upstream {
				continue
			}
			if ok, err := svc.RepositoryExists(ctx, f.Slug); err == nil && ok {
				return f.Slug, true
			}
			log.Debug().Str("repo", f.Slug.String()).
				Msg("fork candidate failed re-validation, skipping")
			break
		}
	}

	if forks, err := svc.ListForks(ctx, o.upstream); err != nil {
		log.Warn().Err(err).Msg("could not list upstream forks")
	} else {
		for _, f := range forks {
			if f.Slug.Owner != login {
				continue
			}
			if ok, err := svc.RepositoryExists(ctx, f.Slug); err == nil && ok {
				return f.Slug, true
			}
			log.Debug().Str("repo", f.Slug.String()).
				Msg("fork candidate failed re-validation, skipping")
			break
		}
	}

	return repo.Slug{}, false
}

// ensureFork returns a usable fork of the upstream for login, creating one
// when discovery finds nothing. A reported creation failure is advisory
// since the fork may already exist; only a fork that never becomes
// accessible is fatal.
func (o *Orchestrator) ensureFork(ctx context.Context, svc gitservice.Service, login string) (repo.Slug, error) {
	if f, ok := o.locateFork(ctx, svc, login); ok {
		o.prompt.Say("Using existing fork %s.", f)
		return f, nil
	}

	name := o.askForkName()
	o.prompt.Say("Forking %s...", o.upstream)
	if err := svc.CreateFork(ctx, o.upstream, login, name); err != nil {
		log.Warn().Err(err).Msg("fork creation reported failure, checking whether the fork exists anyway")
	}

	// forks materialize asynchronously; poll discovery until visible
	for attempt := 0; attempt < forkPollAttempts; attempt++ {
		if f, ok := o.locateFork(ctx, svc, login); ok {
			return f, nil
		}
		time.Sleep(forkPollDelay)
	}

	return repo.Slug{}, fmt.Errorf("fork of %s is still not accessible after creation", o.upstream)
}

// askForkName prompts for an optional custom fork name, re-prompting until
// the answer is empty or valid.
func (o *Orchestrator) askForkName() string {
	for {
		name := o.prompt.Line("Custom fork name (leave empty for the default):")
		if name == "" || repo.ValidForkName(name) {
			return name
		}
		o.prompt.Say("Fork names may only contain letters, digits, '.', '_' and '-'.")
	}
}
