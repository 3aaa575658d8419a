package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/aspain/sweatyboot/pkg/repo"
)

// runLocal resolves a local clone and hands off to the setup script.
// Auto-detection runs first (default directory, fork-named directory,
// mounted drive scan); failing that the operator can point at an existing
// clone, fork and clone, or clone the upstream directly.
func (o *Orchestrator) runLocal(ctx context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}

	// best-effort fork discovery; only uses an already-established session
	var fork repo.Slug
	var haveFork bool
	if svc, login, err := o.quietService(ctx); err == nil {
		fork, haveFork = o.locateFork(ctx, svc, login)
	} else {
		log.Debug().Err(err).Msg("skipping fork discovery")
	}

	if dir, ok := o.autoDetect(cwd, fork, haveFork); ok {
		o.prompt.Say("Found existing clone at %s.", dir)
		if err := o.configureRemotes(dir, fork, haveFork); err != nil {
			return err
		}
		return o.offerSetup(ctx, dir)
	}

	if o.prompt.YesNo("Use an existing local clone path?", false) {
		return o.useManualPath(ctx, fork, haveFork)
	}

	if o.prompt.YesNo("Fork the repo to your GitHub account first?", true) {
		svc, login, err := o.ensureService(ctx)
		if err != nil {
			return err
		}
		f, err := o.ensureFork(ctx, svc, login)
		if err != nil {
			return err
		}

		dir := filepath.Join(cwd, f.Name)
		if err := o.cloneInto(ctx, f, dir); err != nil {
			return err
		}
		if err := o.configureRemotes(dir, f, true); err != nil {
			return err
		}
		return o.offerSetup(ctx, dir)
	}

	if o.prompt.YesNo("Clone the upstream repository directly?", true) {
		dir := filepath.Join(cwd, o.upstream.Name)
		if err := o.cloneInto(ctx, o.upstream, dir); err != nil {
			return err
		}
		return o.offerSetup(ctx, dir)
	}

	o.prompt.Say("Nothing to do.")
	return nil
}

// autoDetect checks the default directory, a fork-named directory and
// finally the mounted Windows drives for an existing compatible clone.
func (o *Orchestrator) autoDetect(cwd string, fork repo.Slug, haveFork bool) (string, bool) {
	if dir := filepath.Join(cwd, o.upstream.Name); o.validator.IsCompatible(dir) {
		return dir, true
	}

	if haveFork && fork.Name != o.upstream.Name {
		if dir := filepath.Join(cwd, fork.Name); o.validator.IsCompatible(dir) {
			return dir, true
		}
	}

	names := make([]string, 0, 2)
	if haveFork {
		names = append(names, fork.Name)
	}
	if !haveFork || fork.Name != o.upstream.Name {
		names = append(names, o.upstream.Name)
	}
	if dir, ok := o.scanner.FindClone(names...); ok {
		return dir, true
	}

	return "", false
}

// useManualPath asks for a clone path, expands it and requires it to be
// compatible. An existing-but-incompatible destination is fatal, not
// something to silently clone over.
func (o *Orchestrator) useManualPath(ctx context.Context, fork repo.Slug, haveFork bool) error {
	answer := o.prompt.Line("Path to the existing clone:")
	if answer == "" {
		o.prompt.Say("No path given, stopping.")
		return nil
	}

	dir := o.resolver.Expand(answer)
	if !o.validator.IsCompatible(dir) {
		return fmt.Errorf("%s is not a compatible clone of %s", dir, o.upstream)
	}

	if err := o.configureRemotes(dir, fork, haveFork); err != nil {
		return err
	}
	return o.offerSetup(ctx, dir)
}

// cloneInto clones src into dir, reusing dir when it already holds a
// compatible clone.
func (o *Orchestrator) cloneInto(ctx context.Context, src repo.Slug, dir string) error {
	if o.validator.IsCompatible(dir) {
		o.prompt.Say("Reusing existing clone at %s.", dir)
		return nil
	}
	if _, err := o.fs.Stat(dir); err == nil {
		return fmt.Errorf("%s already exists but is not a compatible clone", dir)
	}

	o.prompt.Say("Cloning %s into %s...", src, dir)
	res, err := o.runner.Run(ctx, "", "git", "clone", src.CloneURL(), dir)
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git clone failed: %s", strings.TrimSpace(res.Stderr))
	}
	return nil
}
