package bootstrap

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"

	"github.com/aspain/sweatyboot/pkg/gitservice"
	"github.com/aspain/sweatyboot/pkg/prompt"
	"github.com/aspain/sweatyboot/pkg/repo"
)

func newTestOrchestrator(t *testing.T, conf *Config, svc gitservice.Service, runner *fakeRunner, input string) (*Orchestrator, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer
	o, err := New(Options{
		Config:  conf,
		Prompt:  prompt.New(strings.NewReader(input), &out),
		Runner:  runner,
		Fs:      memfs.New(),
		Service: svc,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o, &out
}

var upstream = repo.Slug{Owner: "aspain", Name: "git-sweaty"}

func TestLocateForkPrefersConfiguredOverride(t *testing.T) {
	conf := testConfig()
	conf.ForkRepo = "tester/override"

	svc := &fakeService{
		login:  "tester",
		exists: map[string]bool{"tester/override": true},
		owned: []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "strava"}, Parent: upstream},
		},
	}
	o, _ := newTestOrchestrator(t, conf, svc, &fakeRunner{}, "")

	fork, ok := o.locateFork(context.Background(), svc, "tester")
	if !ok {
		t.Fatal("locateFork() found nothing")
	}
	if fork.String() != "tester/override" {
		t.Errorf("locateFork() = %s, want tester/override", fork)
	}
}

func TestLocateForkSkipsInaccessibleOverride(t *testing.T) {
	conf := testConfig()
	conf.ForkRepo = "tester/gone"

	svc := &fakeService{
		login:  "tester",
		exists: map[string]bool{"tester/strava": true},
		owned: []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "strava"}, Parent: upstream},
		},
	}
	o, _ := newTestOrchestrator(t, conf, svc, &fakeRunner{}, "")

	fork, ok := o.locateFork(context.Background(), svc, "tester")
	if !ok {
		t.Fatal("locateFork() found nothing")
	}
	if fork.String() != "tester/strava" {
		t.Errorf("locateFork() = %s, want tester/strava", fork)
	}
}

func TestLocateForkIgnoresForksOfOtherParents(t *testing.T) {
	svc := &fakeService{
		login:  "tester",
		exists: map[string]bool{"tester/other-fork": true},
		owned: []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "other-fork"}, Parent: repo.Slug{Owner: "someone", Name: "else"}},
		},
	}
	o, _ := newTestOrchestrator(t, testConfig(), svc, &fakeRunner{}, "")

	if fork, ok := o.locateFork(context.Background(), svc, "tester"); ok {
		t.Errorf("locateFork() = %s, want no match", fork)
	}
}

func TestLocateForkFallsBackToUpstreamListing(t *testing.T) {
	svc := &fakeService{
		login: "tester",
		// owned listing knows the fork but re-validation fails for it
		owned: []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "stale"}, Parent: upstream},
		},
		upstreamForks: []gitservice.Fork{
			{Slug: repo.Slug{Owner: "other", Name: "git-sweaty"}, Parent: upstream},
			{Slug: repo.Slug{Owner: "tester", Name: "strava"}, Parent: upstream},
		},
		exists: map[string]bool{"tester/strava": true},
	}
	o, _ := newTestOrchestrator(t, testConfig(), svc, &fakeRunner{}, "")

	fork, ok := o.locateFork(context.Background(), svc, "tester")
	if !ok {
		t.Fatal("locateFork() found nothing")
	}
	if fork.String() != "tester/strava" {
		t.Errorf("locateFork() = %s, want tester/strava", fork)
	}
}

func TestEnsureForkUsesExistingFork(t *testing.T) {
	svc := &fakeService{
		login:  "tester",
		exists: map[string]bool{"tester/strava": true},
		owned: []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "strava"}, Parent: upstream},
		},
	}
	o, _ := newTestOrchestrator(t, testConfig(), svc, &fakeRunner{}, "")

	fork, err := o.ensureFork(context.Background(), svc, "tester")
	if err != nil {
		t.Fatalf("ensureFork() error = %v", err)
	}
	if fork.String() != "tester/strava" {
		t.Errorf("ensureFork() = %s, want tester/strava", fork)
	}
	if svc.createCalls != 0 {
		t.Errorf("CreateFork called %d times, want 0", svc.createCalls)
	}
}

func TestEnsureForkCreatesWhenMissing(t *testing.T) {
	oldDelay := forkPollDelay
	forkPollDelay = time.Duration(0)
	defer func() { forkPollDelay = oldDelay }()

	svc := &fakeService{
		login:  "tester",
		exists: map[string]bool{},
	}
	// the fork becomes visible once creation is requested
	svc.onCreate = func(string) {
		svc.owned = []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "git-sweaty"}, Parent: upstream},
		}
		svc.exists["tester/git-sweaty"] = true
	}

	// empty answer: default fork name
	o, _ := newTestOrchestrator(t, testConfig(), svc, &fakeRunner{}, "\n")

	fork, err := o.ensureFork(context.Background(), svc, "tester")
	if err != nil {
		t.Fatalf("ensureFork() error = %v", err)
	}
	if fork.Owner != "tester" {
		t.Errorf("fork owner = %q, want the session login", fork.Owner)
	}
	if svc.createCalls != 1 {
		t.Errorf("CreateFork called %d times, want 1", svc.createCalls)
	}
}

func TestEnsureForkRepromptsInvalidName(t *testing.T) {
	oldDelay := forkPollDelay
	forkPollDelay = time.Duration(0)
	defer func() { forkPollDelay = oldDelay }()

	svc := &fakeService{login: "tester", exists: map[string]bool{}}
	svc.onCreate = func(string) {
		svc.exists["tester/sweaty-online"] = true
		svc.owned = []gitservice.Fork{
			{Slug: repo.Slug{Owner: "tester", Name: "sweaty-online"}, Parent: upstream},
		}
	}

	o, out := newTestOrchestrator(t, testConfig(), svc, &fakeRunner{}, "bad name/\nsweaty-online\n")

	fork, err := o.ensureFork(context.Background(), svc, "tester")
	if err != nil {
		t.Fatalf("ensureFork() error = %v", err)
	}
	if fork.Name != "sweaty-online" {
		t.Errorf("fork = %s, want tester/sweaty-online", fork)
	}
	if svc.createName != "sweaty-online" {
		t.Errorf("CreateFork name = %q, want sweaty-online", svc.createName)
	}
	if !strings.Contains(out.String(), "Fork names may only contain") {
		t.Error("expected a re-prompt message for the invalid fork name")
	}
}

func TestEnsureForkFailsWhenNeverAccessible(t *testing.T) {
	oldDelay, oldAttempts := forkPollDelay, forkPollAttempts
	forkPollDelay, forkPollAttempts = time.Duration(0), 2
	defer func() { forkPollDelay, forkPollAttempts = oldDelay, oldAttempts }()

	svc := &fakeService{login: "tester", exists: map[string]bool{}}
	o, _ := newTestOrchestrator(t, testConfig(), svc, &fakeRunner{}, "\n")

	if _, err := o.ensureFork(context.Background(), svc, "tester"); err == nil {
		t.Fatal("ensureFork() = nil error, want failure for an inaccessible fork")
	}
}
