package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/aspain/sweatyboot/internal/bootstrap"
	"github.com/aspain/sweatyboot/pkg/execx"
)

var rootCmd = &cobra.Command{
	Use:   "sweatyboot [setup-args...]",
	Short: "sweatyboot bootstraps a git-sweaty contributor environment",
	Long: `Detects or creates a fork of the upstream repository, resolves a local
clone (or runs setup online against a repository, without cloning) and hands
off to the project setup script. Positional arguments are passed through to
the setup script verbatim.`,
	Args: cobra.ArbitraryArgs,
	Run:  run,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

var (
	confPath string
	silent   bool
	verbose  bool
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&confPath, "config", "c", bootstrap.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "silent, only error or panic output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "more verbose for debug output")
	cobra.OnInitialize(func() {
		// init logger
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

		if silent && verbose {
			log.Error().Msg("choose only one of silent or verbose output")
			os.Exit(1)
		}

		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		if silent {
			zerolog.SetGlobalLevel(zerolog.ErrorLevel)
		}

		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	})
}

func run(_ *cobra.Command, args []string) {
	conf, err := bootstrap.ParseConfig(confPath)
	if err != nil {
		fail(err)
	}

	orch, err := bootstrap.New(bootstrap.Options{
		Config: conf,
		Args:   args,
	})
	if err != nil {
		fail(err)
	}

	if err := orch.Run(context.Background()); err != nil {
		var exitErr *execx.ExitStatusError
		if errors.As(err, &exitErr) {
			// online mode propagates the setup script's exit status
			os.Exit(exitErr.Code)
		}
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}

// Execute root cobra executor
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fail(err)
	}
}
