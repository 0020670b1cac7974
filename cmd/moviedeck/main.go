package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

const version = "0.1.0"

var configPath string

// errReported marks a failure the command has already rendered.
var errReported = errors.New("error already reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, styleError.Render(catalog.Message(err)))
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moviedeck",
		Short: "Browse movies from TMDb",
		Long: "MovieDeck is a movie browser backed by The Movie Database.\n" +
			"It lists popular movies, searches by title and shows details with cast and trailers\n" +
			"from the terminal, a Telegram bot or an MCP client.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/moviedeck.yaml", "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newPopularCmd(),
		newSearchCmd(),
		newShowCmd(),
		newBrowseCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "MovieDeck v%s\n", version)
		},
	}
}
