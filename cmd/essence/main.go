package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/simple-essence/pkg/essence"
	"github.com/tendant/simple-essence/pkg/essence/config"
	"github.com/tendant/simple-essence/pkg/essence/fixture"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A missing .env is fine; explicit environment variables always win.
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the essence CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "essence",
		Short: "Render essences from a YAML fixture",
		Long: `Essence Command Line Interface

Loads elements, contents and essences from a YAML fixture into an
in-memory repository and renders them with the same partials the
server uses.

Environment variables with the ESSENCE_ prefix (TEMPLATE_DIR,
DEFAULT_LOCALE, STORAGE_URL, ...) configure the renderer. A .env file
in the current directory is loaded first.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("fixture", "f", "", "YAML fixture to load (required)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	_ = rootCmd.MarkPersistentFlagRequired("fixture")

	rootCmd.AddCommand(NewRenderCommand())
	rootCmd.AddCommand(NewSettingCommand())
	rootCmd.AddCommand(NewElementsCommand())

	return rootCmd
}

// session is the repository, renderer and elements built for one command
type session struct {
	renderer essence.Renderer
	elements []*essence.Element
}

// newSessionFromFlags loads the fixture named by --fixture into a fresh
// in-memory repository and builds a renderer from the environment
func newSessionFromFlags(cmd *cobra.Command) (*session, error) {
	fixturePath, _ := cmd.Flags().GetString("fixture")
	verbose, _ := cmd.Flags().GetBool("verbose")

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(
		config.WithEnv("ESSENCE_"),
		config.WithDatabase("memory", ""),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	repo, err := cfg.BuildRepository(ctx)
	if err != nil {
		return nil, err
	}
	pictures, err := cfg.BuildPictureStore()
	if err != nil {
		return nil, err
	}
	renderer, err := cfg.BuildRenderer(pictures, logger)
	if err != nil {
		return nil, err
	}

	f, err := fixture.LoadFile(fixturePath)
	if err != nil {
		return nil, err
	}
	elements, err := f.Apply(ctx, repo)
	if err != nil {
		return nil, err
	}
	if err := f.UploadPictures(ctx, pictures); err != nil {
		return nil, err
	}

	logger.Debug("Fixture loaded", "path", fixturePath, "elements", len(elements))
	return &session{renderer: renderer, elements: elements}, nil
}

func (s *session) element(name string) (*essence.Element, error) {
	el := fixture.FindElement(s.elements, name)
	if el == nil {
		return nil, fmt.Errorf("%w: %s", essence.ErrElementNotFound, name)
	}
	return el, nil
}

func writeLine(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
