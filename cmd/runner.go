package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/kidsbox/internal/services"
	"github.com/desertthunder/kidsbox/internal/shared"
	"github.com/desertthunder/kidsbox/internal/tokens"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The token manager and Spotify client are built on first use so commands like setup work before
// credentials exist.
type Runner struct {
	config     *shared.Config
	configPath string
	tokens     *tokens.Manager
	spotify    services.Player
	closer     io.Closer
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Tokens     *tokens.Manager
	Spotify    services.Player
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Spotify.Timeout}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		tokens:     opts.Tokens,
		spotify:    opts.Spotify,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, authCommand, devicesCommand, playCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// init builds the token manager and Spotify client from the configuration unless they were injected.
func (r *Runner) init(ctx context.Context) error {
	if r.tokens == nil {
		if err := r.config.Validate(); err != nil {
			return err
		}

		store, closer, err := tokens.OpenStore(r.config.Storage.Driver, r.config.Storage.Path)
		if err != nil {
			return err
		}

		manager, err := tokens.NewManager(ctx, tokens.Options{
			ClientID:     r.config.Credentials.Spotify.ClientID,
			ClientSecret: r.config.Credentials.Spotify.ClientSecret,
			RedirectURI:  r.config.Credentials.Spotify.RedirectURI,
			AuthURL:      r.config.Spotify.AuthURL,
			TokenURL:     r.config.Spotify.TokenURL,
			Store:        store,
			HTTPClient:   r.httpClient,
			Logger:       r.logger,
		})
		if err != nil {
			closer.Close()
			return fmt.Errorf("failed to create token manager: %w", err)
		}

		r.tokens = manager
		r.closer = closer
	}

	if r.spotify == nil {
		spotify, err := services.NewSpotifyService(services.SpotifyOpts{
			Tokens:     r.tokens,
			BaseURL:    r.config.Spotify.APIURL,
			HTTPClient: r.httpClient,
			Logger:     r.logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create Spotify service: %w", err)
		}
		r.spotify = spotify
	}

	return nil
}

// Close releases the token store opened by init.
func (r *Runner) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
