package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/nhle/fleet-notify/internal/app"
	"github.com/nhle/fleet-notify/internal/credential"
	"github.com/nhle/fleet-notify/internal/engine"
	"github.com/nhle/fleet-notify/internal/logging"
	"github.com/nhle/fleet-notify/internal/model"
	"github.com/nhle/fleet-notify/internal/remote"
	"github.com/nhle/fleet-notify/internal/store"
	appsync "github.com/nhle/fleet-notify/internal/sync"
)

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	configPath := pflag.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	setToken := pflag.Bool("set-token", false, "read the server API token from stdin and store it in the keyring")
	clearToken := pflag.Bool("clear-token", false, "remove the stored server API token")
	pflag.Parse()

	switch {
	case *setToken:
		exitOn(storeToken())
		return
	case *clearToken:
		exitOn(credential.Delete(credential.APITokenKey))
		return
	}

	cfg, err := model.LoadConfig(*configPath)
	exitOn(err)

	logFile, err := logging.OpenFile(cfg.Log.File)
	exitOn(err)
	defer logFile.Close()

	log := logging.New(logging.Options{
		Service: "fleetnotify",
		Level:   logging.ParseLevel(cfg.Log.Level),
		Output:  logFile,
	})

	rs, closeStore, err := openRemote(cfg, log)
	if err != nil {
		log.Error().Err(err).Str("mode", cfg.Remote.Mode).Msg("failed to open notification store")
		exitOn(err)
	}
	defer closeStore()

	e := engine.New(
		engine.WithLogger(log),
		engine.WithLocale(parseLocale(cfg.Display.Locale, log)),
		engine.WithWeekStart(weekStart(cfg.Display.WeekStart)),
	)
	poller := appsync.New(time.Duration(cfg.Display.PollIntervalSec) * time.Second)

	m := app.New(e, rs, poller,
		app.WithLogger(log),
		app.WithTimeout(time.Duration(cfg.Remote.TimeoutSec)*time.Second),
	)

	log.Info().Str("mode", cfg.Remote.Mode).Msg("starting client")
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Error().Err(err).Msg("client stopped unexpectedly")
		exitOn(err)
	}
}

// openRemote builds the store the engine talks to and a func releasing it.
func openRemote(cfg *model.AppConfig, log zerolog.Logger) (remote.Store, func(), error) {
	timeout := time.Duration(cfg.Remote.TimeoutSec) * time.Second

	if cfg.Remote.Mode == model.RemoteModeLocal {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating store directory: %w", err)
		}
		st, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return remote.NewLocal(st, time.Now), func() { st.Close() }, nil
	}

	token, err := credential.APIToken()
	if err != nil {
		// The server may run without auth; keep going without a token.
		log.Warn().Err(err).Msg("no API token available")
	}
	c := remote.NewHTTPClient(cfg.Remote.BaseURL, token, timeout, remote.WithLogger(log))
	return c, func() {}, nil
}

func parseLocale(s string, log zerolog.Logger) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		log.Warn().Str("locale", s).Msg("unknown locale, using French collation")
		return language.French
	}
	return tag
}

func weekStart(s string) time.Weekday {
	if strings.EqualFold(s, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

func storeToken() error {
	fmt.Fprint(os.Stderr, "API token: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return fmt.Errorf("empty token")
	}
	return credential.Set(credential.APITokenKey, token)
}

func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "fleetnotify:", err)
	os.Exit(1)
}
