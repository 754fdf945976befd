package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vitrine-app/vitrine/internal/api"
	"github.com/vitrine-app/vitrine/internal/cart"
	"github.com/vitrine-app/vitrine/internal/catalog"
	"github.com/vitrine-app/vitrine/internal/db"
	"github.com/vitrine-app/vitrine/internal/session"
	"github.com/vitrine-app/vitrine/internal/store"
	"github.com/vitrine-app/vitrine/pkg/config"
)

// splitHandler sends ERROR and above to one handler and everything else to
// another, so errors land on stderr without duplicating the record.
type splitHandler struct {
	info slog.Handler
	errs slog.Handler
}

func (h *splitHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.errs.Handle(ctx, r)
	}
	return h.info.Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{info: h.info.WithAttrs(attrs), errs: h.errs.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{info: h.info.WithGroup(name), errs: h.errs.WithGroup(name)}
}

// setupLogger installs the default logger: INFO/WARN on stdout, ERROR on
// stderr, optionally teeing every level into the file at logPath. The
// returned function closes that file and is nil when no file was opened.
func setupLogger(logPath string) (func(), error) {
	infoW := io.Writer(os.Stdout)
	errsW := io.Writer(os.Stderr)

	var closeFile func()
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		closeFile = func() { f.Close() }
		infoW = io.MultiWriter(infoW, f)
		errsW = io.MultiWriter(errsW, f)
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	slog.SetDefault(slog.New(&splitHandler{
		info: slog.NewTextHandler(infoW, opts),
		errs: slog.NewTextHandler(errsW, opts),
	}))
	return closeFile, nil
}

func main() {
	cfg := config.Load()

	fs := flag.NewFlagSet("vitrine", flag.ContinueOnError)

	var apiURL string
	fs.StringVar(&apiURL, "api", cfg.APIURL, "")
	fs.StringVar(&apiURL, "a", cfg.APIURL, "")

	var statePath string
	fs.StringVar(&statePath, "state", cfg.StatePath, "")
	fs.StringVar(&statePath, "s", cfg.StatePath, "")

	var logPath string
	fs.StringVar(&logPath, "log", cfg.LogPath, "")
	fs.StringVar(&logPath, "l", cfg.LogPath, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: vitrine [flags]

Interactive storefront shell. Type "help" at the prompt for commands.

Flags:
  -a, -api <url>      storefront API base URL (default: $VITRINE_API_URL or http://localhost:8080)
  -s, -state <path>   client state database path (default: $VITRINE_STATE_PATH)
  -l, -log <path>     log file path (default: no file, stdout/stderr only)
  -h, -help           show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	// Open the client state database, creating its directory if needed.
	if dir := filepath.Dir(statePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("creating state directory", "error", err)
			os.Exit(1)
		}
	}
	database, err := db.Open(statePath)
	if err != nil {
		slog.Error("opening state database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		slog.Error("migrating state database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// When neither the flag nor the environment picked an API URL, fall back
	// to the one remembered from the previous run, then remember the choice.
	apiSet := os.Getenv("VITRINE_API_URL") != ""
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "api" || f.Name == "a" {
			apiSet = true
		}
	})
	if !apiSet {
		saved, err := store.LoadAPIURL(ctx, database)
		if err != nil {
			slog.Warn("loading remembered api url", "error", err)
		} else if saved != "" {
			apiURL = saved
		}
	}
	if err := store.SaveAPIURL(ctx, database, apiURL); err != nil {
		slog.Warn("remembering api url", "error", err)
	}

	client := api.New(apiURL)
	sess := session.New(client, database)
	sess.Restore(ctx)

	products := catalog.New(client)
	if err := products.Refresh(ctx); err != nil {
		slog.Warn("initial catalog fetch failed", "error", err)
	}

	sh := &shell{
		session: sess,
		catalog: products,
		cart:    cart.New(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
	sh.run(ctx)
}
