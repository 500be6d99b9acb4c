package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/logger"
	"github.com/urfave/cli/v2"

	"scratchcard/internal/config"
	"scratchcard/internal/handlers"
	"scratchcard/internal/prize"
	"scratchcard/internal/services"
	"scratchcard/internal/storage"
)

func main() {
	app := &cli.App{
		Name:   "scratchcard",
		Usage:  "Daily scratch-and-win card",
		Action: cli.ShowAppHelp,
		Commands: []*cli.Command{
			{
				Name:        "serve",
				Usage:       "Start the scratch card server",
				Description: "Serves the scratch session API and cleans up idle sessions in the background.",
				Action:      serve,
			},
			{
				Name:        "status",
				Usage:       "Show the play record of a client",
				Flags:       []cli.Flag{clientFlag()},
				Description: "Prints whether the client can play today and how many plays it has.",
				Action:      status,
			},
			{
				Name:        "reset",
				Usage:       "Delete the play record of a client",
				Flags:       []cli.Flag{clientFlag()},
				Description: "Demo escape hatch: lets the client play again today.",
				Action:      reset,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatalf("%v", err)
	}
}

func clientFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "client",
		Aliases:  []string{"c"},
		Usage:    "client id",
		Required: true,
	}
}

// setupLogger sends info, warning and error output to out. Verbose enables
// level 1 detail such as per-stroke progress.
func setupLogger(verbose bool, out io.Writer) *logger.Logger {
	l := logger.Init("scratchcard", false, false, out)
	if verbose {
		l.SetLevel(1)
	}
	return l
}

// setup loads the configuration, the logger and the scratch service.
func setup(ctx context.Context) (config.Config, *services.ScratchService, storage.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}

	setupLogger(cfg.LogVerbose, os.Stdout)

	store, err := storage.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("open store: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		store.Close()
		return config.Config{}, nil, nil, err
	}

	opts := services.Options{
		StorageKey:      cfg.StorageKey,
		SurfaceWidth:    cfg.SurfaceWidth,
		SurfaceHeight:   cfg.SurfaceHeight,
		BrushSize:       cfg.BrushSize,
		MobileBrushSize: cfg.MobileBrushSize,
		Threshold:       cfg.Threshold(),
		Location:        loc,
		Clock:           time.Now,
	}
	svc := services.NewScratchService(store, prize.NewDefaultSelector(prize.CryptoSource{}), opts)
	return cfg, svc, store, nil
}

func serve(c *cli.Context) error {
	// 1. Load configuration and initialize the Scratch Service
	cfg, svc, store, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer store.Close()

	// 2. Initialize the HTTP Handler and the Gin router
	router := handlers.NewRouter(handlers.NewHTTPHandler(svc), cfg.SessionSecret)

	// 3. Start the background janitor to clean up inactive sessions
	janitor, err := svc.StartJanitor(cfg.CleanupSchedule, cfg.SessionTTL)
	if err != nil {
		return err
	}
	defer janitor.Stop()

	// 4. Run the server until interrupted
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("run server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func status(c *cli.Context) error {
	_, svc, store, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer store.Close()

	snap := svc.Status(c.Context, c.String("client"))
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func reset(c *cli.Context) error {
	_, svc, store, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer store.Close()

	client := c.String("client")
	if err := svc.Reset(c.Context, client); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "reset play record for %s\n", client)
	return nil
}
