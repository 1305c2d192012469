package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"weekplan/internal/config"
	"weekplan/internal/export"
	appLog "weekplan/internal/log"
	"weekplan/internal/planner"
	"weekplan/internal/store"
	"weekplan/internal/web"
)

var (
	configPath string
	debug      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "weekplan",
		Short: "Personal day/week planner with a web view and PDF export",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/weekplan/config.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging and relative cache/db paths")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(layoutCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(listCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", configPath, err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	path := cfg.Database
	if debug {
		path = "./cache/weekplan.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(path)
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()
	return ctx, cancel
}

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web view and API, refreshing ICS feeds on a cron schedule",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := signalContext()
			defer cancel()

			appLog.Info("weekplan serving",
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"refresh", cfg.RefreshCron,
				"horizon_days", cfg.HorizonDays,
				"ics_count", len(cfg.ICS),
			)

			// Cron-driven cache warm so interactive requests stay fast even
			// with slow feeds.
			pl := planner.New(cfg, st, debug)
			c := cron.New()
			if _, err := c.AddFunc(cfg.RefreshCron, func() { pl.WarmCache(ctx) }); err != nil {
				return fmt.Errorf("invalid refresh cron %q: %w", cfg.RefreshCron, err)
			}
			c.Start()
			defer c.Stop()
			go pl.WarmCache(ctx)

			return web.StartServer(ctx, cfg, st, debug)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func exportCmd() *cobra.Command {
	var (
		url       string
		out       string
		preview   string
		days      int
		landscape bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render the day-grid page to a paginated PDF",
		Long: `Render the day-grid page to a paginated PDF.

Without --url a temporary server is started on an ephemeral loopback port
for the duration of the capture, so export works without a running serve.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if days <= 0 {
				days = cfg.HorizonDays
			}

			ctx, cancel := signalContext()
			defer cancel()

			if url == "" {
				st, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer st.Close()

				addr, stop, err := startEphemeralServer(cfg, st)
				if err != nil {
					return err
				}
				defer stop()
				url = fmt.Sprintf("http://%s/?days=%d", addr, days)
			}

			appLog.Info("exporting", "url", url, "out", out, "preview", preview)
			if err := export.Run(ctx, export.Options{
				URL:         url,
				PDFPath:     out,
				PreviewPath: preview,
				Landscape:   landscape,
			}); err != nil {
				return err
			}
			appLog.Info("export complete", "out", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "page URL to capture (defaults to a temporary local server)")
	cmd.Flags().StringVar(&out, "out", "weekplan.pdf", "output PDF path")
	cmd.Flags().StringVar(&preview, "preview", "", "optional PNG preview path")
	cmd.Flags().IntVar(&days, "days", 0, "days to include (defaults to config horizon)")
	cmd.Flags().BoolVar(&landscape, "landscape", false, "landscape page orientation")
	return cmd
}

// startEphemeralServer serves the web UI on an ephemeral loopback port for
// the duration of an export capture. Basic auth is disabled on it; the
// listener only accepts loopback connections and lives for one capture.
func startEphemeralServer(cfg *config.Config, st *store.Store) (addr string, stop func(), err error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen for export: %w", err)
	}

	captureCfg := *cfg
	captureCfg.BasicAuth = nil

	srv := &http.Server{Handler: web.NewServer(&captureCfg, st, debug).Handler()}
	go func() {
		if serveErr := srv.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			appLog.Error("export server failed", serveErr)
		}
	}()

	stop = func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return ln.Addr().String(), stop, nil
}

func layoutCmd() *cobra.Command {
	var (
		days     int
		backfill int
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Compute the layout for a window and print it as JSON",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := signalContext()
			defer cancel()

			pl := planner.New(cfg, st, debug)
			from, to := pl.Window(days, backfill)
			res, err := pl.Compute(ctx, from, to)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "days to include (defaults to config horizon)")
	cmd.Flags().IntVar(&backfill, "backfill", 0, "past days to include")
	return cmd
}

func addCmd() *cobra.Command {
	var (
		startStr    string
		endStr      string
		notes       string
		actionItems string
		allDay      bool
	)

	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a personal event to the local store",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				loc = time.Local
			}
			start, err := parseEventTime(startStr, loc)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			end, err := parseEventTime(endStr, loc)
			if err != nil {
				return fmt.Errorf("invalid --end: %w", err)
			}
			if !end.After(start) {
				return fmt.Errorf("--end must be after --start")
			}

			ev, err := st.Add(store.NewEvent{
				Title:       args[0],
				Notes:       notes,
				ActionItems: actionItems,
				AllDay:      allDay,
				Start:       start,
				End:         end,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Added %s: %s (%s – %s)\n",
				ev.ID[:8], ev.Title,
				ev.Start.Format("2006-01-02 15:04"),
				ev.End.Format("2006-01-02 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVar(&startStr, "start", "", `start time, "2006-01-02 15:04"`)
	cmd.Flags().StringVar(&endStr, "end", "", `end time, "2006-01-02 15:04"`)
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&actionItems, "actions", "", "action items")
	cmd.Flags().BoolVar(&allDay, "all-day", false, "render as an all-day banner")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		days     int
		backfill int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List personal events in a window",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if days <= 0 {
				days = cfg.HorizonDays
			}
			now := time.Now()
			events, err := st.ListBetween(now.AddDate(0, 0, -backfill), now.AddDate(0, 0, days))
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No personal events in this window. Use 'weekplan add' to create one.")
				return nil
			}
			for _, ev := range events {
				fmt.Printf("%s  %s-%s  %s\n",
					ev.ID[:8],
					ev.Start.Format("2006-01-02 15:04"),
					ev.End.Format("15:04"),
					ev.Title)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "days ahead to include (defaults to config horizon)")
	cmd.Flags().IntVar(&backfill, "backfill", 0, "past days to include")
	return cmd
}

// parseEventTime parses "2006-01-02 15:04" or a bare date (midnight).
func parseEventTime(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", v, loc); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02", v, loc)
}
