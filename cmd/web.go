/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flamego/csrf"
	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/routes"
	"github.com/humaidq/labreport/static"
	"github.com/humaidq/labreport/templates"
)

const (
	shutdownTimeout = 10 * time.Second
	maxDBConns      = 100
)

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the web server",
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:    "port",
			Sources: cli.EnvVars("PORT"),
			Value:   "8080",
			Usage:   "the web server port",
		},
		&cli.StringFlag{
			Name:    "database-url",
			Sources: cli.EnvVars("DATABASE_URL"),
			Usage:   "PostgreSQL connection string for report history (optional)",
		},
		&cli.IntFlag{
			Name:    "db-max-conns",
			Sources: cli.EnvVars("LABREPORT_DB_MAX_CONNS"),
			Value:   db.DefaultMaxConns,
			Usage:   "maximum report history database connections",
		},
		&cli.BoolFlag{
			Name:    "db-create",
			Sources: cli.EnvVars("LABREPORT_DB_CREATE"),
			Value:   true,
			Usage:   "create the database named in --database-url when it does not exist",
		},
		&cli.StringFlag{
			Name:    "csrf-secret",
			Sources: cli.EnvVars("CSRF_SECRET"),
			Usage:   "secret for CSRF tokens; a random one is used when empty",
		},
		&cli.IntFlag{
			Name:    "max-upload-mb",
			Sources: cli.EnvVars("LABREPORT_MAX_UPLOAD_MB"),
			Value:   10,
			Usage:   "maximum upload size in megabytes",
		},
		&cli.IntFlag{
			Name:    "upload-rate",
			Sources: cli.EnvVars("LABREPORT_UPLOAD_RATE"),
			Value:   30,
			Usage:   "uploads per minute per client IP (0 disables)",
		},
		&cli.StringSliceFlag{
			Name:    "trusted-proxy",
			Sources: cli.EnvVars("LABREPORT_TRUSTED_PROXIES"),
			Usage:   "reverse proxy address or CIDR whose X-Forwarded-For is honored by the upload limiter",
		},
		&cli.BoolFlag{
			Name:  "dev",
			Value: false,
			Usage: "enables development mode (templates are read from disk)",
		},
	}, sharedFlags()...),
	Action: start,
}

func start(ctx context.Context, cmd *cli.Command) error {
	maxUploadMB := cmd.Int("max-upload-mb")
	if maxUploadMB <= 0 {
		return errInvalidUploadLimit
	}

	dbMaxConns := cmd.Int("db-max-conns")
	if dbMaxConns < 1 || dbMaxConns > maxDBConns {
		return errInvalidDBMaxConns
	}

	trustedProxies, err := routes.ParseTrustedProxies(cmd.StringSlice("trusted-proxy"))
	if err != nil {
		return err
	}

	table, err := loadReferenceTable(cmd)
	if err != nil {
		return err
	}

	engine, err := newOCREngine(cmd)
	if err != nil {
		return err
	}

	lab := &routes.Lab{
		Table:          table,
		Engine:         engine,
		CSVLog:         db.NewCSVLog(cmd.String(flagCSVLog)),
		MaxUploadBytes: int64(maxUploadMB) << 20,
	}

	if databaseURL := cmd.String("database-url"); databaseURL != "" {
		appLogger.Info("Connecting to database")

		if err := db.Init(ctx, db.Config{
			URL:            databaseURL,
			MaxConns:       int32(dbMaxConns),
			CreateDatabase: cmd.Bool("db-create"),
		}); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := db.SyncSchema(ctx); err != nil {
			return fmt.Errorf("failed to sync schema: %w", err)
		}
	} else {
		appLogger.Info("No database configured, report history is disabled")
	}

	f, err := newServer(lab, serverOptions{
		CSRFSecret:     cmd.String("csrf-secret"),
		UploadRate:     cmd.Int("upload-rate"),
		TrustedProxies: trustedProxies,
		Dev:            cmd.Bool("dev"),
	})
	if err != nil {
		return err
	}

	port := cmd.String("port")
	srv := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%s", port),
		Handler:           f,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		appLogger.Info("Starting web server",
			"port", port,
			"ocr", lab.Engine != nil,
			"history", db.Enabled(),
			"csv_log", lab.CSVLog != nil,
			"reference_tests", table.Len(),
		)

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down web server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}

	return nil
}

type serverOptions struct {
	CSRFSecret     string
	UploadRate     int
	TrustedProxies []netip.Prefix
	Dev            bool
}

func newServer(lab *routes.Lab, opts serverOptions) (*flamego.Flame, error) {
	f := flamego.New()
	f.Map(requestStdLogger)
	f.Map(lab)

	f.Use(routes.RequestLogger)
	f.Use(flamego.Recovery())
	f.Use(flamego.Static(flamego.StaticOptions{
		FileSystem: http.FS(static.Static),
	}))

	f.Use(session.Sessioner(sessionOptions()))

	secret := opts.CSRFSecret
	if secret == "" {
		secret = uuid.NewString()
		appLogger.Warn("CSRF_SECRET not set, forms will be invalidated on restart")
	}

	f.Use(csrf.Csrfer(csrf.Options{Secret: secret}))

	tmplOpts := template.Options{
		FuncMaps: []htmltemplate.FuncMap{templateFuncs()},
	}

	if opts.Dev {
		tmplOpts.Directory = "templates"
	} else {
		fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
		if err != nil {
			return nil, fmt.Errorf("failed to load templates: %w", err)
		}

		tmplOpts.FileSystem = fs
	}

	f.Use(template.Templater(tmplOpts))
	f.Use(routes.NoCacheHeaders())
	f.Use(routes.CSRFInjector())
	f.Use(routes.FlashInjector())

	configureEmptyNotFoundHandler(f)

	limiter := routes.NewUploadLimiter(opts.UploadRate, opts.TrustedProxies...)

	f.Get("/", routes.Index)
	f.Post("/analyze", limiter.Middleware(), routes.UploadParser, csrf.Validate, routes.Analyze)

	f.Group("/results", func() {
		f.Get("", routes.ViewResults)
		f.Get("/csv", routes.DownloadResultsCSV)
		f.Get("/pdf", routes.DownloadResultsPDF)
		f.Post("/add", csrf.Validate, routes.AddResult)
		f.Post("/save", csrf.Validate, routes.SaveResults)
		f.Post("/clear", csrf.Validate, routes.ClearResults)
		f.Post("/{index}/delete", csrf.Validate, routes.DeleteResult)
	})

	f.Get("/analytics", routes.Analytics)

	f.Group("/reports", func() {
		f.Get("", routes.ListReports)
		f.Get("/{id}", routes.ViewReport)
		f.Get("/{id}/csv", routes.DownloadReportCSV)
		f.Post("/{id}/delete", csrf.Validate, routes.DeleteReport)
	}, routes.RequireDatabase)

	f.Get("/ranges", routes.Ranges)
	f.Get("/about", routes.About)

	return f, nil
}

// sessionOptions keeps sessions in PostgreSQL when history is enabled so the
// working result set survives restarts, and in memory otherwise.
func sessionOptions() session.Options {
	opts := session.Options{
		Cookie: session.CookieOptions{
			Name:     "labreport_session",
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}

	if db.Enabled() {
		opts.Initer = db.PostgresSessionIniter()
		opts.Config = db.PostgresSessionConfig{
			Lifetime: 24 * time.Hour,
		}
	}

	return opts
}

func configureEmptyNotFoundHandler(f *flamego.Flame) {
	f.NotFound(func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNotFound)
	})
}

func templateFuncs() htmltemplate.FuncMap {
	return htmltemplate.FuncMap{
		"statusClass":  statusClass,
		"formatValue":  db.FormatValue,
		"formatDate":   formatDate,
		"safeImageURL": safeImageURL,
		"inc": func(i int) int {
			return i + 1
		},
	}
}

// statusClass maps a status to the CSS class used for row highlighting
func statusClass(status db.Status) string {
	switch {
	case status.Abnormal():
		return "status-abnormal"
	case status == db.StatusNormal:
		return "status-normal"
	default:
		return "status-unknown"
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Local().Format("2 Jan 2006 15:04")
}

// safeImageURL allows only base64 PNG data URLs, as produced for QR codes
func safeImageURL(value string) htmltemplate.URL {
	const prefix = "data:image/png;base64,"

	if !strings.HasPrefix(value, prefix) {
		return ""
	}

	//nolint:gosec // Restricted to base64 PNG data URLs.
	return htmltemplate.URL(value)
}
