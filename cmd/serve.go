package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/joescharf/reviewmate/internal/api"
	"github.com/joescharf/reviewmate/internal/auth"
	"github.com/joescharf/reviewmate/internal/daemon"
	"github.com/joescharf/reviewmate/internal/github"
)

const (
	shutdownTimeout = 10 * time.Second
	stopTimeout     = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Run the reviewmate REST API in the foreground.
By default it listens on port 8000. Use --port to change it.

Use 'reviewmate serve start' to run it in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context())
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the API server in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background API server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)

	serveCmd.PersistentFlags().IntP("port", "p", 8000, "port to listen on")
	_ = viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))
}

func pidFile() *daemon.PIDFile {
	return daemon.ServerPIDFile(viper.GetString("state_dir"))
}

func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "reviewmate-serve.log")
}

// newAPIServer wires the API server from config.
func newAPIServer(ctx context.Context) (*api.Server, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}

	reviewer, err := newReviewer(ctx)
	if err != nil {
		return nil, err
	}

	oauth := github.NewOAuth(github.OAuthConfig{
		ClientID:     viper.GetString("github.client_id"),
		ClientSecret: viper.GetString("github.client_secret"),
		RedirectURL:  viper.GetString("github.redirect_url"),
	})
	if !oauth.Configured() {
		slog.Warn("github.client_id or github.client_secret not set; GitHub sign-in disabled")
	}

	var issuer *auth.Issuer
	if secret := viper.GetString("auth.jwt_secret"); secret != "" {
		issuer = auth.NewIssuer(secret, viper.GetDuration("auth.token_ttl"))
	} else {
		slog.Warn("auth.jwt_secret not set; all requests are anonymous")
	}

	return api.NewServer(s, reviewer, nil, oauth, issuer, api.Config{
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		MaxBodyBytes:   viper.GetInt64("server.max_body_bytes"),
		FrontendURL:    viper.GetString("server.frontend_url"),
	}), nil
}

// serveRun runs the API server until a shutdown signal arrives, then
// drains in-flight requests.
func serveRun(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	srv, err := newAPIServer(ctx)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("api server listening", "addr", addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func serveStartRun() error {
	pf := pidFile()
	if pid, running := pf.IsRunning(); running {
		return fmt.Errorf("server already running (pid %d)", pid)
	}
	if removed, err := pf.RemoveStale(); err != nil {
		return err
	} else if removed {
		ui.VerboseLog("Removed stale PID file %s", pf.Path)
	}

	port := viper.GetInt("port")
	logPath := serveLogPath()

	if dryRun {
		ui.DryRunMsg("Would start API server on port %d (log: %s)", port, logPath)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	args := []string{"serve", "--port", strconv.Itoa(port)}
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		args = append(args, "--config", cfgFile)
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	detachProcess(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	if err := pf.WritePID(child.Process.Pid); err != nil {
		return err
	}
	_ = child.Process.Release()

	ui.Success("API server started on port %d (pid %d)", port, child.Process.Pid)
	ui.Info("Log: %s", logPath)
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	pid, running := pf.IsRunning()
	if !running {
		_, _ = pf.RemoveStale()
		return fmt.Errorf("server is not running")
	}

	if dryRun {
		ui.DryRunMsg("Would stop API server (pid %d)", pid)
		return nil
	}

	if err := pf.Signal(terminateSignal()); err != nil {
		return err
	}
	if !pf.WaitExit(stopTimeout, 100*time.Millisecond) {
		ui.Warning("Server did not exit after %s; killing", stopTimeout)
		if err := pf.Signal(killSignal()); err != nil {
			return err
		}
	}
	if err := pf.Remove(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove PID file: %w", err)
	}

	ui.Success("API server stopped (pid %d)", pid)
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	if pid, running := pf.IsRunning(); running {
		ui.Success("API server running (pid %d)", pid)
		ui.Info("Log: %s", serveLogPath())
		return nil
	}
	ui.Info("API server not running")
	return nil
}
