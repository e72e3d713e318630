package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/updatebot/internal/domain/commands"
	"github.com/rios0rios0/updatebot/internal/domain/entities"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
)

// UpdateLoopController handles the "update-loop" subcommand.
type UpdateLoopController struct {
	loop commands.UpdateLoop
}

// NewUpdateLoopController creates a new UpdateLoopController.
func NewUpdateLoopController(loop commands.UpdateLoop) *UpdateLoopController {
	return &UpdateLoopController{loop: loop}
}

// GetBind returns the Cobra command metadata for the update-loop controller.
func (it *UpdateLoopController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "update-loop",
		Short: "Update the open pull requests until they are all merged",
		Long: `Repeat the update pass every poll period until no repository has a pending
pull request or the timeout elapses. Only the repositories whose status changed
are logged after the first pass.

SIGHUP starts the next pass immediately; SIGINT and SIGTERM stop the loop.`,
	}
}

// Execute runs the polling loop.
func (it *UpdateLoopController) Execute(cmd *cobra.Command, _ []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}

	opts := commands.PollOptions{PollPeriod: settings.PollPeriod, Timeout: settings.PollTimeout}
	if cmd.Flags().Changed("poll-period") {
		opts.PollPeriod, _ = cmd.Flags().GetDuration("poll-period")
	}
	if cmd.Flags().Changed("timeout") {
		opts.Timeout, _ = cmd.Flags().GetDuration("timeout")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wake := make(chan os.Signal, 1)
	signal.Notify(wake, syscall.SIGHUP)
	defer signal.Stop(wake)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-wake:
				it.loop.Wake()
			}
		}
	}()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		server := serveMetrics(addr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	logger.Infof("Polling every %s with a timeout of %s", opts.PollPeriod, opts.Timeout)
	outcome, err := it.loop.Run(ctx, settings, opts)
	if err != nil {
		logger.Errorf("Update loop stopped: %v", err)
		return
	}
	logger.Infof("Update loop finished: %s", outcome)
}

// AddFlags adds the update-loop specific flags to the given Cobra command.
func (it *UpdateLoopController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("poll-period", entities.DefaultPollPeriod, "Time to wait between passes")
	cmd.Flags().Duration("timeout", entities.DefaultPollTimeout, "Give up after this long; 0 or less waits forever")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		logger.Infof("Serving metrics on %s/metrics", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Metrics server failed: %v", err)
		}
	}()
	return server
}
