// Command ruleconfd serves configuration resolution to long-lived hosts
// over a Unix domain socket. Archives mounted while resolving stay mounted
// for the lifetime of the daemon.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lc/ruleconf/internal/buildinfo"
	"github.com/lc/ruleconf/internal/log"
	"github.com/lc/ruleconf/internal/mount"
	"github.com/lc/ruleconf/internal/resolve"
	"github.com/lc/ruleconf/internal/socket"
	"github.com/lc/ruleconf/pkg/api"
)

func main() {
	var (
		sockPath string
		debug    bool
	)

	root := &cobra.Command{
		Use:     "ruleconfd",
		Short:   "Configuration resolution daemon",
		Version: buildinfo.String(),
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			log.SetDebug(debug)
			defer log.Sync()
			return serve(sockPath)
		},
	}
	root.Flags().StringVar(&sockPath, "socket", socket.DefaultPath(), "Unix socket to listen on")
	root.Flags().BoolVar(&debug, "debug", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(sockPath string) error {
	mounts := mount.Default()
	srv := api.New(resolve.New(), mounts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(sockPath)
	}()
	log.Info("ruleconfd: listening", "socket", sockPath, "version", buildinfo.Version)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-sig:
		log.Info("ruleconfd: shutting down…")
	}

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("api shutdown error: %v", err)
	}
	if err := mounts.Close(); err != nil {
		log.Errorf("closing mounts: %v", err)
	}
	_ = os.Remove(sockPath)
	return nil
}
