package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/teamleave/leaveapi/internal/db/bunx"
	"github.com/teamleave/leaveapi/internal/repository"
	"github.com/teamleave/leaveapi/internal/server"
	"github.com/teamleave/leaveapi/internal/view"
)

// version is stamped at build time via -ldflags.
var version = "dev"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the leave API server",
	Long:  `Starts the HTTP server rendering the vacation request and account form flows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logrus.StandardLogger()

		// Connect to database
		db, err := bunx.NewDB(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer bunx.Close(db)

		log.Info("connected to database")

		sessions := view.NewSessionManager(cfg.SessionSecret)

		// Directory bind when configured, stored bcrypt hashes
		// otherwise.
		var authenticator server.Authenticator
		if cfg.Enabled() {
			client, err := directoryClient()
			if err != nil {
				return err
			}
			authenticator = &server.DirectoryAuthenticator{Client: client}
			log.WithField("url", cfg.LDAPURL).Info("directory authentication enabled")
		} else {
			authenticator = &server.LocalAuthenticator{}
			log.Info("directory disabled, using local authentication")
		}

		dispatcher := &view.Dispatcher{
			DB: db,
			NewUsers: func(db bun.IDB) repository.UserRepository {
				return repository.NewBunUserRepository(db)
			},
			NewRequests: func(db bun.IDB) repository.LeaveRequestRepository {
				return repository.NewBunLeaveRequestRepository(db)
			},
			Sessions: sessions,
			Routes:   server.ResolveRoute,
			Version:  version,
			Log:      log,
		}

		r := server.NewRouter(server.RouterOptions{
			Dispatcher: dispatcher,
			Auth:       authenticator,
		})

		// Wrap router with h2c for HTTP/2 cleartext support
		h2cHandler := h2c.NewHandler(r, &http2.Server{})

		srv := &http.Server{
			Addr:         cfg.ServerAddr,
			Handler:      h2cHandler,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		// Start server in goroutine
		serverErrors := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.ServerAddr).Info("starting server")
			serverErrors <- srv.ListenAndServe()
		}()

		// Wait for interrupt signal
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			log.WithField("signal", sig.String()).Info("shutting down gracefully")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				srv.Close()
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}

			log.Info("server stopped")
			return nil
		}
	},
}
