package commands

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rostat-backend/lib/serviceutil"
	"rostat-backend/services/events"
	eventsdb "rostat-backend/services/events/db"
	"rostat-backend/services/server"

	"github.com/spf13/cobra"

	_ "modernc.org/sqlite"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the cached club data over HTTP.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := readConfig()

		options := server.Options{Logbook: newLogbook(config)}

		if config.Events.Database != "" {
			sqlite, err := sql.Open("sqlite", config.Events.Database)
			if err != nil {
				serviceutil.Fatal("failed to open events db", err)
			}
			defer sqlite.Close()
			_, err = sqlite.ExecContext(ctx, eventsdb.Schema)
			if err != nil {
				serviceutil.Fatal("failed to apply events schema", err)
			}

			portal, err := newRokort(ctx, config)
			if err != nil {
				serviceutil.Fatal("failed to log in to the calendar portal", err)
			}

			eventsService := events.NewService(sqlite, portal)
			schedule := config.Events.Schedule
			if schedule == "" {
				schedule = "@hourly"
			}
			err = eventsService.StartSyncDaemon(ctx, schedule)
			if err != nil {
				serviceutil.Fatal("failed to start event sync daemon", err)
			}
			options.Events = &eventsService
		}

		addr := config.Server.Addr
		if addr == "" {
			addr = ":8080"
		}

		srv := &http.Server{
			Addr:         addr,
			Handler:      server.NewServer(options).Router(),
			ReadTimeout:  time.Second * 10,
			WriteTimeout: time.Second * 30,
			IdleTimeout:  time.Second * 60,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			if err != nil {
				slog.Error("failed to shut down cleanly", "err", err)
			}
		}()

		slog.Info("listening", "addr", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceutil.Fatal("server exited", err)
		}
	},
}
