package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeassist-ai/codeassist/internal/engine"
	"github.com/codeassist-ai/codeassist/internal/event"
	"github.com/codeassist-ai/codeassist/internal/logging"
	"github.com/codeassist-ai/codeassist/internal/model"
	"github.com/codeassist-ai/codeassist/internal/server"
	"github.com/codeassist-ai/codeassist/internal/session"
)

var (
	servePort int
	serveCORS bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the codeassist HTTP server",
	Long: `Start codeassist as an HTTP server exposing the session, message,
and model-lifecycle API, with server-sent events on /event.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().BoolVar(&serveCORS, "cors", true, "Enable CORS")
}

func runServe(cmd *cobra.Command, args []string) error {
	appConfig, err := loadConfig()
	if err != nil {
		return err
	}

	bus := event.NewBus()
	defer bus.Close()

	store := session.NewStore(
		session.WithTimeout(time.Duration(appConfig.SessionTimeout)*time.Second),
		session.WithSweepInterval(time.Duration(appConfig.SweepInterval)*time.Second),
		session.WithBus(bus),
	)
	store.Start()
	defer store.Stop()

	models := model.NewManager(engine.NewLoader(appConfig), bus)

	serverConfig := server.DefaultConfig()
	serverConfig.Port = servePort
	serverConfig.EnableCORS = serveCORS

	srv, err := server.New(serverConfig, appConfig, store, models, bus)
	if err != nil {
		return err
	}

	go func() {
		logging.Info().
			Str("version", Version).
			Int("port", servePort).
			Str("model", appConfig.Model).
			Msg("server listening")
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logging.Error().Err(err).Msg("server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown error")
	}
	return nil
}
