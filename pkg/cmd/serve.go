package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nekruzvatanshoev/carscout/pkg/carscout/server"
)

func init() {
	ServeCmd.Flags().String("address", "", "listen address, e.g. :8080")
	viper.BindPFlag("server.address", ServeCmd.Flags().Lookup("address"))
}

var (
	ServeCmd = &cobra.Command{
		Use:   ServeCmdName,
		Short: ServeCmdShort,
		Long:  ServeCmdLong,
		RunE:  serveCmdFunc,
	}
)

func serveCmdFunc(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}

	serve := server.NewHTTPServer(cfg.Server.Address, a.serverOptions(cfg, log))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", "address", cfg.Server.Address, "dealers", len(a.dealers.All()))
		if err := serve.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down the server", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := serve.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
