package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/interview-practice/internal/fakebackend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a canned interview backend for offline practice",
	Run: func(_ *cobra.Command, _ []string) {
		runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8000", "address to listen on")
	serveCmd.Flags().Duration("latency", 0, "artificial delay added to every response")
	serveCmd.Flags().StringSlice("questions", nil, "questions to ask instead of the built-in ones")
	serveCmd.Flags().StringSlice("allow-origins", nil, "CORS origins allowed to call the backend")

	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	viper.BindPFlag("serve.latency", serveCmd.Flags().Lookup("latency"))
	viper.BindPFlag("serve.questions", serveCmd.Flags().Lookup("questions"))
	viper.BindPFlag("serve.allow-origins", serveCmd.Flags().Lookup("allow-origins"))
}

func runServe() {
	logger, config := setup(false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Serve.Config
	cfg.Debug = config.Debug

	if err := fakebackend.New(cfg, logger).ListenAndServe(ctx, config.Serve.Addr); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}
