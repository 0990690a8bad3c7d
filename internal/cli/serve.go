package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Daunte502/RNG/core/server"
)

func NewServeCommand(root *RootOptions) *cobra.Command {
	var channelQueue int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and update workers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := root.Config

			options := []server.ConfigOption{
				server.WithLogger(root.Logger),
				server.WithMongoDB(cfg.Mongo()),
				server.WithTimeout(cfg.DB.Timeout),
				server.WithWorkerCount(cfg.Worker.Count),
				server.WithPort(cfg.HTTP.Port),
			}
			if channelQueue == 0 {
				channelQueue = cfg.Worker.QueueCapacity
			}
			switch {
			case cfg.KafkaEnabled():
				options = append(options, server.WithKafka(cfg.KafkaQueue()))
			case channelQueue > 0:
				options = append(options, server.WithChannelQueue(channelQueue))
			}

			srv, err := server.NewServer(options...)
			if err != nil {
				return err
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			go func() {
				<-ctx.Done()
				root.Logger.Info("Shutdown signal received")
			}()

			if err := srv.Start(ctx); err != nil {
				return err
			}
			root.Logger.Info("Server shutdown complete")
			return nil
		},
	}

	cmd.Flags().IntVar(&channelQueue, "queue", 0, "buffer updates through an in-process queue of this capacity")
	return cmd
}

func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
