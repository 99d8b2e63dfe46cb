package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crustdata.com/support-chatbot/internal/api"
	"crustdata.com/support-chatbot/internal/auth"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web chat and JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		chatService, res, err := newChatService(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := res.Close(); err != nil {
				log.Printf("Error closing resources: %v", err)
			}
		}()

		signer, err := auth.NewSessionSigner(cfg.SessionSecret, auth.DefaultSessionTTL)
		if err != nil {
			return err
		}
		router := api.NewRouter(api.NewAPIHandler(chatService, signer))

		serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
		srv := &http.Server{
			Addr:         serverAddr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: cfg.RequestTimeout + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("could not listen on %s: %w", serverAddr, err)
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		log.Println("Server exiting gracefully")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "", "HTTP port")
	_ = viperBind("HTTP_PORT", serveCmd, "port")
	rootCmd.AddCommand(serveCmd)
}
