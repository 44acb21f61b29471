package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/mockapi"
)

var (
	mockAddr        string
	mockEmail       string
	mockPassword    string
	mockAutoAdvance bool
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve a local fake Addressable API with demo data",
	Long: `Serve a local fake of the Addressable API seeded with demo mailings and
leads. Point the client at it with --origin http://localhost:8089.`,
	Args: cobra.NoArgs,
	RunE: runMockServer,
}

func init() {
	f := mockServerCmd.Flags()
	f.StringVar(&mockAddr, "addr", "127.0.0.1:8089", "listen address")
	f.StringVar(&mockEmail, "email", mockapi.DefaultEmail, "accepted email")
	f.StringVar(&mockPassword, "password", mockapi.DefaultPassword, "accepted password")
	f.BoolVar(&mockAutoAdvance, "auto-advance", true, "advance audience lists one stage per fetch")

	rootCmd.AddCommand(mockServerCmd)
}

func runMockServer(cmd *cobra.Command, args []string) error {
	logger := logging.New(cmd.ErrOrStderr(), "info")
	srv := mockapi.New(mockapi.Options{
		Email:           mockEmail,
		Password:        mockPassword,
		AutoAdvanceList: mockAutoAdvance,
		Logger:          logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(mockAddr)
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "Mock API on http://%s (sign in as %s / %s)\n", mockAddr, mockEmail, mockPassword)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mock api: %w", err)
	case <-cmd.Context().Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
