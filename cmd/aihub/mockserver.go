package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"

	"github.com/pders01/aihub/internal/debuglog"
	"github.com/pders01/aihub/internal/mockapi"
)

const shutdownTimeout = 5 * time.Second

var (
	mockAddr    string
	mockLatency time.Duration
	mockQuiet   bool
	mockSecret  string
)

var mockServerCmd = &cobra.Command{
	Use:   "mock-server",
	Short: "Serve the seeded mock backend",
	Long: `Serve an in-memory AI Tool Hub backend with the seed catalog under
/api. Accounts user1@example.com to user4@example.com share the password
"password". State is lost on exit.`,
	Example:     `  aihub mock-server --addr :8080 --latency 300ms`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipConfig: "true"},
	RunE:        runMockServer,
}

func init() {
	f := mockServerCmd.Flags()
	f.StringVar(&mockAddr, "addr", ":8080", "listen address")
	f.DurationVar(&mockLatency, "latency", 0, "delay added to every response")
	f.BoolVar(&mockQuiet, "quiet", false, "do not log requests")
	f.StringVar(&mockSecret, "secret", "", "token signing secret")
}

// newMockHandler mounts the mock backend where the default config expects
// the API.
func newMockHandler(backend *mockapi.Server) http.Handler {
	r := chi.NewRouter()
	r.Mount("/api", backend)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func runMockServer(cmd *cobra.Command, _ []string) error {
	if debug {
		if err := debuglog.Setup(debuglog.LevelDebug); err != nil {
			return err
		}
	}

	ln, err := net.Listen("tcp", mockAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", mockAddr, err)
	}
	srv := &http.Server{
		Handler: newMockHandler(mockapi.New(mockapi.Options{
			Secret:      mockSecret,
			Latency:     mockLatency,
			LogRequests: !mockQuiet,
		})),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Mock backend listening on http://%s/api\n", ln.Addr())
	debuglog.Infof("mock backend listening on %s", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-commandContext(cmd).Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Mock backend stopped")
	return nil
}
