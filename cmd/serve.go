package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meridian-bio/triage-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the triage HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(ctx, env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// newRouter builds the API routes. Batch jobs run on background
// goroutines tied to the server context, so an in-flight job survives the
// request but not a shutdown.
func newRouter(serverCtx context.Context, env *triageEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/triage/batch", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Disease string   `json:"disease"`
			Genes   []string `json:"genes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Disease == "" || len(req.Genes) == 0 {
			writeError(w, http.StatusBadRequest, "disease and genes are required")
			return
		}

		disease, err := env.Orchestrator.ResolveDisease(r.Context(), req.Disease)
		if err != nil {
			writeError(w, http.StatusBadGateway, "disease could not be resolved")
			return
		}

		job, err := env.Orchestrator.StartBatch(r.Context(), disease.ID, disease.Name, req.Genes)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "job could not be created")
			return
		}

		go func() {
			if err := env.Orchestrator.RunJob(serverCtx, job.ID); err != nil {
				zap.L().Error("batch job failed",
					zap.String("job", job.ID),
					zap.Error(err),
				)
			}
		}()

		writeJSON(w, http.StatusAccepted, job)
	})

	r.Get("/api/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		job, err := env.Store.GetJob(r.Context(), chi.URLParam(r, "id"))
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "job lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, job)
	})

	r.Get("/api/jobs/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		report, err := env.Store.GetTriageReport(r.Context(), chi.URLParam(r, "id"))
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "report lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	r.Get("/api/reports/{id}", func(w http.ResponseWriter, r *http.Request) {
		report, err := env.Store.GetTargetReport(r.Context(), chi.URLParam(r, "id"))
		if eris.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "report lookup failed")
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
