package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// serve exposes the computed results as a read-only JSON API for a dashboard
// front-end. No computation happens server-side; every endpoint serves the
// single pipeline run.
func serve(addr string, res *Results) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(res),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("serving results", "addr", addr)
	fmt.Printf("Dashboard API listening on %s\n", addr)
	return srv.ListenAndServe()
}

func newRouter(res *Results) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, map[string]string{"status": "ok"})
		})
		r.Get("/ranking", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, map[string]interface{}{
				"ranked":   res.Ranked,
				"excluded": res.Excluded,
			})
		})
		r.Get("/feasibility", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, res.ProForma)
		})
		r.Get("/sensitivity", func(w http.ResponseWriter, req *http.Request) {
			render.JSON(w, req, res.Sensitivity)
		})
	})

	return r
}
