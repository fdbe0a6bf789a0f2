package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/pavelanni/examlayout/internal/handler"
	appI18n "github.com/pavelanni/examlayout/internal/i18n"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	cmd.Flags().StringP("addr", "a", ":8080", "HTTP listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	lang := a.v.GetString("lang")
	h := handler.New(a.store, a.editor)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := a.v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"driver", a.store.Driver(),
		"lang", lang,
		"redis", a.v.GetString("redis-addr") != "",
	)
	return http.ListenAndServe(addr, r)
}
