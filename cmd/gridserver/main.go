package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/gnemet/gridview"
	"github.com/gnemet/gridview/cache"
	"github.com/gnemet/gridview/config"
	"github.com/gnemet/gridview/database/cursorpool"
	"github.com/gnemet/gridview/i18n"
	"github.com/gnemet/gridview/logging"
)

var index = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Grids</title></head>
<body>
<ul>
{{range .}}<li><a href="/grids/{{.ID}}">{{.Title}}</a></li>
{{end}}</ul>
</body>
</html>
`))

func main() {
	path := os.Getenv("GRIDVIEW_CONFIG")
	if path == "" {
		path = "config.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("failed to load config", "path", path, "err", err)
		os.Exit(1)
	}

	log := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var companion any
	if db, ok := cfg.DefaultDatabase(); ok {
		pool, err := cursorpool.Open(ctx, db.ConnString(), 10, 5*time.Minute, 30*time.Minute)
		if err != nil {
			log.Error("failed to connect database", "database", db.Name, "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		companion = pool
	}

	store, err := cache.New(cfg.Cache, log)
	if err != nil {
		log.Error("failed to build view state cache", "err", err)
		os.Exit(1)
	}

	var translator i18n.Translator
	if file := os.Getenv("GRIDVIEW_MESSAGES"); file != "" {
		if translator, err = loadMessages(file, os.Getenv("GRIDVIEW_LANG")); err != nil {
			log.Error("failed to load messages", "file", file, "err", err)
			os.Exit(1)
		}
	}

	type entry struct{ ID, Title string }
	var entries []entry

	mux := http.NewServeMux()
	for id, def := range cfg.Grids {
		h, err := gridview.NewHandler(cfg, id, companion)
		if err != nil {
			log.Error("failed to build grid handler", "grid", id, "err", err)
			os.Exit(1)
		}
		h.Cache = store
		h.Logger = log
		h.Translator = translator
		mux.Handle("GET /grids/"+id, h)

		title := def.Title
		if title == "" {
			title = i18n.Humanize(id)
		}
		entries = append(entries, entry{ID: id, Title: title})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := index.Execute(w, entries); err != nil {
			log.Error("failed to render index", "err", err)
		}
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}()

	log.Info(fmt.Sprintf("Server starting at http://localhost:%s", cfg.Server.Port), "grids", len(entries))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func loadMessages(file, lang string) (i18n.Translator, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if lang == "" {
		lang = "en"
	}
	return i18n.LoadCatalog(lang, f)
}
