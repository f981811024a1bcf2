// Command fusefeed runs the feed fusion HTTP server: it routes
// GET /feeds/{id} and GET /feeds/{id}/rss to the fused-feed engine and
// republishes the merged, filtered entry stream as Atom or RSS.
//
// This command is the external listener: everything it does beyond wiring
// the core packages together (routing, status-code mapping, Atom/RSS XML
// encoding via gorilla/feeds) is explicitly out of scope for the core's
// own correctness.
package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/feeds"

	"github.com/fusefeed/fusefeed/internal/config"
	"github.com/fusefeed/fusefeed/internal/fusion"
	"github.com/fusefeed/fusefeed/internal/republish"
	"github.com/fusefeed/fusefeed/internal/specstore"
)

func main() {
	cfg := config.Load()

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		MaxAge:         300,
	}))

	srv := &server{cfg: cfg}
	r.Get("/feeds/{id}", srv.handleAtom)
	r.Get("/feeds/{id}/rss", srv.handleRSS)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("fusefeed starting on port %s (config root %s)", cfg.Port, cfg.ConfigRoot)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("fusefeed: server failed: %v", err)
	}
}

type server struct {
	cfg config.Config
}

func (s *server) handleAtom(w http.ResponseWriter, r *http.Request) {
	feed, err := s.buildFeed(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := feed.ToAtom()
	if err != nil {
		http.Error(w, "error rendering feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/atom+xml; charset=utf-8")
	w.Write([]byte(out))
}

func (s *server) handleRSS(w http.ResponseWriter, r *http.Request) {
	feed, err := s.buildFeed(r)
	if err != nil {
		writeError(w, err)
		return
	}
	out, err := feed.ToRss()
	if err != nil {
		http.Error(w, "error rendering feed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(out))
}

// buildFeed loads the feed definition, runs one fetch cycle, and adapts the result
// into a *feeds.Feed ready for gorilla/feeds to encode.
func (s *server) buildFeed(r *http.Request) (*feeds.Feed, error) {
	id := chi.URLParam(r, "id")
	ff, err := specstore.Load(s.cfg.ConfigRoot, id)
	if err != nil {
		return nil, err
	}

	coord := fusion.New()
	coord.MaxWorkers = s.cfg.MaxWorkers
	coord.FetchTimeout = s.cfg.FetchTimeout
	coord.WaitTimeout = s.cfg.CoordinatorTimeout

	if err := coord.Fetch(r.Context(), ff); err != nil {
		return nil, err
	}

	requestRoot := requestRootURL(r)
	model := republish.Adapt(ff, requestURL(r), requestRoot)
	return toGorillaFeed(model), nil
}

func toGorillaFeed(m republish.Feed) *feeds.Feed {
	feed := &feeds.Feed{
		Title:   m.Name,
		Link:    &feeds.Link{Href: m.SelfURL},
		Created: time.Now().UTC(),
	}
	for _, item := range m.Items {
		fi := &feeds.Item{
			Id:      item.ID,
			Title:   item.Title,
			Link:    &feeds.Link{Href: item.Link},
			Author:  &feeds.Author{Name: item.Author},
			Created: item.PubDate,
			Updated: item.UpdateDate,
		}
		if item.Summary != "" {
			fi.Description = item.Summary
		}
		if item.Content != "" {
			fi.Content = item.Content
		}
		if len(item.Enclosures) > 0 {
			enc := item.Enclosures[0]
			fi.Enclosure = &feeds.Enclosure{Url: enc.Href, Type: enc.Type, Length: enc.Length}
		}
		feed.Items = append(feed.Items, fi)
	}
	return feed
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, specstore.ErrNotFound) {
		http.NotFound(w, nil)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

func requestRootURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/"
}
