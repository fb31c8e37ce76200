/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/timeline/games"
)

//go:embed assets/*
var assets embed.FS

//go:embed templates/*
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

type markerView struct {
	YearContent

	Completed bool
	Playable  bool
}

type pageData struct {
	Prefix          string
	Version         string
	Favicon         template.HTML
	Timeline        *Timeline
	Markers         []markerView
	GalleryUnlocked bool
}

func serveHomePage(cfg *Config, errs chan<- error, sm *SessionManager, timeline *Timeline) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		s := sm.get(getOrSetSessionID(cfg, w, r))

		data := pageData{
			Prefix:   cfg.prefix,
			Version:  releaseVersion,
			Favicon:  template.HTML(getFavicon(cfg.prefix)),
			Timeline: timeline,
		}
		for _, c := range timeline.Years {
			done := s.store.IsGameCompleted(c.Year)
			data.Markers = append(data.Markers, markerView{
				YearContent: c,
				Completed:   done,
				Playable:    games.HasGame(c.Year),
			})
			data.GalleryUnlocked = data.GalleryUnlocked || done
		}

		var buf bytes.Buffer
		if err := pageTemplate.Execute(&buf, data); err != nil {
			errs <- err
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			securityHeaders(cfg, w)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(newPage(cfg.prefix, "Server Error", "An error has occurred. Please try again.")))

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		written, err := w.Write(buf.Bytes())
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Timeline (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveHealthCheck(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)

		_, err := w.Write([]byte("Ok\n"))
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveAssets(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, cfg.prefix), "/")

		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		ext := strings.ToLower(filepath.Ext(fname))
		switch ext {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		case ".svg":
			w.Header().Set("Content-Type", "image/svg+xml")
		}

		_, err = w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

func serveRobots(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		data := `User-agent: *
Disallow: /ws
Disallow: /guestbook
Disallow: /gallery/

User-agent: Amazonbot
Disallow: /

User-agent: Applebot-Extended
Disallow: /

User-agent: Bytespider
Disallow: /

User-agent: CCBot
Disallow: /

User-agent: ClaudeBot
Disallow: /

User-agent: Google-Extended
Disallow: /

User-agent: GPTBot
Disallow: /

User-agent: meta-externalagent
Disallow: /`

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(cfg, w)

		_, err := w.Write([]byte(data))
		if err != nil {
			errs <- err

			return
		}
	}
}
