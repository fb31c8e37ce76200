/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/timeline/progress"
)

type progressResponse struct {
	Progress        progress.Table  `json:"progress"`
	Completed       []progress.Year `json:"completed"`
	GalleryUnlocked bool            `json:"gallery_unlocked"`
}

type galleryResponse struct {
	Year    progress.Year `json:"year"`
	Title   string        `json:"title"`
	Caption string        `json:"caption"`
	Photos  []Photo       `json:"photos"`
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) (int, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	return w.Write(data)
}

func serveProgress(cfg *Config, errs chan<- error, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		s := sm.get(getOrSetSessionID(cfg, w, r))

		completed := s.store.CompletedYears()

		written, err := writeJSON(cfg, w, http.StatusOK, progressResponse{
			Progress:        s.store.Snapshot(),
			Completed:       completed,
			GalleryUnlocked: len(completed) > 0,
		})
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Progress (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// serveGallery lists a year's photos, but only once that year's game has
// been won in this session.
func serveGallery(cfg *Config, errs chan<- error, sm *SessionManager, timeline *Timeline) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		year, ok := progress.ParseYear(p.ByName("year"))
		if !ok {
			http.NotFound(w, r)

			return
		}

		s := sm.get(getOrSetSessionID(cfg, w, r))
		if !s.store.IsGameCompleted(year) {
			securityHeaders(cfg, w)
			http.Error(w, "Complete this year's game to unlock its photos.", http.StatusForbidden)

			return
		}

		c, _ := timeline.year(year)
		r2 := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))

		written, err := writeJSON(cfg, w, http.StatusOK, galleryResponse{
			Year:    year,
			Title:   c.Title,
			Caption: string(c.CaptionHTML()),
			Photos:  timeline.photos(cfg.prefix, year, r2),
		})
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Gallery %d (%s) to %s in %s",
			year,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
