/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/timeline/guestbook"
)

const maxNoteBody = 4096

type noteRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NotesMessage is pushed over the guestbook socket on every change.
type NotesMessage struct {
	Type  string            `json:"type"` // "notes"
	Notes []guestbook.Entry `json:"notes"`
}

func openGuestbook(ctx context.Context, cfg *Config) (guestbook.Backend, error) {
	switch cfg.guestbook {
	case backendSQLite:
		return guestbook.OpenSQLite(cfg.guestbookDB)
	case backendFirestore:
		return guestbook.NewFirestore(ctx, cfg.firestoreProject, cfg.firestoreCollection)
	case backendMemory:
		return guestbook.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown guestbook backend %q", cfg.guestbook)
	}
}

func serveNotes(cfg *Config, errs chan<- error, feed *guestbook.Feed) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		entries, err := feed.List(r.Context())
		if err != nil {
			logf(cfg, "ERROR: %v", err)
			securityHeaders(cfg, w)
			http.Error(w, "Unable to load notes.", http.StatusServiceUnavailable)

			return
		}
		if entries == nil {
			entries = []guestbook.Entry{}
		}

		written, err := writeJSON(cfg, w, http.StatusOK, entries)
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Notes (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func readNote(w http.ResponseWriter, r *http.Request) (noteRequest, error) {
	var req noteRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxNoteBody)

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Name = r.PostFormValue("name")
		req.Message = r.PostFormValue("message")
	default:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, err
		}
	}

	return req, nil
}

func addNote(cfg *Config, errs chan<- error, feed *guestbook.Feed) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		req, err := readNote(w, r)
		if err != nil {
			securityHeaders(cfg, w)
			http.Error(w, "Malformed note.", http.StatusBadRequest)

			return
		}

		e, err := feed.Submit(r.Context(), req.Name, req.Message)
		switch {
		case errors.Is(err, guestbook.ErrEmptyName), errors.Is(err, guestbook.ErrEmptyMessage):
			securityHeaders(cfg, w)
			http.Error(w, err.Error(), http.StatusBadRequest)

			return
		case err != nil:
			logf(cfg, "ERROR: %v", err)
			securityHeaders(cfg, w)
			http.Error(w, "Unable to save note.", http.StatusServiceUnavailable)

			return
		}

		logf(cfg, "NOTES: %s left note %s from %s", e.Name, e.ID, realIP(r))

		if _, err := writeJSON(cfg, w, http.StatusCreated, e); err != nil {
			errs <- err
		}
	}
}

func serveNotesSocket(cfg *Config, feed *guestbook.Feed) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Guestbook upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		updates, unsubscribe, err := feed.Subscribe(ctx)
		if err != nil {
			logf(cfg, "ERROR: %v", err)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "guestbook unavailable"))
			return
		}
		defer unsubscribe()

		// The browser never talks on this socket; reading only notices it leave.
		go func() {
			defer cancel()

			conn.SetReadLimit(512)
			for {
				if _, _, err := conn.NextReader(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case entries := <-updates:
				if entries == nil {
					entries = []guestbook.Entry{}
				}

				_ = conn.SetWriteDeadline(time.Now().Add(timeout))
				if err := conn.WriteJSON(NotesMessage{Type: "notes", Notes: entries}); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}
