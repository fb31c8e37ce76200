/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
)

func humanReadableSize(bytes int64) string {
	const unit int64 = 1000
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := unit, 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB",
		float64(bytes)/float64(div),
		"kMGTPE"[exp])
}

// serveMedia serves photos, audio and video from the media directory.
// Range requests are honoured so the browser can seek through video.
func serveMedia(cfg *Config) httprouter.Handle {
	root := os.DirFS(cfg.mediaDir)

	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		fname := strings.TrimPrefix(path.Clean("/"+p.ByName("filepath")), "/")

		info, err := fs.Stat(root, fname)
		if err != nil || info.IsDir() {
			securityHeaders(cfg, w)
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Cache-Control", "public, max-age=86400")
		securityHeaders(cfg, w)

		http.ServeFileFS(w, r, root, fname)

		logf(cfg, "SERVE: Media %s (%s) to %s in %s",
			fname,
			humanReadableSize(info.Size()),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}
