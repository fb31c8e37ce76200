/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	backendMemory    = "memory"
	backendSQLite    = "sqlite"
	backendFirestore = "firestore"
)

type Config struct {
	bind                string
	content             string
	firestoreCollection string
	firestoreProject    string
	guestbook           string
	guestbookDB         string
	mediaDir            string
	port                int
	prefix              string
	profile             bool
	resultDelay         time.Duration
	sessionTimeout      time.Duration
	tlsCert             string
	tlsKey              string
	verbose             bool
	version             bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.resultDelay < 0 {
		return fmt.Errorf("invalid result delay (must not be negative): %s", c.resultDelay)
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout (must not be negative): %s", c.sessionTimeout)
	}

	switch c.guestbook {
	case backendMemory:
	case backendSQLite:
		if c.guestbookDB == "" {
			return errors.New("--guestbook-db is required when --guestbook=sqlite")
		}
	case backendFirestore:
		if c.firestoreProject == "" {
			return errors.New("--firestore-project is required when --guestbook=firestore")
		}
	default:
		return fmt.Errorf("invalid guestbook backend (must be one of memory, sqlite, firestore): %q", c.guestbook)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TIMELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "timeline",
		Short:         "A graduation timeline of mini-games, photos and notes, served as a single webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TIMELINE_BIND)")
	fs.StringVar(&cfg.content, "content", "", "path to a timeline yaml file, instead of the built-in one (env: TIMELINE_CONTENT)")
	fs.StringVar(&cfg.firestoreCollection, "firestore-collection", "notes", "firestore collection holding guestbook notes (env: TIMELINE_FIRESTORE_COLLECTION)")
	fs.StringVar(&cfg.firestoreProject, "firestore-project", "", "google cloud project for the firestore guestbook (env: TIMELINE_FIRESTORE_PROJECT)")
	fs.StringVar(&cfg.guestbook, "guestbook", backendMemory, "guestbook backend: memory, sqlite or firestore (env: TIMELINE_GUESTBOOK)")
	fs.StringVar(&cfg.guestbookDB, "guestbook-db", "", "path to the sqlite guestbook database (env: TIMELINE_GUESTBOOK_DB)")
	fs.StringVar(&cfg.mediaDir, "media-dir", "media", "directory served under /media (env: TIMELINE_MEDIA_DIR)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TIMELINE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TIMELINE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TIMELINE_PROFILE)")
	fs.DurationVar(&cfg.resultDelay, "result-delay", 3*time.Second, "how long a won game shows its reward before counting (env: TIMELINE_RESULT_DELAY)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle browser sessions are forgotten (env: TIMELINE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TIMELINE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TIMELINE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TIMELINE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TIMELINE_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("timeline v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
