// README: serve wires stores, oracle, notifications and the HTTP API from config.
package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nearmatch/internal/ai"
	"nearmatch/internal/config"
	httptransport "nearmatch/internal/http"
	"nearmatch/internal/http/handlers"
	"nearmatch/internal/infra"
	"nearmatch/internal/maps"
	"nearmatch/internal/modules/location"
	"nearmatch/internal/modules/matching"
	"nearmatch/internal/modules/notify"
	"nearmatch/internal/modules/profile"
	"nearmatch/internal/modules/tracking"
)

type profileBackend interface {
	tracking.ProfileStore
	location.CandidateSource
	handlers.ProfileWriter
	notify.TokenSource
}

type matchBackend interface {
	matching.PairStore
	notify.MatchLister
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and tracking engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.cfg, opts.log)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	profiles, matches, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeStores)

	oracle, llm, err := ai.NewOracle(ctx, cfg.Oracle)
	if err != nil {
		return fmt.Errorf("oracle init: %w", err)
	}
	if c, ok := llm.(io.Closer); ok {
		cleanups = append(cleanups, func() { _ = c.Close() })
	}

	var verifier infra.TokenVerifier
	var sink notify.Sink = notify.NewLogSink(log)
	if cfg.Firebase.ProjectID != "" {
		app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return err
		}
		if verifier, err = infra.NewFirebaseVerifier(ctx, app); err != nil {
			return err
		}
		if cfg.Notify.Sink == "fcm" {
			client, err := infra.NewMessagingClient(ctx, app)
			if err != nil {
				return err
			}
			sink = notify.NewFCMSink(client, profiles)
		}
	} else {
		log.Warn("firebase project not configured; authentication disabled")
	}

	var places notify.PlaceResolver
	if cfg.Maps.APIKey != "" {
		geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey, "en")
		if err != nil {
			return err
		}
		places = geocoder
	}

	engine := tracking.NewEngine(tracking.EngineDeps{
		Profiles:  profiles,
		Matches:   matches,
		Finder:    location.NewFinder(profiles, cfg.Tracking.BoxMarginDeg),
		Evaluator: matching.NewEvaluator(matches, oracle, log),
		Notify: notify.Deps{
			Sink:     sink,
			Matches:  matches,
			Profiles: profiles,
			Places:   places,
			Capacity: cfg.Tracking.NotifiedCapacity,
			Log:      log,
		},
		Config: cfg.Tracking,
		Log:    log,
	})
	cleanups = append(cleanups, engine.Shutdown)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Engine:   engine,
		Profiles: profiles,
		Verifier: verifier,
		Log:      log,
	})
	return httptransport.NewServer(cfg.HTTP.Addr, router, log).Run(ctx)
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (profileBackend, matchBackend, func(), error) {
	if cfg.Store.Backend == "memory" {
		log.Warn("using in-memory stores; data is lost on exit")
		return profile.NewMemoryStore(), matching.NewMemoryStore(), func() {}, nil
	}

	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return nil, nil, nil, err
	}
	pg := profile.NewStore(db)
	matches := matching.NewStore(db)
	if cfg.Store.Index != "redis" {
		return pg, matches, db.Close, nil
	}

	rdb, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	closeAll := func() {
		_ = rdb.Close()
		db.Close()
	}
	return profile.NewIndexedStore(pg, rdb), matches, closeAll, nil
}
