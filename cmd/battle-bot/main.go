package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/battle"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/bot"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/catalog"
	appcfg "github.com/Applesaucesomer/Goblin-Battle-Arena/internal/config"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/ledger"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/matchmaking"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/msgcat"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/notify"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/obslog"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/relay"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/web"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	headers := func() map[string]string {
		h := map[string]string{}
		if cfg.XUserID != "" {
			h["X-User-Id"] = cfg.XUserID
		}
		if cfg.XSessionID != "" {
			h["X-Session-Id"] = cfg.XSessionID
		}
		return h
	}

	client := relay.NewClient(cfg.RelayBaseURL, relay.WithHeaderProvider(headers))

	ws := relay.NewWebSocket(cfg.RelayWSURL, 5, time.Second)
	ws.SetHeaderProvider(headers)
	ws.OnStateChange(func(state relay.WebSocketState) {
		obslog.L().Info("relay_ws_state", zap.String("state", string(state)))
	})

	egress := relay.NewEgress(cfg.EgressMode, cfg.DryRun, client, ws, obslog.L())

	db, err := ledger.OpenDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := ledger.EnsureSchema(schemaCtx, db); err != nil {
		schemaCancel()
		log.Fatalf("schema error: %v", err)
	}
	schemaCancel()

	storeTimeout := time.Duration(cfg.StoreTimeoutSec) * time.Second
	store := ledger.NewPostgresStore(db, storeTimeout)

	repo := catalog.NewRepository(db, storeTimeout)
	snap := catalog.NewSnapshot(repo)
	if err := snap.Refresh(context.Background()); err != nil {
		obslog.L().Warn("initial_catalog_load_failed", zap.Error(err))
	}

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()
	snap.StartRefresh(rootCtx, time.Duration(cfg.CatalogRefreshSec)*time.Second)

	coord := battle.NewCoordinator()
	coord.AttachRecorder(store)

	notifier, err := notify.New(cfg.RedisURL)
	if err != nil {
		obslog.L().Warn("redis_unavailable", zap.Error(err))
		notifier = nil
	}

	cat, err := msgcat.New(os.Getenv("MSG_TEMPLATE_DIR"))
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	selector := matchmaking.NewSelector()
	handler := bot.NewHandler(cfg, egress, coord, selector, snap, store, cat, notifier)

	ws.OnEvent(func(ev *relay.Event) {
		// Command work hits the store; keep it off the WS read loop.
		go handler.HandleEvent(rootCtx, ev)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPListenAddr,
		Handler:           web.NewServer(cfg, coord, store, repo, snap, notifier).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		obslog.L().Info("http_listen", zap.String("addr", cfg.HTTPListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obslog.L().Error("http_server_error", zap.Error(err))
		}
	}()

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		log.Fatalf("ws connect error: %v", err)
	}
	cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("shutting_down")
	rootCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = srv.Shutdown(shutCtx)
	shutCancel()

	_ = ws.Close(context.Background())
	_ = notifier.Close()
	_ = db.Close()
}
