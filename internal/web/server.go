// Package web serves the read-only dashboard API and the token-protected
// machine roster admin surface.
package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/battle"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/catalog"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/config"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/ledger"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/notify"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/obslog"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/views"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/pkg/battledto"
)

// MachineAdmin is the roster mutation surface backing the admin routes.
type MachineAdmin interface {
	LoadAll(ctx context.Context) ([]domain.Machine, error)
	Add(ctx context.Context, in catalog.MachineInput) (int64, error)
	Update(ctx context.Context, id int64, in catalog.MachineInput) error
	Delete(ctx context.Context, id int64) error
}

// MachineSource provides the cached active machine set.
type MachineSource interface {
	Active() []domain.Machine
	Refresh(ctx context.Context) error
}

type Server struct {
	cfg      *config.AppConfig
	coord    *battle.Coordinator
	store    ledger.Store
	admin    MachineAdmin
	machines MachineSource
	notifier *notify.Notifier

	now func() time.Time
}

func NewServer(cfg *config.AppConfig, coord *battle.Coordinator, store ledger.Store,
	admin MachineAdmin, machines MachineSource, notifier *notify.Notifier) *Server {
	return &Server{
		cfg:      cfg,
		coord:    coord,
		store:    store,
		admin:    admin,
		machines: machines,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Server) Router() *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Admin-Token"},
		MaxAge:         300,
	}))

	router.Get("/healthz", s.handleHealth)

	router.Route("/api", func(r chi.Router) {
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/battles/active", s.handleActiveBattles)
		r.Get("/battles/recent", s.handleRecentBattles)
		r.Get("/contest", s.handleContest)
	})

	router.Route("/admin/machines", func(r chi.Router) {
		r.Use(s.requireAdminToken)
		r.Get("/", s.handleListMachines)
		r.Post("/", s.handleAddMachine)
		r.Put("/{id}", s.handleUpdateMachine)
		r.Delete("/{id}", s.handleDeleteMachine)
	})

	return router
}

func (s *Server) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-Admin-Token"))
		if s.cfg.AdminToken == "" || token != s.cfg.AdminToken {
			errorResponse(w, http.StatusUnauthorized, "invalid admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	filter := ledger.FilterAllTime
	period := "all_time"
	if strings.EqualFold(r.URL.Query().Get("period"), "month") {
		filter = ledger.FilterCurrentMonth
		period = "month"
	}

	stats, err := s.store.LoadStats(r.Context(), filter)
	if err != nil {
		s.serverError(w, "leaderboard_load", err)
		return
	}

	ranked := views.RankStats(stats)
	entries := make([]battledto.LeaderboardEntry, 0, len(ranked))
	for _, p := range ranked {
		entries = append(entries, battledto.LeaderboardEntry{
			Rank: p.Rank, Name: p.Name, Wins: p.Wins, Losses: p.Losses,
		})
	}
	writeJSON(w, http.StatusOK, battledto.Leaderboard{Period: period, Entries: entries})
}

func (s *Server) handleActiveBattles(w http.ResponseWriter, r *http.Request) {
	rows := views.ActiveBattleRows(s.coord.ListActive())
	out := make([]battledto.ActiveBattle, 0, len(rows))
	for _, b := range rows {
		out = append(out, battledto.ActiveBattle{
			ID:       b.ID,
			Code:     b.Code,
			Player1:  b.Player1,
			Player2:  b.Player2,
			Guest:    b.Guest,
			Machines: b.Machines,
			Theme:    b.Theme,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRecentBattles(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.RecentBattleLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	records, err := s.store.RecentBattles(r.Context(), limit)
	if err != nil {
		s.serverError(w, "recent_battles_load", err)
		return
	}
	rows := views.RecentBattleRows(records)
	out := make([]battledto.RecentBattle, 0, len(rows))
	for _, b := range rows {
		out = append(out, battledto.RecentBattle{
			Winner:   b.Winner,
			Loser:    b.Loser,
			Time:     b.Time,
			Machines: b.Machines,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleContest(w http.ResponseWriter, r *http.Request) {
	monthKey := domain.MonthKey(s.now())
	contest, err := s.store.GetOrCreateMonthlyContest(r.Context(), monthKey, s.machines.Active())
	if err != nil {
		s.serverError(w, "contest_load", err)
		return
	}

	ranked := views.RankScores(contest.Scores)
	entries := make([]battledto.ContestEntry, 0, len(ranked))
	for _, sc := range ranked {
		entries = append(entries, battledto.ContestEntry{
			Rank: sc.Rank, Player: sc.Player, Score: sc.Score,
		})
	}
	writeJSON(w, http.StatusOK, battledto.Contest{
		Month:   contest.Month,
		Machine: contest.Machine,
		Entries: entries,
	})
}

func (s *Server) handleListMachines(w http.ResponseWriter, r *http.Request) {
	machines, err := s.admin.LoadAll(r.Context())
	if err != nil {
		s.serverError(w, "machines_load", err)
		return
	}
	writeJSON(w, http.StatusOK, machines)
}

func (s *Server) handleAddMachine(w http.ResponseWriter, r *http.Request) {
	var in catalog.MachineInput
	if err := readJSON(w, r, &in); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := s.admin.Add(r.Context(), in)
	if err != nil {
		s.serverError(w, "machine_add", err)
		return
	}
	s.afterRosterChange(r.Context(), "machine_added")
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleUpdateMachine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid machine id")
		return
	}
	var in catalog.MachineInput
	if err := readJSON(w, r, &in); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.admin.Update(r.Context(), id, in); err != nil {
		if err == catalog.ErrMachineNotFound {
			errorResponse(w, http.StatusNotFound, "machine not found")
			return
		}
		s.serverError(w, "machine_update", err)
		return
	}
	s.afterRosterChange(r.Context(), "machine_updated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteMachine(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "invalid machine id")
		return
	}
	if err := s.admin.Delete(r.Context(), id); err != nil {
		if err == catalog.ErrMachineNotFound {
			errorResponse(w, http.StatusNotFound, "machine not found")
			return
		}
		s.serverError(w, "machine_delete", err)
		return
	}
	s.afterRosterChange(r.Context(), "machine_deleted")
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// afterRosterChange refreshes the cached active set and nudges listeners.
func (s *Server) afterRosterChange(ctx context.Context, reason string) {
	_ = s.machines.Refresh(ctx)
	s.notifier.Publish(ctx, reason)
}

func (s *Server) serverError(w http.ResponseWriter, op string, err error) {
	obslog.L().Error("api_error", zap.String("op", op), zap.Error(err))
	errorResponse(w, http.StatusInternalServerError, "internal error")
}
