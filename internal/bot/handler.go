// Package bot wires inbound chat events to the arena: it parses commands,
// drives the coordinator, selector and ledger, and renders replies from the
// message catalog.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/battle"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/config"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/domain"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/ledger"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/matchmaking"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/msgcat"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/notify"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/obslog"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/relay"
	"github.com/Applesaucesomer/Goblin-Battle-Arena/internal/views"
)

const leaderboardLimit = 10

// MachineSource provides the current active machine set.
type MachineSource interface {
	Active() []domain.Machine
}

type Handler struct {
	cfg      *config.AppConfig
	egress   relay.Egress
	coord    *battle.Coordinator
	selector *matchmaking.Selector
	machines MachineSource
	store    ledger.Store
	cat      *msgcat.Catalog
	notifier *notify.Notifier

	now func() time.Time
}

func NewHandler(cfg *config.AppConfig, egress relay.Egress, coord *battle.Coordinator,
	selector *matchmaking.Selector, machines MachineSource, store ledger.Store,
	cat *msgcat.Catalog, notifier *notify.Notifier) *Handler {
	return &Handler{
		cfg:      cfg,
		egress:   egress,
		coord:    coord,
		selector: selector,
		machines: machines,
		store:    store,
		cat:      cat,
		notifier: notifier,
		now:      time.Now,
	}
}

// HandleEvent processes one inbound chat event. Safe to call from the
// websocket callback; command work that touches the store should be run on
// its own goroutine by the caller.
func (h *Handler) HandleEvent(ctx context.Context, ev *relay.Event) {
	if ev == nil || strings.TrimSpace(ev.Text) == "" {
		return
	}
	if len(h.cfg.AllowedRooms) > 0 && !roomAllowed(h.cfg.AllowedRooms, ev.Room) {
		return
	}
	text := strings.TrimSpace(ev.Text)
	if !strings.HasPrefix(text, h.cfg.BotPrefix) {
		return
	}
	raw := strings.TrimSpace(strings.TrimPrefix(text, h.cfg.BotPrefix))
	if raw == "" {
		h.send(ctx, ev.Room, "help.text", map[string]any{"Prefix": h.cfg.BotPrefix})
		return
	}

	parts := strings.Fields(raw)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	sender := senderName(ev)

	switch cmd {
	case "battle":
		h.handleBattle(ctx, ev.Room, sender, args, false)
	case "themebattle":
		h.handleBattle(ctx, ev.Room, sender, args, true)
	case "winner":
		h.handleWinner(ctx, ev.Room, sender, args)
	case "ongoing":
		h.handleOngoing(ctx, ev.Room)
	case "recent":
		h.handleRecent(ctx, ev.Room)
	case "leaderboard":
		h.handleLeaderboard(ctx, ev.Room, args)
	case "monthly":
		h.handleMonthly(ctx, ev.Room, sender, args)
	case "resetmonth":
		h.handleResetMonth(ctx, ev.Room, sender)
	case "help":
		h.send(ctx, ev.Room, "help.text", map[string]any{"Prefix": h.cfg.BotPrefix})
	default:
		h.send(ctx, ev.Room, "help.text", map[string]any{"Prefix": h.cfg.BotPrefix})
	}
}

func (h *Handler) handleBattle(ctx context.Context, room, sender string, args []string, themed bool) {
	opponent, guest, ok := parseOpponent(args, h.cfg.GuestName)
	if !ok {
		h.send(ctx, room, "battle.usage", map[string]any{"Prefix": h.cfg.BotPrefix})
		return
	}

	active := h.machines.Active()
	var (
		machines []domain.Machine
		theme    string
		err      error
	)
	if themed {
		machines, theme, err = h.selector.PickThemed(active)
	} else {
		machines, err = h.selector.Pick(active)
	}
	switch {
	case errors.Is(err, matchmaking.ErrInsufficientMachines):
		h.send(ctx, room, "battle.insufficient_machines", map[string]any{"Need": matchmaking.BattleSize})
		return
	case errors.Is(err, matchmaking.ErrNoMatchingTheme):
		h.send(ctx, room, "battle.no_matching_theme", nil)
		return
	case err != nil:
		h.internalError(ctx, room, "battle_pick", err)
		return
	}

	b, err := h.coord.Create(sender, opponent, guest, machines, theme)
	switch {
	case errors.Is(err, battle.ErrSelfBattle):
		h.send(ctx, room, "battle.self", nil)
		return
	case errors.Is(err, battle.ErrInvalidArgs):
		h.send(ctx, room, "battle.usage", map[string]any{"Prefix": h.cfg.BotPrefix})
		return
	case err != nil:
		h.internalError(ctx, room, "battle_create", err)
		return
	}

	key := "battle.created"
	data := map[string]any{
		"Code":     b.Code,
		"Player1":  domain.DisplayName(b.Player1),
		"Player2":  domain.DisplayName(b.Player2),
		"Machines": strings.Join(b.MachineNames(), ", "),
		"Prefix":   h.cfg.BotPrefix,
	}
	if themed {
		key = "battle.created_themed"
		data["Theme"] = b.Theme
	}
	h.send(ctx, room, key, data)
	h.notifier.Publish(ctx, "battle_created")
}

func (h *Handler) handleWinner(ctx context.Context, room, sender string, args []string) {
	if len(args) < 2 {
		h.send(ctx, room, "battle.winner_usage", map[string]any{"Prefix": h.cfg.BotPrefix})
		return
	}
	ref := args[0]
	name := strings.TrimPrefix(strings.Join(args[1:], " "), "@")

	b, err := h.coord.Get(ref)
	if errors.Is(err, battle.ErrBattleNotFound) {
		h.send(ctx, room, "battle.not_found", map[string]any{"Ref": ref})
		return
	}
	if err != nil {
		h.internalError(ctx, room, "battle_get", err)
		return
	}

	declared := matchParticipant(b, name, sender)
	if declared == "" {
		h.send(ctx, room, "battle.winner_not_participant", map[string]any{
			"Name": name, "Code": b.Code,
		})
		return
	}

	resolved, err := h.coord.Resolve(ctx, ref, sender, declared)
	switch {
	case errors.Is(err, battle.ErrBattleNotFound), errors.Is(err, battle.ErrAlreadyResolved):
		h.send(ctx, room, "battle.already_resolved", map[string]any{"Ref": ref})
		return
	case errors.Is(err, battle.ErrNotParticipant):
		h.send(ctx, room, "battle.not_participant", map[string]any{"Code": b.Code})
		return
	case err != nil:
		h.internalError(ctx, room, "battle_resolve", err)
		return
	}

	h.send(ctx, room, "battle.resolved", map[string]any{
		"Winner": domain.DisplayName(resolved.Winner),
		"Loser":  domain.DisplayName(resolved.Loser),
		"Code":   resolved.Code,
	})
	h.notifier.Publish(ctx, "battle_resolved")
}

func (h *Handler) handleOngoing(ctx context.Context, room string) {
	rows := views.ActiveBattleRows(h.coord.ListActive())
	if len(rows) == 0 {
		h.send(ctx, room, "ongoing.empty", nil)
		return
	}
	lines := make([]string, 0, len(rows)+1)
	header, err := h.cat.Render("ongoing.header", nil)
	if err != nil {
		h.internalError(ctx, room, "ongoing_render", err)
		return
	}
	lines = append(lines, header)
	for _, r := range rows {
		line, err := h.cat.Render("ongoing.line", map[string]any{
			"Code":     r.Code,
			"Player1":  r.Player1,
			"Player2":  r.Player2,
			"Theme":    r.Theme,
			"Machines": strings.Join(r.Machines, ", "),
		})
		if err != nil {
			h.internalError(ctx, room, "ongoing_render", err)
			return
		}
		lines = append(lines, line)
	}
	h.sendRaw(ctx, room, strings.Join(lines, "\n"))
}

func (h *Handler) handleRecent(ctx context.Context, room string) {
	records, err := h.store.RecentBattles(ctx, h.cfg.RecentBattleLimit)
	if err != nil {
		h.internalError(ctx, room, "recent_load", err)
		return
	}
	rows := views.RecentBattleRows(records)
	if len(rows) == 0 {
		h.send(ctx, room, "recent.empty", nil)
		return
	}
	header, err := h.cat.Render("recent.header", nil)
	if err != nil {
		h.internalError(ctx, room, "recent_render", err)
		return
	}
	lines := []string{header}
	for _, r := range rows {
		line, err := h.cat.Render("recent.line", map[string]any{
			"Winner":   r.Winner,
			"Loser":    r.Loser,
			"Time":     r.Time,
			"Machines": strings.Join(r.Machines, ", "),
		})
		if err != nil {
			h.internalError(ctx, room, "recent_render", err)
			return
		}
		lines = append(lines, line)
	}
	h.sendRaw(ctx, room, strings.Join(lines, "\n"))
}

func (h *Handler) handleLeaderboard(ctx context.Context, room string, args []string) {
	filter := ledger.FilterAllTime
	period := "all time"
	if len(args) > 0 && strings.EqualFold(args[0], "month") {
		filter = ledger.FilterCurrentMonth
		period = "this month"
	}

	stats, err := h.store.LoadStats(ctx, filter)
	if err != nil {
		h.internalError(ctx, room, "leaderboard_load", err)
		return
	}
	ranked := views.RankStats(stats)
	if len(ranked) == 0 {
		h.send(ctx, room, "leaderboard.empty", map[string]any{"Prefix": h.cfg.BotPrefix})
		return
	}
	if len(ranked) > leaderboardLimit {
		ranked = ranked[:leaderboardLimit]
	}

	header, err := h.cat.Render("leaderboard.header", map[string]any{"Period": period})
	if err != nil {
		h.internalError(ctx, room, "leaderboard_render", err)
		return
	}
	lines := []string{header}
	for _, p := range ranked {
		line, err := h.cat.Render("leaderboard.line", map[string]any{
			"Rank": p.Rank, "Name": p.Name, "Wins": p.Wins, "Losses": p.Losses,
		})
		if err != nil {
			h.internalError(ctx, room, "leaderboard_render", err)
			return
		}
		lines = append(lines, line)
	}
	h.sendRaw(ctx, room, strings.Join(lines, "\n"))
}

func (h *Handler) handleMonthly(ctx context.Context, room, sender string, args []string) {
	monthKey := domain.MonthKey(h.now())

	if len(args) == 0 {
		contest, err := h.store.GetOrCreateMonthlyContest(ctx, monthKey, h.machines.Active())
		if err != nil {
			h.internalError(ctx, room, "monthly_load", err)
			return
		}
		h.sendContest(ctx, room, contest)
		return
	}

	score, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(ctx, room, "monthly.invalid_score", nil)
		return
	}
	// Contest row must exist before a score lands on it.
	if _, err := h.store.GetOrCreateMonthlyContest(ctx, monthKey, h.machines.Active()); err != nil {
		h.internalError(ctx, room, "monthly_load", err)
		return
	}
	if _, err := h.store.SubmitScore(ctx, monthKey, sender, score); err != nil {
		if errors.Is(err, ledger.ErrInvalidScore) {
			h.send(ctx, room, "monthly.invalid_score", nil)
			return
		}
		h.internalError(ctx, room, "monthly_submit", err)
		return
	}
	h.send(ctx, room, "monthly.submitted", map[string]any{
		"Player": domain.DisplayName(sender), "Score": score,
	})
	h.notifier.Publish(ctx, "contest_updated")
}

func (h *Handler) handleResetMonth(ctx context.Context, room, sender string) {
	if !h.cfg.ContestResetByBot || h.cfg.AdminUser == "" || !strings.EqualFold(sender, h.cfg.AdminUser) {
		h.send(ctx, room, "resetmonth.denied", nil)
		return
	}
	contest, err := h.store.ResetMonthlyContest(ctx, domain.MonthKey(h.now()), h.machines.Active())
	if err != nil {
		h.internalError(ctx, room, "monthly_reset", err)
		return
	}
	h.send(ctx, room, "resetmonth.done", map[string]any{"Machine": contest.Machine})
	h.notifier.Publish(ctx, "contest_reset")
}

func (h *Handler) sendContest(ctx context.Context, room string, contest *ledger.MonthlyContest) {
	header, err := h.cat.Render("monthly.header", map[string]any{
		"Month": contest.Month, "Machine": contest.Machine,
	})
	if err != nil {
		h.internalError(ctx, room, "monthly_render", err)
		return
	}
	lines := []string{header}
	ranked := views.RankScores(contest.Scores)
	if len(ranked) == 0 {
		empty, err := h.cat.Render("monthly.no_scores", map[string]any{"Prefix": h.cfg.BotPrefix})
		if err != nil {
			h.internalError(ctx, room, "monthly_render", err)
			return
		}
		lines = append(lines, empty)
	}
	for _, s := range ranked {
		line, err := h.cat.Render("monthly.line", map[string]any{
			"Rank": s.Rank, "Player": s.Player, "Score": s.Score,
		})
		if err != nil {
			h.internalError(ctx, room, "monthly_render", err)
			return
		}
		lines = append(lines, line)
	}
	h.sendRaw(ctx, room, strings.Join(lines, "\n"))
}

func (h *Handler) send(ctx context.Context, room, key string, data map[string]any) {
	out, err := h.cat.Render(key, data)
	if err != nil {
		obslog.L().Error("message_render_error", zap.String("key", key), zap.Error(err))
		return
	}
	h.sendRaw(ctx, room, out)
}

func (h *Handler) sendRaw(ctx context.Context, room, message string) {
	if err := h.egress.SendText(ctx, room, message); err != nil {
		obslog.L().Warn("egress_send_failed", zap.String("room", room), zap.Error(err))
	}
}

func (h *Handler) internalError(ctx context.Context, room, op string, err error) {
	obslog.L().Error("command_error", zap.String("op", op), zap.Error(err))
	h.send(ctx, room, "errors.internal", nil)
}

// parseOpponent interprets the battle command arguments: "@name" challenges
// a named player, "guest [name]" battles a non-interactive side.
func parseOpponent(args []string, guestDefault string) (name string, guest bool, ok bool) {
	if len(args) == 0 {
		return "", false, false
	}
	if strings.EqualFold(args[0], "guest") {
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			name = guestDefault
		}
		return name, true, true
	}
	if strings.HasPrefix(args[0], "@") {
		name := strings.TrimPrefix(strings.Join(args, " "), "@")
		if strings.TrimSpace(name) == "" {
			return "", false, false
		}
		return strings.TrimSpace(name), false, true
	}
	return "", false, false
}

// matchParticipant maps a declared winner onto one of the battle's two
// sides. Accepts the full name, the display name, "me" for the sender, or
// the positional shorthands "1" and "2".
func matchParticipant(b *battle.Battle, name, sender string) string {
	name = strings.TrimSpace(name)
	switch {
	case strings.EqualFold(name, "me"):
		name = sender
	case name == "1":
		return b.Player1
	case name == "2":
		return b.Player2
	}
	for _, side := range []string{b.Player1, b.Player2} {
		if strings.EqualFold(name, side) || strings.EqualFold(name, domain.DisplayName(side)) {
			return side
		}
	}
	return ""
}

func senderName(ev *relay.Event) string {
	if s := strings.TrimSpace(ev.SenderName); s != "" {
		return s
	}
	return strings.TrimSpace(ev.Sender)
}

func roomAllowed(allowed []string, room string) bool {
	for _, r := range allowed {
		if r == room {
			return true
		}
	}
	return false
}
