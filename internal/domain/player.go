package domain

import (
	"strings"
	"time"
)

// Player stats are derived from resolved battles; the counters are only ever
// written by the ledger's record operation.
type Player struct {
	Name   string `json:"name"`
	Alias  string `json:"alias,omitempty"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// DisplayName strips a trailing "#discriminator" qualifier from a chat
// identity for display, matching how the dashboard has always shown names.
func DisplayName(name string) string {
	if i := strings.Index(name, "#"); i >= 0 {
		return name[:i]
	}
	return name
}

// MonthKey formats a time as the calendar-month contest key, e.g. "2026-08".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}
