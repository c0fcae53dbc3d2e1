package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
)

type Kind string

const (
	KindRemindAll      Kind = "remind_all"
	KindFollowUpUnpaid Kind = "follow_up_unpaid"
	KindMonthlyReport  Kind = "monthly_report"
)

var kindAliases = map[string]Kind{
	"remind_all":       KindRemindAll,
	"remind":           KindRemindAll,
	"donation":         KindRemindAll,
	"follow_up_unpaid": KindFollowUpUnpaid,
	"followup":         KindFollowUpUnpaid,
	"follow_up":        KindFollowUpUnpaid,
	"reminder":         KindFollowUpUnpaid,
	"monthly_report":   KindMonthlyReport,
	"report":           KindMonthlyReport,
}

// ParseKind accepts the canonical kind names and their short command aliases.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("trigger %q: %w", s, internal.ErrInvalidTrigger)
}

// Trigger fires its action on one Jalali day of every month. A day beyond the
// length of a month never matches in that month.
type Trigger struct {
	Kind Kind `json:"kind"`
	Day  int  `json:"day"`
}

// TriggersFromConfig lists the three triggers in firing order.
func TriggersFromConfig(cfg internal.SchedulerConfig) []Trigger {
	return []Trigger{
		{Kind: KindRemindAll, Day: cfg.ReminderDay},
		{Kind: KindFollowUpUnpaid, Day: cfg.FollowUpDay},
		{Kind: KindMonthlyReport, Day: cfg.ReportDay},
	}
}

// ActionFunc performs a trigger's work for today.
type ActionFunc func(ctx context.Context, today jalali.Date) error

// Marker is the last Jalali day a trigger fired on.
type Marker struct {
	Kind      Kind        `json:"kind"`
	LastFired jalali.Date `json:"last_fired"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// MarkerRepository persists one marker per trigger kind.
type MarkerRepository interface {
	// LastFired reports found=false when the trigger has never fired.
	LastFired(ctx context.Context, kind Kind) (date jalali.Date, found bool, err error)
	// Advance sets the marker to date inside one transaction. Writing the
	// value already stored is a no-op.
	Advance(ctx context.Context, kind Kind, date jalali.Date) error
	List(ctx context.Context) ([]*Marker, error)
}
