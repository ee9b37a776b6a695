package announce

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfbites/foodruns-backend/pkg/logger"
)

const (
	systemPrompt     = "You write one-line announcements for campus group food runs. Keep it under 25 words, upbeat, no hashtags."
	upstreamDeadline = 5 * time.Second
)

type completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// RunDetails carries the fields the announcer needs to describe a run.
type RunDetails struct {
	Restaurant string
	DropPoint  string
	ETA        string
	Capacity   int
}

// Announcer produces short broadcast copy for freshly created runs. Upstream
// failures degrade silently to a deterministic template so run creation is
// never blocked on the copywriter.
type Announcer struct {
	client completer
	logg   *logger.Logger
}

// New builds an announcer. A nil client is allowed and skips straight to the template.
func New(client completer, logg *logger.Logger) *Announcer {
	return &Announcer{client: client, logg: logg}
}

// Announce returns the broadcast line for a run.
func (a *Announcer) Announce(ctx context.Context, run RunDetails) string {
	if a == nil || a.client == nil {
		return fallback(run)
	}

	ctx, cancel := context.WithTimeout(ctx, upstreamDeadline)
	defer cancel()

	prompt := fmt.Sprintf(
		"Restaurant: %s. Drop point: %s. ETA: %s. Seats: %d.",
		run.Restaurant, run.DropPoint, run.ETA, run.Capacity,
	)
	copyLine, err := a.client.Complete(ctx, systemPrompt, prompt)
	if err != nil || copyLine == "" {
		if a.logg != nil && err != nil {
			a.logg.Warn(a.logg.WithField(ctx, "restaurant", run.Restaurant), "announcement fallback")
		}
		return fallback(run)
	}
	return copyLine
}

func fallback(run RunDetails) string {
	return fmt.Sprintf(
		"%s run! Drop point: %s. ETA %s. %d seats, join now!",
		run.Restaurant, run.DropPoint, run.ETA, run.Capacity,
	)
}
