package gemini

import (
	"context"
	"log/slog"
	"strings"

	"github.com/carelingo/carelingo/pkg/core"
)

// DefaultModelCandidates is the fixed-priority fallback list tried by
// ResolveModel when no override is configured. Order matters and is part
// of the resolver contract: the first reachable candidate wins.
var DefaultModelCandidates = []string{
	"gemini-2.5-flash-native-audio-dialog",
	"gemini-2.0-flash-exp",
	"models/gemini-1.5-flash",
	"gemini-1.5-flash",
}

// pingPrompt is the trivial liveness probe sent to each candidate.
const pingPrompt = "Ping"

// ResolveModel walks candidates in order, probing each with a minimal
// generation call, and pins the first one that answers. All candidates
// failing is fatal to the interactive flow: the caller must stop and
// surface the error rather than retry.
func (c *Client) ResolveModel(ctx context.Context, logger *slog.Logger, candidates []string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultModelCandidates
	}

	for _, name := range candidates {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", core.NewModelUnavailableError("model resolution cancelled").WithCause(err)
		}

		if _, err := c.GenerateText(ctx, name, pingPrompt); err != nil {
			if logger != nil {
				logger.Warn("model candidate unavailable", "model", name, "error", err)
			}
			continue
		}

		c.setModel(name)
		if logger != nil {
			logger.Info("model resolved", "model", name)
		}
		return name, nil
	}

	return "", core.NewModelUnavailableError("no candidate model reachable")
}
