package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dreamreel/internal/assets"
)

// Processor executes cleanup tasks against the generated-assets store.
type Processor struct {
	store        *assets.Store
	retentionTTL time.Duration
	logger       zerolog.Logger
}

type TaskPayload struct {
	Type  string `json:"type"`
	Asset string `json:"asset"`
	JobID string `json:"jobId"`
}

func NewProcessor(store *assets.Store, retentionTTL time.Duration, logger zerolog.Logger) *Processor {
	return &Processor{
		store:        store,
		retentionTTL: retentionTTL,
		logger:       logger,
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	var payload TaskPayload
	if err := decodePayload(msg.Values, &payload); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	switch payload.Type {
	case "sweep":
		return p.handleSweep(payload)
	case "intermediates":
		return p.handleIntermediates(payload)
	default:
		p.logger.Warn().Str("type", payload.Type).Msg("unknown task type")
		return nil
	}
}

func decodePayload(values map[string]interface{}, out *TaskPayload) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// handleSweep removes every asset past the retention TTL.
func (p *Processor) handleSweep(payload TaskPayload) error {
	removed, err := p.store.Sweep(p.retentionTTL)
	if err != nil {
		return fmt.Errorf("sweep assets: %w", err)
	}
	p.logger.Info().
		Str("job_id", payload.JobID).
		Int("removed", removed).
		Msg("retention sweep done")
	return nil
}

// handleIntermediates drops a single working file a finished request no
// longer needs.
func (p *Processor) handleIntermediates(payload TaskPayload) error {
	if payload.Asset == "" {
		return nil
	}
	if err := p.store.Remove(payload.Asset); err != nil {
		return fmt.Errorf("remove intermediate: %w", err)
	}
	p.logger.Debug().Str("asset", payload.Asset).Msg("intermediate removed")
	return nil
}
