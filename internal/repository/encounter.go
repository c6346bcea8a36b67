package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/meter"
)

// EncounterRepository writes finished encounters. Only the just-finished
// fight is persisted, one row upserted by encounter id; history browsing is
// out of scope.
type EncounterRepository struct {
	db     *DB
	logger *zap.Logger
}

func NewEncounterRepository(db *DB, logger *zap.Logger) *EncounterRepository {
	return &EncounterRepository{db: db, logger: logger}
}

const encountersSchema = `
CREATE TABLE IF NOT EXISTS encounters (
	id           UUID PRIMARY KEY,
	started_at   TIMESTAMPTZ,
	duration_ms  BIGINT NOT NULL,
	phase        TEXT NOT NULL,
	boss_name    TEXT,
	local_player TEXT,
	total_damage BIGINT NOT NULL,
	entities     JSONB NOT NULL,
	saved_at     TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the encounters table when missing.
func (r *EncounterRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, encountersSchema); err != nil {
		return fmt.Errorf("ensure encounters schema: %w", err)
	}
	return nil
}

// Save upserts the finished encounter. Implements meter.EncounterSink.
func (r *EncounterRepository) Save(ctx context.Context, snap *meter.EncounterSnapshot) error {
	entities, err := json.Marshal(snap.Entities)
	if err != nil {
		return fmt.Errorf("encode entities: %w", err)
	}

	var startedAt *time.Time
	if snap.StartedAt > 0 {
		t := time.UnixMilli(snap.StartedAt)
		startedAt = &t
	}

	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO encounters (id, started_at, duration_ms, phase, boss_name, local_player, total_damage, entities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			duration_ms  = EXCLUDED.duration_ms,
			phase        = EXCLUDED.phase,
			boss_name    = EXCLUDED.boss_name,
			total_damage = EXCLUDED.total_damage,
			entities     = EXCLUDED.entities,
			saved_at     = now()`,
		snap.ID, startedAt, snap.DurationMS, snap.Phase,
		snap.CurrentBossName, snap.LocalPlayer, snap.TotalDamageDealt, entities,
	)
	if err != nil {
		return fmt.Errorf("save encounter %s: %w", snap.ID, err)
	}

	r.logger.Info("encounter saved",
		zap.String("encounter_id", snap.ID),
		zap.String("phase", snap.Phase),
		zap.Int64("total_damage", snap.TotalDamageDealt),
	)
	return nil
}
