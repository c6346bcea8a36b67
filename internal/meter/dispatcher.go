// Package meter is the stateful aggregation core: four trackers and an
// encounter state machine driven by one dispatcher goroutine. All tracker
// and state mutation happens synchronously in event order on that
// goroutine; the only cross-thread state is the pair of Signal flags and
// the independent copies handed to publish tasks.
package meter

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/capture"
	"github.com/arkmeter/meter-core-go/internal/protocol"
)

// Publisher receives filtered snapshots. Implementations must not block;
// delivery is best-effort, latest-wins.
type Publisher interface {
	Publish(snap *EncounterSnapshot)
}

// EncounterSink persists a finished encounter once at raid end.
type EncounterSink interface {
	Save(ctx context.Context, snap *EncounterSnapshot) error
}

const defaultSnapshotInterval = 100 * time.Millisecond

// Dispatcher pulls decoded events off the capture stream and routes them
// through the trackers into the encounter state.
type Dispatcher struct {
	logger    *zap.Logger
	source    capture.Source
	decoder   protocol.Decoder
	publisher Publisher
	sink      EncounterSink
	interval  time.Duration

	ids      *IDTracker
	parties  *PartyTracker
	status   *StatusTracker
	entities *EntityTracker
	state    *EncounterState

	reset Signal
	pause Signal

	now func() time.Time
}

// NewDispatcher wires the trackers and state. publisher and sink may be nil.
func NewDispatcher(source capture.Source, decoder protocol.Decoder, publisher Publisher, sink EncounterSink, interval time.Duration, logger *zap.Logger) *Dispatcher {
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}
	ids := NewIDTracker()
	parties := NewPartyTracker(ids)
	status := NewStatusTracker(ids, parties)
	entities := NewEntityTracker(ids, parties, status, logger)
	return &Dispatcher{
		logger:    logger,
		source:    source,
		decoder:   decoder,
		publisher: publisher,
		sink:      sink,
		interval:  interval,
		ids:       ids,
		parties:   parties,
		status:    status,
		entities:  entities,
		state:     NewEncounterState(logger),
		now:       time.Now,
	}
}

// SetPublisher attaches the presentation boundary. The hub needs the
// dispatcher for viewer commands, so wiring happens in two steps; call
// before Run.
func (d *Dispatcher) SetPublisher(p Publisher) {
	d.publisher = p
}

// RequestReset asks the loop to soft-reset before the next event. Safe from
// any goroutine; a contended attempt is simply dropped, the boundary can
// retry.
func (d *Dispatcher) RequestReset() {
	d.reset.TrySet(true)
}

// TogglePause flips the paused state. While paused, events are drained and
// discarded, not buffered.
func (d *Dispatcher) TogglePause() {
	d.pause.TryToggle()
}

// Run drains the capture stream until the frame channel closes or the
// context is canceled. One malformed event aborts only that event.
func (d *Dispatcher) Run(ctx context.Context) error {
	frames := d.source.Frames()
	lastUpdate := d.now()

	for {
		var frame capture.Frame
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok = <-frames:
			if !ok {
				d.logger.Info("capture stream closed, stopping dispatcher")
				return nil
			}
		}

		if d.reset.TryConsume() {
			d.state.SoftReset()
			d.logger.Info("encounter reset requested")
		}
		if paused, ok := d.pause.TryGet(); ok && paused {
			continue
		}

		if err := d.handle(ctx, frame); err != nil {
			if !errors.Is(err, protocol.ErrUnhandledOpcode) {
				d.logger.Debug("event dropped",
					zap.String("opcode", frame.Opcode.String()),
					zap.Error(err),
				)
			}
		}

		if d.now().Sub(lastUpdate) >= d.interval || d.state.RaidEnd() {
			d.publish()
			lastUpdate = d.now()
		}

		if d.state.RaidEnd() {
			d.saveFinished(ctx)
			d.state.SoftReset()
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, frame capture.Frame) error {
	_ = ctx
	ev, err := d.decoder.Decode(frame.Opcode, frame.Payload)
	if err != nil {
		return err
	}

	switch ev := ev.(type) {
	case protocol.InitEnv:
		entity := d.entities.InitEnv(ev)
		d.state.OnInitEnv(entity)

	case protocol.InitPC:
		hp, maxHP := protocol.CurrentAndMaxHP(ev.StatPairs)
		entity := d.entities.InitPC(ev)
		d.state.OnInitPC(entity, hp, maxHP)

	case protocol.NewPC:
		hp, maxHP := protocol.CurrentAndMaxHP(ev.StatPairs)
		entity := d.entities.NewPC(ev)
		d.state.OnNewPC(entity, hp, maxHP)

	case protocol.NewNPC:
		hp, maxHP := protocol.CurrentAndMaxHP(ev.StatPairs)
		entity := d.entities.NewNPC(ev)
		d.state.OnNewNPC(entity, hp, maxHP)

	case protocol.NewNPCSummon:
		hp, maxHP := protocol.CurrentAndMaxHP(ev.StatPairs)
		entity := d.entities.NewNPCSummon(ev)
		d.state.OnNewNPC(entity, hp, maxHP)

	case protocol.NewProjectile:
		d.entities.NewProjectile(ev)

	case protocol.SkillStart:
		entity := d.entities.GetSource(ev.SourceID)
		entity = d.entities.GuessIsPlayer(entity, ev.SkillID)
		d.state.OnSkillStart(entity, ev.SkillID, d.now().UnixMilli())

	case protocol.SkillCast:
		entity := d.entities.GetSource(ev.SourceID)
		entity = d.entities.GuessIsPlayer(entity, ev.SkillID)
		d.state.OnSkillStart(entity, ev.SkillID, d.now().UnixMilli())

	case protocol.SkillDamage:
		d.onSkillDamage(ev.SourceID, ev.SkillID, ev.SkillEffectID, ev.Events)

	case protocol.SkillDamageAbnormalMove:
		d.onSkillDamage(ev.SourceID, ev.SkillID, ev.SkillEffectID, ev.Events)

	case protocol.StatusEffectAdd:
		d.entities.BuildAndRegisterStatusEffect(ev.Effect, ev.ObjectID)

	case protocol.StatusEffectDuration:
		d.status.UpdateDuration(ev.InstanceID, ev.TargetID, time.UnixMilli(int64(ev.ExpirationTick)), ScopeLocal)

	case protocol.StatusEffectRemove:
		d.status.Remove(ev.ObjectID, ev.InstanceIDs, ScopeLocal)

	case protocol.PartyInfo:
		d.entities.PartyInfo(ev)
		if entity, ok := d.entities.Get(d.entities.LocalPlayerID()); ok {
			d.state.UpdateLocalPlayer(entity.Name)
		}

	case protocol.PartyLeaveResult:
		d.parties.Remove(ev.PartyInstanceID, ev.Name)

	case protocol.PartyStatusEffectAdd:
		d.entities.PartyStatusEffectAdd(ev)

	case protocol.PartyStatusEffectRemove:
		d.entities.PartyStatusEffectRemove(ev)

	case protocol.PartyStatusEffectResult:
		d.parties.Add(ev.RaidInstanceID, ev.PartyInstanceID, ev.CharacterID, "")

	case protocol.IdentityGaugeChange:
		if entity, ok := d.entities.Get(ev.PlayerID); ok {
			d.state.OnIdentityGain(entity, ev.Gauge1, ev.Gauge2, ev.Gauge3)
		}

	case protocol.ParalyzationState:
		d.state.OnStaggerChange(ev.Point, ev.MaxPoint)

	case protocol.CounterAttack:
		if entity, ok := d.entities.Get(ev.SourceID); ok {
			d.state.OnCounterattack(entity)
		}

	case protocol.Death:
		if entity, ok := d.entities.Get(ev.TargetID); ok {
			d.state.OnDeath(entity)
		}

	case protocol.MigrationExecute:
		d.entities.MigrationExecute(ev)

	case protocol.RemoveObject:
		for _, objectID := range ev.ObjectIDs {
			d.status.RemoveLocalObject(objectID)
		}

	case protocol.ZoneObjectUnpublish:
		d.status.RemoveLocalObject(ev.ObjectID)

	case protocol.RaidResult:
		d.state.OnPhaseTransition(PhaseCodeRaidResult)

	case protocol.RaidBossKill:
		d.state.OnPhaseTransition(PhaseCodeBossKill)

	case protocol.TriggerBossBattleStatus:
		d.state.OnPhaseTransition(PhaseCodeBossBattleStart)
	}

	return nil
}

func (d *Dispatcher) onSkillDamage(sourceID uint64, skillID, skillEffectID uint32, events []protocol.DamageEvent) {
	owner := d.entities.GetSource(sourceID)
	owner = d.entities.GuessIsPlayer(owner, skillID)
	localCharacterID := d.ids.LocalCharacterID()
	for _, event := range events {
		target := d.entities.GetOrCreate(event.TargetID)
		source := d.entities.GetOrCreate(sourceID)
		onSource, onTarget := d.status.EffectsOn(owner, target, localCharacterID)
		d.state.OnDamage(owner, source, target,
			event.Damage, skillID, skillEffectID, event.Modifier,
			event.CurHP, event.MaxHP, onSource, onTarget)
	}
}

// publish takes a cheap independent copy of the aggregate and hands it to
// the presentation boundary on a fire-and-forget task. A slow or failing
// boundary never back-pressures ingestion.
func (d *Dispatcher) publish() {
	if d.publisher == nil {
		return
	}
	enc := d.state.CloneEncounter()
	go func() {
		snap := BuildSnapshot(enc)
		if len(snap.Entities) == 0 {
			return
		}
		d.publisher.Publish(snap)
	}()
}

// saveFinished hands the raid-end snapshot to persistence before the soft
// reset. Failures are logged and otherwise ignored.
func (d *Dispatcher) saveFinished(ctx context.Context) {
	if d.sink == nil || d.state.Encounter().Saved {
		return
	}
	d.state.MarkSaved()
	snap := BuildSnapshot(d.state.CloneEncounter())
	go func() {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := d.sink.Save(saveCtx, snap); err != nil {
			d.logger.Warn("failed to save encounter", zap.String("encounter_id", snap.ID), zap.Error(err))
		}
	}()
}
