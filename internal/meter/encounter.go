package meter

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/protocol"
)

// Phase is the encounter state machine: Idle → InProgress → (Cleared |
// Wiped) → Idle via soft reset.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInProgress
	PhaseCleared
	PhaseWiped
)

func (p Phase) String() string {
	switch p {
	case PhaseInProgress:
		return "IN_PROGRESS"
	case PhaseCleared:
		return "CLEARED"
	case PhaseWiped:
		return "WIPED"
	default:
		return "IDLE"
	}
}

// Phase transition codes delivered by the dispatcher.
const (
	PhaseCodeRaidResult      = 0 // raid cleared via result notice
	PhaseCodeBossKill        = 1 // boss-kill notice
	PhaseCodeBossBattleStart = 2 // boss-battle trigger, encounter start marker
)

// bossMaxHPThreshold is the minimum max HP for a non-player entity to be
// considered the tracked boss. Trash mobs sit well below this; raid bosses
// well above.
const bossMaxHPThreshold int64 = 1_000_000

// SkillStats is the per-skill breakdown on an entity's aggregate row.
type SkillStats struct {
	SkillID      uint32  `json:"skill_id"`
	Casts        int64   `json:"casts"`
	Hits         int64   `json:"hits"`
	Crits        int64   `json:"crits"`
	BackAttacks  int64   `json:"back_attacks"`
	FrontAttacks int64   `json:"front_attacks"`
	Damage       int64   `json:"damage"`
	CastLog      []int64 `json:"cast_log,omitempty"` // unix ms timestamps
}

// EncounterEntity is the denormalized aggregate row for one participant.
// Rows are reconciled per-event from live Entity values, never at publish
// time, so snapshots cannot observe stale identity fields.
type EncounterEntity struct {
	ID            uint64                 `json:"id"`
	Name          string                 `json:"name"`
	Type          EntityType             `json:"-"`
	TypeName      string                 `json:"entity_type"`
	ClassID       uint16                 `json:"class_id"`
	Class         string                 `json:"class,omitempty"`
	CurrentHP     int64                  `json:"current_hp"`
	MaxHP         int64                  `json:"max_hp"`
	DamageDealt   int64                  `json:"damage_dealt"`
	DamageTaken   int64                  `json:"damage_taken"`
	Skills        map[uint32]*SkillStats `json:"skills"`
	BuffedBy      map[uint32]int64       `json:"buffed_by"`
	DebuffedBy    map[uint32]int64       `json:"debuffed_by"`
	Casts         int64                  `json:"casts"`
	Counters      int64                  `json:"counters"`
	Deaths        int64                  `json:"deaths"`
	DeathTime     int64                  `json:"death_time,omitempty"`
	IsDead        bool                   `json:"is_dead"`
	IdentityGauge [3]uint32              `json:"identity_gauge"`
}

func (e *EncounterEntity) clone() *EncounterEntity {
	c := *e
	c.Skills = make(map[uint32]*SkillStats, len(e.Skills))
	for id, s := range e.Skills {
		sc := *s
		sc.CastLog = append([]int64(nil), s.CastLog...)
		c.Skills[id] = &sc
	}
	c.BuffedBy = make(map[uint32]int64, len(e.BuffedBy))
	for id, v := range e.BuffedBy {
		c.BuffedBy[id] = v
	}
	c.DebuffedBy = make(map[uint32]int64, len(e.DebuffedBy))
	for id, v := range e.DebuffedBy {
		c.DebuffedBy[id] = v
	}
	return &c
}

// Encounter is the aggregate for the fight in progress, keyed by entity
// name. Exclusively owned by EncounterState.
type Encounter struct {
	ID               string
	StartedAt        int64 // unix ms of first damage
	LastCombatAt     int64
	Phase            Phase
	RaidEnd          bool
	Saved            bool
	LocalPlayer      string
	CurrentBossName  string
	Entities         map[string]*EncounterEntity
	TotalDamageDealt int64
	StaggerCurrent   uint32
	StaggerMax       uint32
}

func newEncounter(localPlayer string) *Encounter {
	return &Encounter{
		ID:          uuid.New().String(),
		LocalPlayer: localPlayer,
		Phase:       PhaseIdle,
		Entities:    make(map[string]*EncounterEntity),
	}
}

// EncounterState owns the Encounter aggregate and applies all reducers.
// Dispatcher-goroutine only; concurrency happens on independent copies.
type EncounterState struct {
	logger *zap.Logger
	enc    *Encounter
	now    func() time.Time
}

func NewEncounterState(logger *zap.Logger) *EncounterState {
	return &EncounterState{
		logger: logger,
		enc:    newEncounter(""),
		now:    time.Now,
	}
}

// Encounter exposes the live aggregate for same-goroutine reads.
func (s *EncounterState) Encounter() *Encounter { return s.enc }

// RaidEnd reports whether a terminal phase notice arrived for this fight.
func (s *EncounterState) RaidEnd() bool { return s.enc.RaidEnd }

// MarkSaved flags the encounter as handed to persistence.
func (s *EncounterState) MarkSaved() { s.enc.Saved = true }

func (s *EncounterState) nowMS() int64 { return s.now().UnixMilli() }

// row returns the aggregate row for an entity, creating it and reconciling
// identity fields from the live entity on every call.
func (s *EncounterState) row(e *Entity) *EncounterEntity {
	row, ok := s.enc.Entities[e.Name]
	if !ok {
		row = &EncounterEntity{
			Name:       e.Name,
			Skills:     make(map[uint32]*SkillStats),
			BuffedBy:   make(map[uint32]int64),
			DebuffedBy: make(map[uint32]int64),
		}
		s.enc.Entities[e.Name] = row
	}
	row.ID = e.ID
	row.Type = e.Type
	row.TypeName = e.Type.String()
	if e.ClassID != 0 {
		row.ClassID = e.ClassID
		row.Class = e.Class
	}
	return row
}

func (s *EncounterState) skill(row *EncounterEntity, skillID uint32) *SkillStats {
	sk, ok := row.Skills[skillID]
	if !ok {
		sk = &SkillStats{SkillID: skillID}
		row.Skills[skillID] = sk
	}
	return sk
}

// OnInitEnv clears transient per-zone state on area change. Damage
// accumulation is untouched; a zone line inside a fight must not zero the
// meter.
func (s *EncounterState) OnInitEnv(local *Entity) {
	s.enc.CurrentBossName = ""
	s.enc.StaggerCurrent = 0
	s.enc.StaggerMax = 0
	if local != nil && local.Name != "" {
		s.UpdateLocalPlayer(local.Name)
		s.row(local)
	}
}

// OnInitPC refreshes the local player's row.
func (s *EncounterState) OnInitPC(e *Entity, hp, maxHP int64) {
	s.enc.LocalPlayer = e.Name
	row := s.row(e)
	row.CurrentHP = hp
	row.MaxHP = maxHP
}

// OnNewPC refreshes another player's row.
func (s *EncounterState) OnNewPC(e *Entity, hp, maxHP int64) {
	row := s.row(e)
	row.CurrentHP = hp
	row.MaxHP = maxHP
}

// OnNewNPC refreshes a non-player row and may adopt it as the tracked boss.
// Boss selection favors the highest-max-HP qualifying entity known so far.
func (s *EncounterState) OnNewNPC(e *Entity, hp, maxHP int64) {
	row := s.row(e)
	row.CurrentHP = hp
	row.MaxHP = maxHP
	s.maybeTrackBoss(row)
}

func (s *EncounterState) maybeTrackBoss(row *EncounterEntity) {
	if row.Type != EntityNPC && row.Type != EntityEsther {
		return
	}
	if row.MaxHP < bossMaxHPThreshold {
		return
	}
	if current, ok := s.enc.Entities[s.enc.CurrentBossName]; ok && current.MaxHP >= row.MaxHP {
		return
	}
	s.enc.CurrentBossName = row.Name
	s.logger.Debug("tracking boss",
		zap.String("name", row.Name),
		zap.Int64("max_hp", row.MaxHP),
	)
}

// OnDamage is the core reducer: attributes damage dealt to the owner (the
// entity behind projectiles and summons), damage taken to the target, and
// records the per-skill and per-buff breakdown from the resolved effect
// lists.
func (s *EncounterState) OnDamage(owner, source, target *Entity, damage int64, skillID, skillEffectID uint32, modifier int32, curHP, maxHP int64, effectsOnSource, effectsOnTarget []uint32) {
	hitFlag, hitOption := protocol.DecodeModifier(modifier)
	if hitFlag.Ignored() {
		return
	}
	_ = source // battle-item detection hangs off the raw source; unused for now

	now := s.nowMS()
	if s.enc.StartedAt == 0 {
		s.enc.StartedAt = now
	}
	if s.enc.Phase == PhaseIdle {
		s.enc.Phase = PhaseInProgress
	}
	s.enc.LastCombatAt = now

	src := s.row(owner)
	tgt := s.row(target)

	src.DamageDealt += damage
	tgt.DamageTaken += damage
	if curHP < 0 {
		curHP = 0
	}
	tgt.CurrentHP = curHP
	if maxHP > 0 {
		tgt.MaxHP = maxHP
	}
	if src.Type == EntityPlayer || src.Type == EntityEsther {
		s.enc.TotalDamageDealt += damage
	}

	useSkillID := skillID
	if useSkillID == 0 {
		useSkillID = skillEffectID
	}
	sk := s.skill(src, useSkillID)
	sk.Hits++
	sk.Damage += damage
	if hitFlag.IsCritical() {
		sk.Crits++
	}
	switch hitOption {
	case protocol.HitOptionBackAttack:
		sk.BackAttacks++
	case protocol.HitOptionFrontalAttack:
		sk.FrontAttacks++
	}

	for _, buffID := range effectsOnSource {
		src.BuffedBy[buffID] += damage
	}
	for _, buffID := range effectsOnTarget {
		src.DebuffedBy[buffID] += damage
	}
}

// OnSkillStart records a cast for uptime bookkeeping.
func (s *EncounterState) OnSkillStart(e *Entity, skillID uint32, timestampMS int64) {
	row := s.row(e)
	row.Casts++
	sk := s.skill(row, skillID)
	sk.Casts++
	sk.CastLog = append(sk.CastLog, timestampMS)
}

// OnIdentityGain records identity gauge changes for the local player.
func (s *EncounterState) OnIdentityGain(e *Entity, gauge1, gauge2, gauge3 uint32) {
	if e.Name == "" || e.Name != s.enc.LocalPlayer {
		return
	}
	row := s.row(e)
	row.IdentityGauge = [3]uint32{gauge1, gauge2, gauge3}
}

// OnStaggerChange tracks the boss paralyzation gauge.
func (s *EncounterState) OnStaggerChange(point, maxPoint uint32) {
	s.enc.StaggerCurrent = point
	s.enc.StaggerMax = maxPoint
}

// OnCounterattack bumps the counter tally for the source entity.
func (s *EncounterState) OnCounterattack(e *Entity) {
	s.row(e).Counters++
}

// OnDeath marks an entity dead. Terminal for the row, not the encounter.
func (s *EncounterState) OnDeath(e *Entity) {
	row := s.row(e)
	row.IsDead = true
	row.Deaths++
	row.DeathTime = s.nowMS()
}

// OnPhaseTransition applies a phase code. End codes set the raid-end flag;
// the dispatcher snapshots then soft-resets on the same iteration. A raid
// result with the tracked boss still alive is recorded as a wipe.
func (s *EncounterState) OnPhaseTransition(code int) {
	switch code {
	case PhaseCodeRaidResult:
		s.enc.RaidEnd = true
		if boss, ok := s.enc.Entities[s.enc.CurrentBossName]; ok && boss.CurrentHP > 0 {
			s.enc.Phase = PhaseWiped
		} else {
			s.enc.Phase = PhaseCleared
		}
	case PhaseCodeBossKill:
		s.enc.RaidEnd = true
		s.enc.Phase = PhaseCleared
	case PhaseCodeBossBattleStart:
		if s.enc.Phase == PhaseIdle {
			s.enc.Phase = PhaseInProgress
		}
	}
	s.logger.Debug("phase transition",
		zap.Int("code", code),
		zap.String("phase", s.enc.Phase.String()),
	)
}

// SoftReset clears the aggregate for the next fight in the same session.
// The identity, party and status trackers are deliberately untouched; they
// outlive encounter boundaries.
func (s *EncounterState) SoftReset() {
	s.enc = newEncounter(s.enc.LocalPlayer)
}

// UpdateLocalPlayer renames the tracked local-player row once the resolved
// name is known or changes.
func (s *EncounterState) UpdateLocalPlayer(name string) {
	if name == "" || name == s.enc.LocalPlayer {
		return
	}
	if row, ok := s.enc.Entities[s.enc.LocalPlayer]; ok {
		delete(s.enc.Entities, s.enc.LocalPlayer)
		row.Name = name
		s.enc.Entities[name] = row
	}
	s.enc.LocalPlayer = name
}

// CloneEncounter takes the independent copy handed to the publish task.
func (s *EncounterState) CloneEncounter() *Encounter {
	c := *s.enc
	c.Entities = make(map[string]*EncounterEntity, len(s.enc.Entities))
	for name, row := range s.enc.Entities {
		c.Entities[name] = row.clone()
	}
	return &c
}

// EncounterSnapshot is the filtered, point-in-time view handed to the
// presentation boundary and to persistence.
type EncounterSnapshot struct {
	ID               string                      `json:"id"`
	StartedAt        int64                       `json:"started_at"`
	DurationMS       int64                       `json:"duration_ms"`
	Phase            string                      `json:"phase"`
	RaidEnd          bool                        `json:"raid_end"`
	LocalPlayer      string                      `json:"local_player,omitempty"`
	CurrentBossName  string                      `json:"current_boss_name,omitempty"`
	CurrentBoss      *EncounterEntity            `json:"current_boss,omitempty"`
	Entities         map[string]*EncounterEntity `json:"entities"`
	TotalDamageDealt int64                       `json:"total_damage_dealt"`
	TopDamageDealt   int64                       `json:"top_damage_dealt"`
	StaggerCurrent   uint32                      `json:"stagger_current"`
	StaggerMax       uint32                      `json:"stagger_max"`
}

// BuildSnapshot filters a cloned encounter for publication: boss reference
// resolved from the full entity map first (a named boss missing from the
// map is cleared, never fabricated), then only Player and Esther rows with
// positive damage dealt and positive max HP are kept. Takes ownership of
// the clone.
func BuildSnapshot(enc *Encounter) *EncounterSnapshot {
	snap := &EncounterSnapshot{
		ID:               enc.ID,
		StartedAt:        enc.StartedAt,
		Phase:            enc.Phase.String(),
		RaidEnd:          enc.RaidEnd,
		LocalPlayer:      enc.LocalPlayer,
		CurrentBossName:  enc.CurrentBossName,
		Entities:         make(map[string]*EncounterEntity),
		TotalDamageDealt: enc.TotalDamageDealt,
		StaggerCurrent:   enc.StaggerCurrent,
		StaggerMax:       enc.StaggerMax,
	}
	if enc.LastCombatAt > enc.StartedAt {
		snap.DurationMS = enc.LastCombatAt - enc.StartedAt
	}
	if snap.CurrentBossName != "" {
		if boss, ok := enc.Entities[snap.CurrentBossName]; ok {
			snap.CurrentBoss = boss
		} else {
			snap.CurrentBossName = ""
		}
	}
	for name, row := range enc.Entities {
		if row.Type != EntityPlayer && row.Type != EntityEsther {
			continue
		}
		if row.DamageDealt <= 0 || row.MaxHP <= 0 {
			continue
		}
		snap.Entities[name] = row
		if row.DamageDealt > snap.TopDamageDealt {
			snap.TopDamageDealt = row.DamageDealt
		}
	}
	return snap
}
