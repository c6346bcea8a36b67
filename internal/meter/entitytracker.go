package meter

import (
	"time"

	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/protocol"
)

// estherNPCTypes are the npc archetype ids of ally Esther units. Their
// damage counts toward the raid like a player's. Representative subset of
// the game's table.
var estherNPCTypes = map[uint32]string{
	23000: "Wei",
	23010: "Bastian",
	23020: "Nineveh",
	23030: "Azena & Inanna",
	23040: "Shandi",
	23050: "Kadan",
}

// EntityTracker owns the live entity set for the current zone and turns
// arrival packets into Entity rows. It forwards status-effect attachment to
// the StatusTracker and identity/party bookkeeping to the other trackers.
// Dispatcher-goroutine only.
type EntityTracker struct {
	logger        *zap.Logger
	ids           *IDTracker
	parties       *PartyTracker
	status        *StatusTracker
	entities      map[uint64]*Entity
	localPlayerID uint64
}

func NewEntityTracker(ids *IDTracker, parties *PartyTracker, status *StatusTracker, logger *zap.Logger) *EntityTracker {
	return &EntityTracker{
		logger:   logger,
		ids:      ids,
		parties:  parties,
		status:   status,
		entities: make(map[uint64]*Entity),
	}
}

// Get looks up a live entity without synthesizing one.
func (t *EntityTracker) Get(objectID uint64) (*Entity, bool) {
	e, ok := t.entities[objectID]
	return e, ok
}

// LocalPlayerID is the local player's current object id.
func (t *EntityTracker) LocalPlayerID() uint64 { return t.localPlayerID }

// InitEnv handles an area transition: the zone's entity set is discarded
// and the local player is re-keyed under its new object id.
func (t *EntityTracker) InitEnv(ev protocol.InitEnv) *Entity {
	local, ok := t.entities[t.localPlayerID]
	t.entities = make(map[uint64]*Entity)
	if !ok {
		local = &Entity{Type: EntityPlayer, Name: placeholderName(ev.PlayerID)}
	}
	local.ID = ev.PlayerID
	t.entities[ev.PlayerID] = local
	t.localPlayerID = ev.PlayerID
	t.ids.SetLocalPlayer(ev.PlayerID)
	if local.CharacterID != 0 {
		t.ids.Bind(ev.PlayerID, local.CharacterID)
	}
	return local
}

// InitPC introduces the local player on login or zone load.
func (t *EntityTracker) InitPC(ev protocol.InitPC) *Entity {
	player := &Entity{
		ID:          ev.PlayerID,
		Type:        EntityPlayer,
		Name:        ev.Name,
		ClassID:     ev.ClassID,
		Class:       ClassName(ev.ClassID),
		CharacterID: ev.CharacterID,
	}
	player.CurrentHP, player.MaxHP = protocol.CurrentAndMaxHP(ev.StatPairs)
	t.localPlayerID = ev.PlayerID
	t.ids.SetLocalPlayer(ev.PlayerID)
	t.ids.Bind(ev.PlayerID, ev.CharacterID)
	t.entities[ev.PlayerID] = player
	for _, sed := range ev.StatusEffects {
		t.BuildAndRegisterStatusEffect(sed, ev.PlayerID)
	}
	return player
}

// NewPC introduces another player entering the zone.
func (t *EntityTracker) NewPC(ev protocol.NewPC) *Entity {
	player := &Entity{
		ID:          ev.PlayerID,
		Type:        EntityPlayer,
		Name:        ev.Name,
		ClassID:     ev.ClassID,
		Class:       ClassName(ev.ClassID),
		CharacterID: ev.CharacterID,
	}
	player.CurrentHP, player.MaxHP = protocol.CurrentAndMaxHP(ev.StatPairs)
	t.entities[ev.PlayerID] = player
	t.ids.Bind(ev.PlayerID, ev.CharacterID)
	for _, sed := range ev.StatusEffects {
		t.BuildAndRegisterStatusEffect(sed, ev.PlayerID)
	}
	return player
}

// NewNPC introduces a non-player entity, classifying known Esther units.
func (t *EntityTracker) NewNPC(ev protocol.NewNPC) *Entity {
	npc := &Entity{
		ID:     ev.ObjectID,
		Type:   EntityNPC,
		Name:   placeholderName(ev.ObjectID),
		TypeID: ev.TypeID,
	}
	if name, ok := estherNPCTypes[ev.TypeID]; ok {
		npc.Type = EntityEsther
		npc.Name = name
	}
	npc.CurrentHP, npc.MaxHP = protocol.CurrentAndMaxHP(ev.StatPairs)
	t.entities[ev.ObjectID] = npc
	for _, sed := range ev.StatusEffects {
		t.BuildAndRegisterStatusEffect(sed, ev.ObjectID)
	}
	return npc
}

// NewNPCSummon introduces a summon, recording the owning entity for damage
// attribution.
func (t *EntityTracker) NewNPCSummon(ev protocol.NewNPCSummon) *Entity {
	summon := &Entity{
		ID:      ev.ObjectID,
		Type:    EntitySummon,
		Name:    placeholderName(ev.ObjectID),
		TypeID:  ev.TypeID,
		OwnerID: ev.OwnerID,
	}
	summon.CurrentHP, summon.MaxHP = protocol.CurrentAndMaxHP(ev.StatPairs)
	t.entities[ev.ObjectID] = summon
	return summon
}

// NewProjectile introduces a projectile; like summons it only matters as a
// damage-attribution hop to its owner.
func (t *EntityTracker) NewProjectile(ev protocol.NewProjectile) *Entity {
	projectile := &Entity{
		ID:      ev.ProjectileID,
		Type:    EntityProjectile,
		Name:    placeholderName(ev.ProjectileID),
		OwnerID: ev.OwnerID,
		SkillID: ev.SkillID,
	}
	t.entities[ev.ProjectileID] = projectile
	return projectile
}

// GetOrCreate resolves an object id, synthesizing a minimal Unknown entity
// when the id was never explicitly introduced. Deliberate tolerance for
// event-ordering gaps; repeated references never duplicate the row.
func (t *EntityTracker) GetOrCreate(objectID uint64) *Entity {
	if e, ok := t.entities[objectID]; ok {
		return e
	}
	e := &Entity{
		ID:   objectID,
		Type: EntityUnknown,
		Name: placeholderName(objectID),
	}
	t.entities[objectID] = e
	return e
}

// GetSource resolves the causer of an event, hopping from projectiles and
// summons to their owners.
func (t *EntityTracker) GetSource(objectID uint64) *Entity {
	if e, ok := t.entities[objectID]; ok {
		if (e.Type == EntityProjectile || e.Type == EntitySummon) && e.OwnerID != 0 {
			return t.GetOrCreate(e.OwnerID)
		}
		return e
	}
	return t.GetOrCreate(objectID)
}

// GuessIsPlayer promotes an Unknown entity to a classed Player when it
// casts a skill only players can use. Pure over (entity, skill id, static
// table); no-op for entities already classed or skills not in the table.
func (t *EntityTracker) GuessIsPlayer(e *Entity, skillID uint32) *Entity {
	if e == nil {
		return nil
	}
	if e.Type == EntityPlayer && e.ClassID != 0 {
		return e
	}
	classID, ok := ClassForSkill(skillID)
	if !ok {
		return e
	}
	if e.Type != EntityUnknown && e.Type != EntityPlayer {
		return e
	}
	e.Type = EntityPlayer
	e.ClassID = classID
	e.Class = ClassName(classID)
	t.logger.Debug("promoted entity to player by skill usage",
		zap.Uint64("object_id", e.ID),
		zap.Uint32("skill_id", skillID),
		zap.String("class", e.Class),
	)
	return e
}

// BuildAndRegisterStatusEffect constructs a locally-scoped effect instance
// for the object and hands it to the status tracker.
func (t *EntityTracker) BuildAndRegisterStatusEffect(data protocol.StatusEffectData, objectID uint64) {
	t.status.Register(buildStatusEffect(data, objectID, ScopeLocal, time.Now()))
}

// PartyStatusEffectAdd registers party-scoped effects keyed by the member's
// character id.
func (t *EntityTracker) PartyStatusEffectAdd(ev protocol.PartyStatusEffectAdd) {
	now := time.Now()
	for _, sed := range ev.Effects {
		t.status.Register(buildStatusEffect(sed, ev.CharacterID, ScopeParty, now))
	}
}

// PartyStatusEffectRemove drops party-scoped effects for one member.
func (t *EntityTracker) PartyStatusEffectRemove(ev protocol.PartyStatusEffectRemove) {
	t.status.Remove(ev.CharacterID, ev.InstanceIDs, ScopeParty)
}

// MigrationExecute fires ahead of an area transition; it carries the local
// player's account character ids before any entity packet does, so bind the
// current object id while it is still valid.
func (t *EntityTracker) MigrationExecute(ev protocol.MigrationExecute) {
	if t.localPlayerID == 0 || t.ids.LocalCharacterID() != 0 {
		return
	}
	characterID := ev.AccountCharacterID1
	if characterID == 0 {
		characterID = ev.AccountCharacterID2
	}
	t.ids.Bind(t.localPlayerID, characterID)
}

// PartyInfo refreshes a party's composition. Members whose entities are
// already known get their character ids bound; others are recorded with
// their name as a placeholder until their NewPC arrives.
func (t *EntityTracker) PartyInfo(ev protocol.PartyInfo) {
	t.parties.RemoveParty(ev.RaidInstanceID, ev.PartyInstanceID)
	for _, member := range ev.Members {
		if member.CharacterID == 0 {
			continue
		}
		t.parties.Add(ev.RaidInstanceID, ev.PartyInstanceID, member.CharacterID, member.Name)
		for _, e := range t.entities {
			if e.Type == EntityPlayer && e.Name == member.Name {
				e.CharacterID = member.CharacterID
				t.ids.Bind(e.ID, member.CharacterID)
				break
			}
		}
	}
}

// buildStatusEffect maps packet effect data onto a tracked instance. A zero
// total time means indefinite until explicit removal.
func buildStatusEffect(data protocol.StatusEffectData, targetID uint64, scope StatusEffectScope, now time.Time) *StatusEffect {
	se := &StatusEffect{
		InstanceID: data.InstanceID,
		BuffID:     data.BuffID,
		SourceID:   data.SourceID,
		TargetID:   targetID,
		Scope:      scope,
		Value:      data.Value,
	}
	if data.TotalTime > 0 {
		se.ExpireAt = now.Add(time.Duration(data.TotalTime * float64(time.Second)))
	}
	return se
}
