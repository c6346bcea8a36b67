package meter

import "time"

// StatusEffectScope decides how an effect instance is keyed and who it is
// visible to.
type StatusEffectScope int

const (
	// ScopeLocal effects are keyed by the exact target object id and only
	// apply within the observer's raid instance.
	ScopeLocal StatusEffectScope = iota
	// ScopeParty effects are keyed by target character id and extend to all
	// resolved party members of the effect's owner.
	ScopeParty
)

func (s StatusEffectScope) String() string {
	if s == ScopeParty {
		return "PARTY"
	}
	return "LOCAL"
}

// StatusEffect is one active effect instance. ExpireAt zero means the
// effect is indefinite until an explicit remove.
type StatusEffect struct {
	InstanceID uint32
	BuffID     uint32
	SourceID   uint64 // owner object id
	TargetID   uint64 // object id (local) or character id (party)
	Scope      StatusEffectScope
	Value      uint64
	ExpireAt   time.Time
}

// StatusTracker owns active status-effect instances and answers visibility
// queries for the damage path. Dispatcher-goroutine only.
type StatusTracker struct {
	ids     *IDTracker
	parties *PartyTracker
	local   map[uint64]map[uint32]*StatusEffect // target object id → instance id
	party   map[uint64]map[uint32]*StatusEffect // target character id → instance id
	now     func() time.Time
}

func NewStatusTracker(ids *IDTracker, parties *PartyTracker) *StatusTracker {
	return &StatusTracker{
		ids:     ids,
		parties: parties,
		local:   make(map[uint64]map[uint32]*StatusEffect),
		party:   make(map[uint64]map[uint32]*StatusEffect),
		now:     time.Now,
	}
}

func (t *StatusTracker) scopeMap(scope StatusEffectScope) map[uint64]map[uint32]*StatusEffect {
	if scope == ScopeParty {
		return t.party
	}
	return t.local
}

// Register creates or replaces the instance keyed by its instance id.
func (t *StatusTracker) Register(se *StatusEffect) {
	m := t.scopeMap(se.Scope)
	instances, ok := m[se.TargetID]
	if !ok {
		instances = make(map[uint32]*StatusEffect)
		m[se.TargetID] = instances
	}
	instances[se.InstanceID] = se
}

// UpdateDuration moves the expiration of an existing instance. Unknown
// instance, wrong scope or wrong target are silently ignored: an effect may
// be referenced before its scope is resolvable, a tolerated staleness.
func (t *StatusTracker) UpdateDuration(instanceID uint32, targetID uint64, expireAt time.Time, scope StatusEffectScope) {
	instances, ok := t.scopeMap(scope)[targetID]
	if !ok {
		return
	}
	if se, ok := instances[instanceID]; ok {
		se.ExpireAt = expireAt
	}
}

// Remove bulk-removes instances for one target under one scope. Missing
// instances are no-ops.
func (t *StatusTracker) Remove(targetID uint64, instanceIDs []uint32, scope StatusEffectScope) {
	instances, ok := t.scopeMap(scope)[targetID]
	if !ok {
		return
	}
	for _, id := range instanceIDs {
		delete(instances, id)
	}
	if len(instances) == 0 {
		delete(t.scopeMap(scope), targetID)
	}
}

// RemoveLocalObject drops every instance owned by or targeting the object,
// invoked on despawn/unpublish. No-op for unseen objects.
func (t *StatusTracker) RemoveLocalObject(objectID uint64) {
	delete(t.local, objectID)
	for target, instances := range t.local {
		for id, se := range instances {
			if se.SourceID == objectID {
				delete(instances, id)
			}
		}
		if len(instances) == 0 {
			delete(t.local, target)
		}
	}
	for target, instances := range t.party {
		for id, se := range instances {
			if se.SourceID == objectID {
				delete(instances, id)
			}
		}
		if len(instances) == 0 {
			delete(t.party, target)
		}
	}
}

// EffectsOn resolves the active effects visible to the local observer for a
// damage event: buff ids applying to the source and to the target. Local
// effects must be registered against the exact object id; party effects
// apply when the entity's resolved character id shares a party with the
// effect owner's character, or is the observer itself.
func (t *StatusTracker) EffectsOn(source, target *Entity, localCharacterID uint64) (onSource, onTarget []uint32) {
	onSource = t.collect(source, localCharacterID)
	onTarget = t.collect(target, localCharacterID)
	return onSource, onTarget
}

func (t *StatusTracker) collect(e *Entity, localCharacterID uint64) []uint32 {
	if e == nil {
		return nil
	}
	now := t.now()
	var out []uint32
	if instances, ok := t.local[e.ID]; ok {
		for id, se := range instances {
			if t.expired(se, now) {
				delete(instances, id)
				continue
			}
			out = append(out, se.BuffID)
		}
	}
	charID := e.CharacterID
	if charID == 0 {
		charID, _ = t.ids.CharacterID(e.ID)
	}
	if charID == 0 {
		return out
	}
	if instances, ok := t.party[charID]; ok {
		for id, se := range instances {
			if t.expired(se, now) {
				delete(instances, id)
				continue
			}
			if !t.visibleToObserver(se, charID, localCharacterID) {
				continue
			}
			out = append(out, se.BuffID)
		}
	}
	return out
}

func (t *StatusTracker) expired(se *StatusEffect, now time.Time) bool {
	return !se.ExpireAt.IsZero() && se.ExpireAt.Before(now)
}

func (t *StatusTracker) visibleToObserver(se *StatusEffect, targetCharacterID, localCharacterID uint64) bool {
	if targetCharacterID == localCharacterID {
		return true
	}
	ownerCharacterID, ok := t.ids.CharacterID(se.SourceID)
	if !ok {
		// Owner's character unknown; the effect came through a party packet,
		// so falling back to the target's own membership is the best signal.
		return t.parties.InParty(targetCharacterID)
	}
	return t.parties.SameParty(ownerCharacterID, targetCharacterID)
}
