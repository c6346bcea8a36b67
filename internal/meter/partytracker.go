package meter

// partyKey scopes a party to the observer's raid instance.
type partyKey struct {
	raidInstanceID  uint32
	partyInstanceID uint32
}

// PartyMember is one slot in a party. Name may be a placeholder recorded
// before the member's character id was resolvable.
type PartyMember struct {
	CharacterID uint64
	Name        string
}

// PartyTracker maps (raid instance, party instance) to member sets. Members
// arrive out of order relative to the entities they describe, so every
// operation tolerates unknown ids. Dispatcher-goroutine only.
type PartyTracker struct {
	ids              *IDTracker
	parties          map[partyKey]map[uint64]*PartyMember
	characterToParty map[uint64]partyKey
}

func NewPartyTracker(ids *IDTracker) *PartyTracker {
	return &PartyTracker{
		ids:              ids,
		parties:          make(map[partyKey]map[uint64]*PartyMember),
		characterToParty: make(map[uint64]partyKey),
	}
}

// Add inserts or updates a member. A character appears in at most one party
// per raid instance; joining a new one removes it from the old.
func (t *PartyTracker) Add(raidInstanceID, partyInstanceID uint32, characterID uint64, name string) {
	if characterID == 0 {
		return
	}
	key := partyKey{raidInstanceID, partyInstanceID}
	if prev, ok := t.characterToParty[characterID]; ok && prev != key {
		if members, ok := t.parties[prev]; ok {
			delete(members, characterID)
		}
	}
	members, ok := t.parties[key]
	if !ok {
		members = make(map[uint64]*PartyMember)
		t.parties[key] = members
	}
	if existing, ok := members[characterID]; ok {
		if name != "" {
			existing.Name = name
		}
	} else {
		members[characterID] = &PartyMember{CharacterID: characterID, Name: name}
	}
	t.characterToParty[characterID] = key
}

// Remove deletes the member with the given name from any party with that
// party instance id. Not-found is a no-op.
func (t *PartyTracker) Remove(partyInstanceID uint32, name string) {
	for key, members := range t.parties {
		if key.partyInstanceID != partyInstanceID {
			continue
		}
		for charID, m := range members {
			if m.Name == name {
				delete(members, charID)
				delete(t.characterToParty, charID)
			}
		}
	}
}

// RemoveParty drops a whole party entry, used when a PartyInfo packet
// re-declares the full composition.
func (t *PartyTracker) RemoveParty(raidInstanceID, partyInstanceID uint32) {
	key := partyKey{raidInstanceID, partyInstanceID}
	for charID := range t.parties[key] {
		delete(t.characterToParty, charID)
	}
	delete(t.parties, key)
}

// MembersOf returns the character ids of any party with the given party
// instance id.
func (t *PartyTracker) MembersOf(partyInstanceID uint32) []uint64 {
	var out []uint64
	for key, members := range t.parties {
		if key.partyInstanceID != partyInstanceID {
			continue
		}
		for charID := range members {
			out = append(out, charID)
		}
	}
	return out
}

// SameParty reports whether two characters are currently in the same party.
func (t *PartyTracker) SameParty(a, b uint64) bool {
	if a == 0 || b == 0 {
		return false
	}
	if a == b {
		return true
	}
	ka, ok := t.characterToParty[a]
	if !ok {
		return false
	}
	kb, ok := t.characterToParty[b]
	return ok && ka == kb
}

// InParty reports whether the character is a member of any tracked party.
func (t *PartyTracker) InParty(characterID uint64) bool {
	_, ok := t.characterToParty[characterID]
	return ok
}
