package meter

// IDTracker maps ephemeral object ids to stable per-session character ids
// and remembers which object is the local player. All methods must run on
// the dispatcher goroutine; there is no locking.
type IDTracker struct {
	objectToCharacter map[uint64]uint64
	characterToObject map[uint64]uint64
	localPlayerID     uint64
}

func NewIDTracker() *IDTracker {
	return &IDTracker{
		objectToCharacter: make(map[uint64]uint64),
		characterToObject: make(map[uint64]uint64),
	}
}

// Bind records or overwrites the object↔character association. At most one
// character id per object id; a re-bind (area transition) drops the stale
// reverse entry.
func (t *IDTracker) Bind(objectID, characterID uint64) {
	if objectID == 0 || characterID == 0 {
		return
	}
	if prev, ok := t.objectToCharacter[objectID]; ok && prev != characterID {
		delete(t.characterToObject, prev)
	}
	if prev, ok := t.characterToObject[characterID]; ok && prev != objectID {
		delete(t.objectToCharacter, prev)
	}
	t.objectToCharacter[objectID] = characterID
	t.characterToObject[characterID] = objectID
}

// CharacterID resolves the character id for an object. Absence means "not
// yet known", never an error.
func (t *IDTracker) CharacterID(objectID uint64) (uint64, bool) {
	id, ok := t.objectToCharacter[objectID]
	return id, ok
}

// ObjectID resolves the current object id for a character.
func (t *IDTracker) ObjectID(characterID uint64) (uint64, bool) {
	id, ok := t.characterToObject[characterID]
	return id, ok
}

func (t *IDTracker) SetLocalPlayer(objectID uint64) {
	t.localPlayerID = objectID
}

func (t *IDTracker) LocalPlayer() uint64 {
	return t.localPlayerID
}

// LocalCharacterID is the character id of the local player, zero when the
// binding has not been observed yet.
func (t *IDTracker) LocalCharacterID() uint64 {
	id := t.objectToCharacter[t.localPlayerID]
	return id
}
