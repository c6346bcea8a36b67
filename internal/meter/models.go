package meter

import "fmt"

// EntityType classifies a live in-world object.
type EntityType int

const (
	EntityUnknown EntityType = iota
	EntityPlayer
	EntityNPC
	EntityEsther
	EntitySummon
	EntityProjectile
)

func (t EntityType) String() string {
	switch t {
	case EntityPlayer:
		return "PLAYER"
	case EntityNPC:
		return "NPC"
	case EntityEsther:
		return "ESTHER"
	case EntitySummon:
		return "SUMMON"
	case EntityProjectile:
		return "PROJECTILE"
	default:
		return "UNKNOWN"
	}
}

// Entity is a live object tracked by the EntityTracker. Object ids are
// ephemeral and may be recycled after despawn; CharacterID, when known, is
// the stable cross-zone identifier.
type Entity struct {
	ID          uint64
	Type        EntityType
	Name        string
	ClassID     uint16
	Class       string
	CharacterID uint64
	OwnerID     uint64 // summons and projectiles attribute to their owner
	TypeID      uint32 // npc archetype id
	SkillID     uint32 // projectile origin skill
	CurrentHP   int64
	MaxHP       int64
}

// placeholderName labels entities synthesized from a bare object id, e.g.
// a damage event arriving before any arrival packet.
func placeholderName(objectID uint64) string {
	return fmt.Sprintf("%d", objectID)
}
