package protocol

// Event is a decoded packet payload. Concrete event types are routed by the
// dispatcher with a type switch; every event carries the object/character
// ids it references but no derived state.
type Event interface {
	EventOpcode() Opcode
}

// StatPair is one (stat type, value) entry from an entity arrival packet.
type StatPair struct {
	StatType uint8 `json:"stat_type"`
	Value    int64 `json:"value"`
}

// Stat types carried in arrival packets. Only HP stats matter to the meter.
const (
	StatTypeHP    uint8 = 1
	StatTypeMaxHP uint8 = 27
)

// CurrentAndMaxHP extracts the HP pair from a stat list. Missing entries
// yield zero, which callers treat as "not reported".
func CurrentAndMaxHP(pairs []StatPair) (hp int64, maxHP int64) {
	for _, p := range pairs {
		switch p.StatType {
		case StatTypeHP:
			hp = p.Value
		case StatTypeMaxHP:
			maxHP = p.Value
		}
	}
	return hp, maxHP
}

// StatusEffectData describes one status-effect instance as carried inside
// arrival and effect-add packets.
type StatusEffectData struct {
	InstanceID     uint32  `json:"instance_id"`
	BuffID         uint32  `json:"buff_id"`
	SourceID       uint64  `json:"source_id"`
	Value          uint64  `json:"value"`
	TotalTime      float64 `json:"total_time"` // seconds; 0 means indefinite
	ExpirationTick uint64  `json:"expiration_tick"`
}

// PCData is the player block shared by InitPC and NewPC.
type PCData struct {
	PlayerID      uint64             `json:"player_id"`
	Name          string             `json:"name"`
	ClassID       uint16             `json:"class_id"`
	CharacterID   uint64             `json:"character_id"`
	StatPairs     []StatPair         `json:"stat_pairs"`
	StatusEffects []StatusEffectData `json:"status_effects"`
}

// NPCData is the non-player block shared by NewNPC and NewNPCSummon.
type NPCData struct {
	ObjectID      uint64             `json:"object_id"`
	TypeID        uint32             `json:"type_id"`
	StatPairs     []StatPair         `json:"stat_pairs"`
	StatusEffects []StatusEffectData `json:"status_effects"`
}

// DamageEvent is one hit inside a skill damage packet.
type DamageEvent struct {
	TargetID uint64 `json:"target_id"`
	Damage   int64  `json:"damage"`
	Modifier int32  `json:"modifier"`
	CurHP    int64  `json:"cur_hp"`
	MaxHP    int64  `json:"max_hp"`
}

// PartyMemberData is one member entry of a PartyInfo packet.
type PartyMemberData struct {
	Name        string `json:"name"`
	CharacterID uint64 `json:"character_id"`
}

type InitEnv struct {
	PlayerID uint64 `json:"player_id"`
}

type InitPC struct {
	PCData
}

type NewPC struct {
	PCData
}

type NewNPC struct {
	NPCData
}

type NewNPCSummon struct {
	NPCData
	OwnerID uint64 `json:"owner_id"`
}

type NewProjectile struct {
	ProjectileID  uint64 `json:"projectile_id"`
	OwnerID       uint64 `json:"owner_id"`
	SkillID       uint32 `json:"skill_id"`
	SkillEffectID uint32 `json:"skill_effect_id"`
}

type SkillStart struct {
	SourceID uint64 `json:"source_id"`
	SkillID  uint32 `json:"skill_id"`
}

type SkillCast struct {
	SourceID uint64 `json:"source_id"`
	SkillID  uint32 `json:"skill_id"`
}

type SkillDamage struct {
	SourceID      uint64        `json:"source_id"`
	SkillID       uint32        `json:"skill_id"`
	SkillEffectID uint32        `json:"skill_effect_id"`
	Events        []DamageEvent `json:"events"`
}

// SkillDamageAbnormalMove is the displacement variant of SkillDamage; the
// movement portion is ignored by the meter, the damage portion is not.
type SkillDamageAbnormalMove struct {
	SourceID      uint64        `json:"source_id"`
	SkillID       uint32        `json:"skill_id"`
	SkillEffectID uint32        `json:"skill_effect_id"`
	Events        []DamageEvent `json:"events"`
}

type StatusEffectAdd struct {
	ObjectID uint64           `json:"object_id"`
	Effect   StatusEffectData `json:"effect"`
}

type StatusEffectDuration struct {
	InstanceID     uint32 `json:"instance_id"`
	TargetID       uint64 `json:"target_id"`
	ExpirationTick uint64 `json:"expiration_tick"`
}

type StatusEffectRemove struct {
	ObjectID    uint64   `json:"object_id"`
	InstanceIDs []uint32 `json:"instance_ids"`
}

type PartyInfo struct {
	RaidInstanceID  uint32            `json:"raid_instance_id"`
	PartyInstanceID uint32            `json:"party_instance_id"`
	Members         []PartyMemberData `json:"members"`
}

type PartyLeaveResult struct {
	PartyInstanceID uint32 `json:"party_instance_id"`
	Name            string `json:"name"`
}

type PartyStatusEffectAdd struct {
	CharacterID uint64             `json:"character_id"`
	Effects     []StatusEffectData `json:"effects"`
}

type PartyStatusEffectRemove struct {
	CharacterID uint64   `json:"character_id"`
	InstanceIDs []uint32 `json:"instance_ids"`
}

type PartyStatusEffectResult struct {
	RaidInstanceID  uint32 `json:"raid_instance_id"`
	PartyInstanceID uint32 `json:"party_instance_id"`
	CharacterID     uint64 `json:"character_id"`
}

type IdentityGaugeChange struct {
	PlayerID uint64 `json:"player_id"`
	Gauge1   uint32 `json:"gauge_1"`
	Gauge2   uint32 `json:"gauge_2"`
	Gauge3   uint32 `json:"gauge_3"`
}

type ParalyzationState struct {
	ObjectID uint64 `json:"object_id"`
	Point    uint32 `json:"point"`
	MaxPoint uint32 `json:"max_point"`
}

type CounterAttack struct {
	SourceID uint64 `json:"source_id"`
	TargetID uint64 `json:"target_id"`
}

type Death struct {
	TargetID uint64 `json:"target_id"`
	SourceID uint64 `json:"source_id"`
}

// MigrationExecute fires on area transition before the new InitEnv; it is
// the earliest packet carrying the local player's account character ids.
type MigrationExecute struct {
	AccountCharacterID1 uint64 `json:"account_character_id1"`
	AccountCharacterID2 uint64 `json:"account_character_id2"`
}

type RemoveObject struct {
	ObjectIDs []uint64 `json:"object_ids"`
}

type ZoneObjectUnpublish struct {
	ObjectID uint64 `json:"object_id"`
}

type RaidResult struct{}

type RaidBossKill struct{}

type TriggerBossBattleStatus struct {
	Signal uint32 `json:"signal"`
}

func (InitEnv) EventOpcode() Opcode                 { return OpInitEnv }
func (InitPC) EventOpcode() Opcode                  { return OpInitPC }
func (NewPC) EventOpcode() Opcode                   { return OpNewPC }
func (NewNPC) EventOpcode() Opcode                  { return OpNewNPC }
func (NewNPCSummon) EventOpcode() Opcode            { return OpNewNPCSummon }
func (NewProjectile) EventOpcode() Opcode           { return OpNewProjectile }
func (SkillStart) EventOpcode() Opcode              { return OpSkillStartNotify }
func (SkillCast) EventOpcode() Opcode               { return OpSkillCastNotify }
func (SkillDamage) EventOpcode() Opcode             { return OpSkillDamageNotify }
func (SkillDamageAbnormalMove) EventOpcode() Opcode { return OpSkillDamageAbnormalMoveNotify }
func (StatusEffectAdd) EventOpcode() Opcode         { return OpStatusEffectAddNotify }
func (StatusEffectDuration) EventOpcode() Opcode    { return OpStatusEffectDurationNotify }
func (StatusEffectRemove) EventOpcode() Opcode      { return OpStatusEffectRemoveNotify }
func (PartyInfo) EventOpcode() Opcode               { return OpPartyInfo }
func (PartyLeaveResult) EventOpcode() Opcode        { return OpPartyLeaveResult }
func (PartyStatusEffectAdd) EventOpcode() Opcode    { return OpPartyStatusEffectAddNotify }
func (PartyStatusEffectRemove) EventOpcode() Opcode { return OpPartyStatusEffectRemoveNotify }
func (PartyStatusEffectResult) EventOpcode() Opcode { return OpPartyStatusEffectResultNotify }
func (IdentityGaugeChange) EventOpcode() Opcode     { return OpIdentityGaugeChangeNotify }
func (ParalyzationState) EventOpcode() Opcode       { return OpParalyzationStateNotify }
func (CounterAttack) EventOpcode() Opcode           { return OpCounterAttackNotify }
func (Death) EventOpcode() Opcode                   { return OpDeathNotify }
func (MigrationExecute) EventOpcode() Opcode        { return OpMigrationExecute }
func (RemoveObject) EventOpcode() Opcode            { return OpRemoveObject }
func (ZoneObjectUnpublish) EventOpcode() Opcode     { return OpZoneObjectUnpublishNotify }
func (RaidResult) EventOpcode() Opcode              { return OpRaidResult }
func (RaidBossKill) EventOpcode() Opcode            { return OpRaidBossKillNotify }
func (TriggerBossBattleStatus) EventOpcode() Opcode { return OpTriggerBossBattleStatus }
