package protocol

// Opcode identifies the packet kind of a captured frame. The numeric values
// are the relay's stable identifiers, not the game client's per-version
// opcodes; the relay normalizes those before frames reach the meter.
type Opcode uint16

const (
	OpUnknown Opcode = iota
	OpInitEnv
	OpInitPC
	OpNewPC
	OpNewNPC
	OpNewNPCSummon
	OpNewProjectile
	OpSkillStartNotify
	OpSkillCastNotify
	OpSkillDamageNotify
	OpSkillDamageAbnormalMoveNotify
	OpStatusEffectAddNotify
	OpStatusEffectDurationNotify
	OpStatusEffectRemoveNotify
	OpPartyInfo
	OpPartyLeaveResult
	OpPartyStatusEffectAddNotify
	OpPartyStatusEffectRemoveNotify
	OpPartyStatusEffectResultNotify
	OpIdentityGaugeChangeNotify
	OpParalyzationStateNotify
	OpCounterAttackNotify
	OpDeathNotify
	OpMigrationExecute
	OpRemoveObject
	OpZoneObjectUnpublishNotify
	OpRaidResult
	OpRaidBossKillNotify
	OpTriggerBossBattleStatus
)

func (o Opcode) String() string {
	switch o {
	case OpInitEnv:
		return "InitEnv"
	case OpInitPC:
		return "InitPC"
	case OpNewPC:
		return "NewPC"
	case OpNewNPC:
		return "NewNPC"
	case OpNewNPCSummon:
		return "NewNPCSummon"
	case OpNewProjectile:
		return "NewProjectile"
	case OpSkillStartNotify:
		return "SkillStartNotify"
	case OpSkillCastNotify:
		return "SkillCastNotify"
	case OpSkillDamageNotify:
		return "SkillDamageNotify"
	case OpSkillDamageAbnormalMoveNotify:
		return "SkillDamageAbnormalMoveNotify"
	case OpStatusEffectAddNotify:
		return "StatusEffectAddNotify"
	case OpStatusEffectDurationNotify:
		return "StatusEffectDurationNotify"
	case OpStatusEffectRemoveNotify:
		return "StatusEffectRemoveNotify"
	case OpPartyInfo:
		return "PartyInfo"
	case OpPartyLeaveResult:
		return "PartyLeaveResult"
	case OpPartyStatusEffectAddNotify:
		return "PartyStatusEffectAddNotify"
	case OpPartyStatusEffectRemoveNotify:
		return "PartyStatusEffectRemoveNotify"
	case OpPartyStatusEffectResultNotify:
		return "PartyStatusEffectResultNotify"
	case OpIdentityGaugeChangeNotify:
		return "IdentityGaugeChangeNotify"
	case OpParalyzationStateNotify:
		return "ParalyzationStateNotify"
	case OpCounterAttackNotify:
		return "CounterAttackNotify"
	case OpDeathNotify:
		return "DeathNotify"
	case OpMigrationExecute:
		return "MigrationExecute"
	case OpRemoveObject:
		return "RemoveObject"
	case OpZoneObjectUnpublishNotify:
		return "ZoneObjectUnpublishNotify"
	case OpRaidResult:
		return "RaidResult"
	case OpRaidBossKillNotify:
		return "RaidBossKillNotify"
	case OpTriggerBossBattleStatus:
		return "TriggerBossBattleStatus"
	default:
		return "Unknown"
	}
}
