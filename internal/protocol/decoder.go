package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decoder turns a raw frame payload into a typed event. The binary game
// layout is handled upstream by the capture relay; the meter core only
// depends on this contract.
type Decoder interface {
	Decode(op Opcode, payload []byte) (Event, error)
}

// ErrUnhandledOpcode marks opcodes the meter does not route. The dispatcher
// skips these without logging.
var ErrUnhandledOpcode = errors.New("unhandled opcode")

// DecodeError wraps a payload that does not match its opcode's layout.
type DecodeError struct {
	Op  Opcode
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// JSONDecoder decodes relay payloads, which are JSON renderings of the
// already-parsed packet fields. One factory per routed opcode.
type JSONDecoder struct{}

func NewJSONDecoder() *JSONDecoder { return &JSONDecoder{} }

func (d *JSONDecoder) Decode(op Opcode, payload []byte) (Event, error) {
	ev := eventFor(op)
	if ev == nil {
		return nil, ErrUnhandledOpcode
	}
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	return deref(ev), nil
}

func eventFor(op Opcode) any {
	switch op {
	case OpInitEnv:
		return &InitEnv{}
	case OpInitPC:
		return &InitPC{}
	case OpNewPC:
		return &NewPC{}
	case OpNewNPC:
		return &NewNPC{}
	case OpNewNPCSummon:
		return &NewNPCSummon{}
	case OpNewProjectile:
		return &NewProjectile{}
	case OpSkillStartNotify:
		return &SkillStart{}
	case OpSkillCastNotify:
		return &SkillCast{}
	case OpSkillDamageNotify:
		return &SkillDamage{}
	case OpSkillDamageAbnormalMoveNotify:
		return &SkillDamageAbnormalMove{}
	case OpStatusEffectAddNotify:
		return &StatusEffectAdd{}
	case OpStatusEffectDurationNotify:
		return &StatusEffectDuration{}
	case OpStatusEffectRemoveNotify:
		return &StatusEffectRemove{}
	case OpPartyInfo:
		return &PartyInfo{}
	case OpPartyLeaveResult:
		return &PartyLeaveResult{}
	case OpPartyStatusEffectAddNotify:
		return &PartyStatusEffectAdd{}
	case OpPartyStatusEffectRemoveNotify:
		return &PartyStatusEffectRemove{}
	case OpPartyStatusEffectResultNotify:
		return &PartyStatusEffectResult{}
	case OpIdentityGaugeChangeNotify:
		return &IdentityGaugeChange{}
	case OpParalyzationStateNotify:
		return &ParalyzationState{}
	case OpCounterAttackNotify:
		return &CounterAttack{}
	case OpDeathNotify:
		return &Death{}
	case OpMigrationExecute:
		return &MigrationExecute{}
	case OpRemoveObject:
		return &RemoveObject{}
	case OpZoneObjectUnpublishNotify:
		return &ZoneObjectUnpublish{}
	case OpRaidResult:
		return &RaidResult{}
	case OpRaidBossKillNotify:
		return &RaidBossKill{}
	case OpTriggerBossBattleStatus:
		return &TriggerBossBattleStatus{}
	default:
		return nil
	}
}

func deref(v any) Event {
	switch ev := v.(type) {
	case *InitEnv:
		return *ev
	case *InitPC:
		return *ev
	case *NewPC:
		return *ev
	case *NewNPC:
		return *ev
	case *NewNPCSummon:
		return *ev
	case *NewProjectile:
		return *ev
	case *SkillStart:
		return *ev
	case *SkillCast:
		return *ev
	case *SkillDamage:
		return *ev
	case *SkillDamageAbnormalMove:
		return *ev
	case *StatusEffectAdd:
		return *ev
	case *StatusEffectDuration:
		return *ev
	case *StatusEffectRemove:
		return *ev
	case *PartyInfo:
		return *ev
	case *PartyLeaveResult:
		return *ev
	case *PartyStatusEffectAdd:
		return *ev
	case *PartyStatusEffectRemove:
		return *ev
	case *PartyStatusEffectResult:
		return *ev
	case *IdentityGaugeChange:
		return *ev
	case *ParalyzationState:
		return *ev
	case *CounterAttack:
		return *ev
	case *Death:
		return *ev
	case *MigrationExecute:
		return *ev
	case *RemoveObject:
		return *ev
	case *ZoneObjectUnpublish:
		return *ev
	case *RaidResult:
		return *ev
	case *RaidBossKill:
		return *ev
	case *TriggerBossBattleStatus:
		return *ev
	default:
		return nil
	}
}
