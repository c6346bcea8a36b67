package protocol

// HitFlag is the low nibble of a damage event's modifier field.
type HitFlag uint8

const (
	HitFlagNormal HitFlag = iota
	HitFlagCritical
	HitFlagMiss
	HitFlagInvincible
	HitFlagDot
	HitFlagImmune
	HitFlagImmuneSilenced
	HitFlagFontSilenced
	HitFlagDotCritical
	HitFlagDodge
	HitFlagReflect
	HitFlagDamageShare
	HitFlagDodgeHit
)

// HitOption is bits 4-6 of the modifier field, the positional bonus.
type HitOption uint8

const (
	HitOptionNone HitOption = iota
	HitOptionBackAttack
	HitOptionFrontalAttack
	HitOptionFlankAttack
)

// DecodeModifier splits the packed modifier field of a damage event.
func DecodeModifier(modifier int32) (HitFlag, HitOption) {
	return HitFlag(modifier & 0xf), HitOption((modifier >> 4) & 0x7)
}

// IsCritical reports whether the hit landed as a critical, direct or dot.
func (f HitFlag) IsCritical() bool {
	return f == HitFlagCritical || f == HitFlagDotCritical
}

// Ignored reports whether the hit dealt no effective damage and should not
// be accumulated.
func (f HitFlag) Ignored() bool {
	switch f {
	case HitFlagInvincible, HitFlagMiss, HitFlagImmune, HitFlagImmuneSilenced, HitFlagDodge:
		return true
	default:
		return false
	}
}
