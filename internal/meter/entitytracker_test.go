package meter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arkmeter/meter-core-go/internal/protocol"
)

func newTrackerFixture() (*IDTracker, *PartyTracker, *StatusTracker, *EntityTracker) {
	ids := NewIDTracker()
	parties := NewPartyTracker(ids)
	status := NewStatusTracker(ids, parties)
	entities := NewEntityTracker(ids, parties, status, zap.NewNop())
	return ids, parties, status, entities
}

func TestEntityTracker_GetOrCreateSynthesizesOnce(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	e1 := entities.GetOrCreate(500)
	assert.Equal(t, EntityUnknown, e1.Type)
	assert.Equal(t, uint64(500), e1.ID)

	e2 := entities.GetOrCreate(500)
	assert.Same(t, e1, e2, "repeated references must not duplicate the entity")
}

func TestEntityTracker_NewPCBindsIdentity(t *testing.T) {
	ids, _, _, entities := newTrackerFixture()

	e := entities.NewPC(protocol.NewPC{PCData: protocol.PCData{
		PlayerID:    100,
		Name:        "Alice",
		ClassID:     205,
		CharacterID: 9001,
		StatPairs: []protocol.StatPair{
			{StatType: protocol.StatTypeHP, Value: 50000},
			{StatType: protocol.StatTypeMaxHP, Value: 50000},
		},
	}})

	assert.Equal(t, EntityPlayer, e.Type)
	assert.Equal(t, "Sorceress", e.Class)
	assert.Equal(t, int64(50000), e.MaxHP)

	charID, ok := ids.CharacterID(100)
	require.True(t, ok)
	assert.Equal(t, uint64(9001), charID)
}

func TestEntityTracker_InitEnvKeepsOnlyLocalPlayer(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	entities.InitPC(protocol.InitPC{PCData: protocol.PCData{PlayerID: 100, Name: "Alice", ClassID: 205, CharacterID: 9001}})
	entities.NewNPC(protocol.NewNPC{NPCData: protocol.NPCData{ObjectID: 200, TypeID: 1234}})

	local := entities.InitEnv(protocol.InitEnv{PlayerID: 111})

	assert.Equal(t, "Alice", local.Name, "local player row survives the transition")
	assert.Equal(t, uint64(111), local.ID, "local player re-keyed under new object id")
	assert.Equal(t, uint64(111), entities.LocalPlayerID())
	_, ok := entities.Get(200)
	assert.False(t, ok, "zone entities dropped")
}

func TestEntityTracker_NewNPCClassifiesEsther(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	npc := entities.NewNPC(protocol.NewNPC{NPCData: protocol.NPCData{ObjectID: 300, TypeID: 23000}})
	assert.Equal(t, EntityEsther, npc.Type)
	assert.Equal(t, "Wei", npc.Name)

	other := entities.NewNPC(protocol.NewNPC{NPCData: protocol.NPCData{ObjectID: 301, TypeID: 999}})
	assert.Equal(t, EntityNPC, other.Type)
}

func TestEntityTracker_GetSourceResolvesOwnerChain(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	entities.NewPC(protocol.NewPC{PCData: protocol.PCData{PlayerID: 100, Name: "Alice", ClassID: 205, CharacterID: 9001}})
	entities.NewProjectile(protocol.NewProjectile{ProjectileID: 700, OwnerID: 100, SkillID: 19090})

	source := entities.GetSource(700)
	assert.Equal(t, uint64(100), source.ID, "projectile damage attributes to its owner")
	assert.Equal(t, "Alice", source.Name)
}

func TestEntityTracker_GuessIsPlayerPromotesUnknown(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	e := entities.GetOrCreate(500)
	require.Equal(t, EntityUnknown, e.Type)

	// 19090 is a Sorceress-only skill.
	promoted := entities.GuessIsPlayer(e, 19090)
	assert.Equal(t, EntityPlayer, promoted.Type)
	assert.Equal(t, uint16(205), promoted.ClassID)
	assert.Equal(t, "Sorceress", promoted.Class)
}

func TestEntityTracker_GuessIsPlayerIgnoresUnknownSkill(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	e := entities.GetOrCreate(500)
	same := entities.GuessIsPlayer(e, 1)
	assert.Equal(t, EntityUnknown, same.Type)
}

func TestEntityTracker_GuessIsPlayerDoesNotReclassifyNPC(t *testing.T) {
	_, _, _, entities := newTrackerFixture()

	npc := entities.NewNPC(protocol.NewNPC{NPCData: protocol.NPCData{ObjectID: 300, TypeID: 999}})
	same := entities.GuessIsPlayer(npc, 19090)
	assert.Equal(t, EntityNPC, same.Type)
}

func TestEntityTracker_BuildAndRegisterStatusEffect(t *testing.T) {
	_, _, status, entities := newTrackerFixture()

	entities.BuildAndRegisterStatusEffect(protocol.StatusEffectData{
		InstanceID: 1, BuffID: 500, SourceID: 100, TotalTime: 30,
	}, 200)

	_, onTarget := status.EffectsOn(&Entity{ID: 100}, &Entity{ID: 200}, 0)
	assert.Equal(t, []uint32{500}, onTarget)
}

func TestEntityTracker_PartyStatusEffectAddRemove(t *testing.T) {
	ids, parties, status, entities := newTrackerFixture()

	ids.Bind(100, 9001)
	parties.Add(1, 10, 9001, "Alice")
	parties.Add(1, 10, 9002, "Bob")

	entities.PartyStatusEffectAdd(protocol.PartyStatusEffectAdd{
		CharacterID: 9002,
		Effects:     []protocol.StatusEffectData{{InstanceID: 7, BuffID: 777, SourceID: 100}},
	})

	bob := &Entity{ID: 300, Type: EntityPlayer, CharacterID: 9002}
	onSource, _ := status.EffectsOn(bob, &Entity{ID: 400}, 9001)
	assert.Equal(t, []uint32{777}, onSource)

	entities.PartyStatusEffectRemove(protocol.PartyStatusEffectRemove{
		CharacterID: 9002,
		InstanceIDs: []uint32{7},
	})
	onSource, _ = status.EffectsOn(bob, &Entity{ID: 400}, 9001)
	assert.Empty(t, onSource)
}

func TestEntityTracker_PartyInfoBindsKnownEntities(t *testing.T) {
	ids, parties, _, entities := newTrackerFixture()

	entities.NewPC(protocol.NewPC{PCData: protocol.PCData{PlayerID: 100, Name: "Alice", ClassID: 205}})

	entities.PartyInfo(protocol.PartyInfo{
		RaidInstanceID:  1,
		PartyInstanceID: 10,
		Members: []protocol.PartyMemberData{
			{Name: "Alice", CharacterID: 9001},
			{Name: "Bob", CharacterID: 9002},
		},
	})

	charID, ok := ids.CharacterID(100)
	require.True(t, ok)
	assert.Equal(t, uint64(9001), charID)
	assert.ElementsMatch(t, []uint64{9001, 9002}, parties.MembersOf(10))
}

func TestEntityTracker_PartyInfoRefreshReplacesComposition(t *testing.T) {
	_, parties, _, entities := newTrackerFixture()

	entities.PartyInfo(protocol.PartyInfo{
		RaidInstanceID: 1, PartyInstanceID: 10,
		Members: []protocol.PartyMemberData{{Name: "Alice", CharacterID: 9001}},
	})
	entities.PartyInfo(protocol.PartyInfo{
		RaidInstanceID: 1, PartyInstanceID: 10,
		Members: []protocol.PartyMemberData{{Name: "Bob", CharacterID: 9002}},
	})

	assert.ElementsMatch(t, []uint64{9002}, parties.MembersOf(10))
}

func TestEntityTracker_MigrationExecuteBindsLocalCharacter(t *testing.T) {
	ids, _, _, entities := newTrackerFixture()

	entities.InitEnv(protocol.InitEnv{PlayerID: 100})
	entities.MigrationExecute(protocol.MigrationExecute{AccountCharacterID1: 9001})

	assert.Equal(t, uint64(9001), ids.LocalCharacterID())
}
