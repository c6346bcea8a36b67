package meter

// Class names by class id. Representative subset of the game's table; ids
// follow the game's archetype numbering.
var classNames = map[uint16]string{
	102: "Berserker",
	103: "Destroyer",
	104: "Gunlancer",
	105: "Paladin",
	202: "Arcanist",
	203: "Summoner",
	204: "Bard",
	205: "Sorceress",
	302: "Wardancer",
	303: "Scrapper",
	304: "Soulfist",
	305: "Glaivier",
	312: "Striker",
	402: "Deathblade",
	403: "Shadowhunter",
	404: "Reaper",
	502: "Sharpshooter",
	503: "Deadeye",
	504: "Artillerist",
	505: "Machinist",
	512: "Gunslinger",
	602: "Artist",
	603: "Aeromancer",
}

// ClassName resolves a class id to its display name.
func ClassName(classID uint16) string {
	return classNames[classID]
}

// skillToClass maps skill ids that only players can cast to the class that
// owns them. Used by the Unknown→Player promotion heuristic; spawn packets
// for player characters are not always delivered, so observed skill usage
// is the fallback evidence. Representative subset of the full game table.
var skillToClass = map[uint32]uint16{
	16140: 102, // Red Dust
	16145: 102, // Hell Blade
	16640: 102, // Mountain Crash
	17200: 103, // Perfect Swing
	17230: 103, // Seismic Hammer
	18030: 104, // Hook Chain
	18240: 104, // Gunlance Shot
	36200: 105, // Holy Protection
	36170: 105, // Heavenly Blessings
	19030: 205, // Rime Arrow
	19090: 205, // Doomsday
	19280: 205, // Punishing Strike
	21140: 204, // Sonic Vibration
	21170: 204, // Heavenly Tune
	20250: 203, // Ancient Spear
	25038: 202, // Return
	22340: 302, // Roar of Courage
	23230: 303, // Instant Hit
	24200: 304, // Merciless Pummel
	34590: 305, // Starfall Pounce
	39330: 312, // Call of the Wind God
	25402: 402, // Blitz Rush
	25950: 402, // Maelstrom
	27960: 403, // Demonic Slash
	26960: 404, // Distortion
	28159: 502, // Snipe
	29360: 503, // Spiral Tracker
	30260: 504, // Multiple Rocket Launcher
	35720: 505, // Command: Baktaan Assault
	38060: 512, // Peacemaker
	31420: 602, // Paint: Sun Well
	32290: 603, // Narrow-Minded
}

// ClassForSkill returns the owning class of a player-only skill id.
func ClassForSkill(skillID uint32) (uint16, bool) {
	classID, ok := skillToClass[skillID]
	return classID, ok
}
