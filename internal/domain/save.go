package domain

import (
	"reflect"
	"time"
)

// Save represents the full contents of a save directory.
// A Save returned by a read is a snapshot; it is never modified in place.
type Save struct {
	// Nfo is the save summary shown in the save list.
	Nfo Nfo

	// Globals holds the named script variables.
	Globals Globals

	// PartyTable holds party composition, journal and resources.
	PartyTable PartyTable

	// Screenshot is the raw save thumbnail. Autosaves have none.
	Screenshot []byte
}

// Nfo is the save summary.
type Nfo struct {
	SaveName   string `toml:"save_name"`
	AreaName   string `toml:"area_name"`
	LastModule string `toml:"last_module"`
	CheatUsed  bool   `toml:"cheat_used"`

	// TimePlayed is the total play time in seconds.
	TimePlayed uint32 `toml:"time_played"`
}

// Globals holds the boolean and numeric script variables of a save.
type Globals struct {
	Booleans []BooleanGlobal `toml:"boolean,omitempty"`
	Numbers  []NumberGlobal  `toml:"number,omitempty"`
}

// BooleanGlobal is a named boolean script variable.
type BooleanGlobal struct {
	Name  string `toml:"name"`
	Value bool   `toml:"value"`
}

// NumberGlobal is a named numeric script variable.
type NumberGlobal struct {
	Name  string `toml:"name"`
	Value uint8  `toml:"value"`
}

// JournalEntry is a quest journal entry.
type JournalEntry struct {
	ID    string `toml:"id"`
	Stage int32  `toml:"stage"`
	Date  uint32 `toml:"date"`
	Time  uint32 `toml:"time"`
}

// PartyMember is a member of the active party.
type PartyMember struct {
	Index  int  `toml:"index"`
	Leader bool `toml:"leader"`
}

// AvailableMember describes whether a companion can join the party.
type AvailableMember struct {
	Available  bool `toml:"available"`
	Selectable bool `toml:"selectable"`
}

// PartyTable holds party composition, the journal and shared resources.
type PartyTable struct {
	Journal          []JournalEntry    `toml:"journal,omitempty"`
	CheatUsed        bool              `toml:"cheat_used"`
	Credits          uint32            `toml:"credits"`
	Members          []PartyMember     `toml:"member,omitempty"`
	AvailableMembers []AvailableMember `toml:"available_member,omitempty"`
	PartyXP          int32             `toml:"party_xp"`

	// Influence, Components and Chemicals are set only in GameTwo saves.
	// See Save.Game.
	Influence  []int32 `toml:"influence,omitempty"`
	Components *uint32 `toml:"components,omitempty"`
	Chemicals  *uint32 `toml:"chemicals,omitempty"`
}

// Game identifies which game wrote a save.
type Game int

const (
	GameOne Game = iota + 1
	GameTwo
)

// String returns the short game label.
func (g Game) String() string {
	switch g {
	case GameOne:
		return "K1"
	case GameTwo:
		return "K2"
	default:
		return "unknown"
	}
}

// Game reports which game the save belongs to. Only the second game keeps
// companion influence and crafting resources in the party table.
func (s Save) Game() Game {
	pt := s.PartyTable
	if pt.Influence != nil || pt.Components != nil || pt.Chemicals != nil {
		return GameTwo
	}
	return GameOne
}

// SaveEntry is one save found by listing a saves folder.
type SaveEntry struct {
	// Path is the save directory.
	Path string

	// Modified is the modification time of the save summary file.
	Modified time.Time

	Nfo Nfo
}

// Clone returns a deep copy of the save.
func (s Save) Clone() Save {
	c := s
	c.Globals.Booleans = cloneSlice(s.Globals.Booleans)
	c.Globals.Numbers = cloneSlice(s.Globals.Numbers)
	c.PartyTable.Journal = cloneSlice(s.PartyTable.Journal)
	c.PartyTable.Members = cloneSlice(s.PartyTable.Members)
	c.PartyTable.AvailableMembers = cloneSlice(s.PartyTable.AvailableMembers)
	c.PartyTable.Influence = cloneSlice(s.PartyTable.Influence)
	c.PartyTable.Components = clonePtr(s.PartyTable.Components)
	c.PartyTable.Chemicals = clonePtr(s.PartyTable.Chemicals)
	c.Screenshot = cloneSlice(s.Screenshot)
	return c
}

// Equal reports whether two saves have the same contents.
// Nil and empty lists are considered equal.
func (s Save) Equal(other Save) bool {
	return reflect.DeepEqual(s.Normalize(), other.Normalize())
}

// Normalize returns a copy of the save with empty lists replaced by nil.
func (s Save) Normalize() Save {
	c := s.Clone()
	c.Globals.Booleans = nilIfEmpty(c.Globals.Booleans)
	c.Globals.Numbers = nilIfEmpty(c.Globals.Numbers)
	c.PartyTable.Journal = nilIfEmpty(c.PartyTable.Journal)
	c.PartyTable.Members = nilIfEmpty(c.PartyTable.Members)
	c.PartyTable.AvailableMembers = nilIfEmpty(c.PartyTable.AvailableMembers)
	c.PartyTable.Influence = nilIfEmpty(c.PartyTable.Influence)
	c.Screenshot = nilIfEmpty(c.Screenshot)
	return c
}

// SetBoolean sets a boolean global, adding it if it does not exist.
func (g *Globals) SetBoolean(name string, value bool) {
	for i := range g.Booleans {
		if g.Booleans[i].Name == name {
			g.Booleans[i].Value = value
			return
		}
	}
	g.Booleans = append(g.Booleans, BooleanGlobal{Name: name, Value: value})
}

// SetNumber sets a numeric global, adding it if it does not exist.
func (g *Globals) SetNumber(name string, value uint8) {
	for i := range g.Numbers {
		if g.Numbers[i].Name == name {
			g.Numbers[i].Value = value
			return
		}
	}
	g.Numbers = append(g.Numbers, NumberGlobal{Name: name, Value: value})
}

// Count returns the total number of globals.
func (g Globals) Count() int {
	return len(g.Booleans) + len(g.Numbers)
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}

func nilIfEmpty[T any](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	return in
}
