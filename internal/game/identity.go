package game

// Identity is the display identity a participant chooses to present.
type Identity struct {
	DisplayName   string `json:"display_name"`
	DisplayAvatar string `json:"display_avatar"`
}

// DefaultAvatar is shown for participants that never announced one.
const DefaultAvatar = "🙂"

// IdentityMap translates connection identifiers to display identities and back.
// Display names are not unique; the reverse lookup returns the participant that
// most recently claimed the name.
type IdentityMap struct {
	byID   map[string]Identity
	byName map[string]string
}

func NewIdentityMap() *IdentityMap {
	return &IdentityMap{
		byID:   make(map[string]Identity),
		byName: make(map[string]string),
	}
}

// IdentityMapFrom builds a mapping from a full identity snapshot.
func IdentityMapFrom(players map[string]Identity) *IdentityMap {
	m := NewIdentityMap()
	for id, ident := range players {
		m.Set(id, ident)
	}
	return m
}

func (m *IdentityMap) Set(id string, ident Identity) {
	if old, ok := m.byID[id]; ok && m.byName[old.DisplayName] == id {
		delete(m.byName, old.DisplayName)
	}
	m.byID[id] = ident
	m.byName[ident.DisplayName] = id
}

func (m *IdentityMap) Get(id string) (Identity, bool) {
	ident, ok := m.byID[id]
	return ident, ok
}

// Resolve never fails: an unknown id is presented under its raw identifier.
func (m *IdentityMap) Resolve(id string) Identity {
	if ident, ok := m.Get(id); ok {
		return ident
	}
	return Identity{DisplayName: id, DisplayAvatar: DefaultAvatar}
}

// LookupName returns the connection identifier currently presenting name.
func (m *IdentityMap) LookupName(name string) (string, bool) {
	id, ok := m.byName[name]
	return id, ok
}

func (m *IdentityMap) Remove(id string) {
	old, ok := m.byID[id]
	if !ok {
		return
	}
	delete(m.byID, id)
	if m.byName[old.DisplayName] == id {
		delete(m.byName, old.DisplayName)
	}
}

// All returns a copy safe to hand to other goroutines.
func (m *IdentityMap) All() map[string]Identity {
	out := make(map[string]Identity, len(m.byID))
	for id, ident := range m.byID {
		out[id] = ident
	}
	return out
}
