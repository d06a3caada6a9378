package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIdentityMap_SetAndLookup(t *testing.T) {
	m := NewIdentityMap()
	m.Set("alice42", Identity{DisplayName: "Alice", DisplayAvatar: "🐍"})

	ident, ok := m.Get("alice42")
	require.True(t, ok)
	require.Equal(t, "Alice", ident.DisplayName)

	id, ok := m.LookupName("Alice")
	require.True(t, ok)
	require.Equal(t, "alice42", id)
}

func TestIdentityMap_RenameDropsOldName(t *testing.T) {
	m := NewIdentityMap()
	m.Set("alice42", Identity{DisplayName: "Alice"})
	m.Set("alice42", Identity{DisplayName: "Queen"})

	_, ok := m.LookupName("Alice")
	require.False(t, ok)
	id, ok := m.LookupName("Queen")
	require.True(t, ok)
	require.Equal(t, "alice42", id)
	require.Len(t, m.All(), 1)
}

func TestIdentityMap_SharedNameKeepsLatestClaim(t *testing.T) {
	m := NewIdentityMap()
	m.Set("a", Identity{DisplayName: "Player"})
	m.Set("b", Identity{DisplayName: "Player"})

	id, _ := m.LookupName("Player")
	require.Equal(t, "b", id)

	// removing the earlier claimant leaves the reverse entry alone
	m.Remove("a")
	id, ok := m.LookupName("Player")
	require.True(t, ok)
	require.Equal(t, "b", id)
}

func TestIdentityMap_ResolveFallsBackToRawID(t *testing.T) {
	m := NewIdentityMap()
	ident := m.Resolve("bob")
	require.Equal(t, "bob", ident.DisplayName)
	require.Equal(t, DefaultAvatar, ident.DisplayAvatar)
}

func TestIdentityMapFrom_AllIsACopy(t *testing.T) {
	m := IdentityMapFrom(map[string]Identity{"a": {DisplayName: "A"}})
	all := m.All()
	all["a"] = Identity{DisplayName: "changed"}

	ident, _ := m.Get("a")
	require.Equal(t, "A", ident.DisplayName)
}
