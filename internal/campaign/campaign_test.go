package campaign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCampaign_Accessors(t *testing.T) {
	c := New("1", "Spring")
	assert.Equal(t, "1", c.ID())
	assert.Equal(t, "Spring", c.Name())

	renamed := c.WithName("Summer")
	assert.Equal(t, "Summer", renamed.Name())
	assert.Equal(t, "Spring", c.Name(), "WithName copies")

	assert.Empty(t, New("", "x").ID())
	assert.Equal(t, "12", Campaign{"_id": 12}.ID())
}

func TestFromData(t *testing.T) {
	c, ok := FromData(map[string]any{"_id": "1"})
	assert.True(t, ok)
	assert.Equal(t, "1", c.ID())

	_, ok = FromData("nope")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yml := filepath.Join(dir, "c.yaml")
	require.NoError(t, os.WriteFile(yml, []byte("_id: c1\nname: Spring\nbudget: 100\n"), 0o600))
	js := filepath.Join(dir, "c.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"_id":"c2","name":"Fall"}`), 0o600))

	c, err := LoadFile(yml)
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID())
	assert.Equal(t, "Spring", c.Name())
	assert.Equal(t, 100, c["budget"])

	c, err = LoadFile(js)
	require.NoError(t, err)
	assert.Equal(t, "c2", c.ID())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSeedFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(good, []byte("- _id: a\n  name: A\n- _id: b\n  name: B\n"), 0o600))
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- name: orphan\n"), 0o600))

	cs, err := LoadSeedFile(good)
	require.NoError(t, err)
	require.Len(t, cs, 2)
	assert.Equal(t, "b", cs[1].ID())

	_, err = LoadSeedFile(bad)
	assert.ErrorIs(t, err, ErrMissingID)
}
