package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0e5751c026e543b2", Digest(""))
	assert.Equal(t, "733ec559845c8942", Digest("hunter2"))
	assert.Len(t, Digest("anything"), DigestLength)
}

func TestParseValues(t *testing.T) {
	t.Parallel()

	values, err := ParseValues([]byte("GH_CLIENT_ID: abc\nETH_MIN: 4\nFLAG: true\n"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"GH_CLIENT_ID": "abc", "ETH_MIN": "4", "FLAG": "true"}, values)

	values, err = ParseValues(nil)
	require.NoError(t, err)
	assert.Empty(t, values)

	_, err = ParseValues([]byte("- a\n- b\n"))
	assert.ErrorContains(t, err, "must be a mapping")

	_, err = ParseValues([]byte("A:\n  nested: x\n"))
	assert.ErrorContains(t, err, "must be a scalar")

	_, err = ParseValues([]byte("A: x\nA: y\n"))
	assert.Error(t, err)
}

func TestLoadValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secrets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("GH_CLIENT_SECRET: s3cr3t\n"), 0o600))

	values, err := LoadValues(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", values["GH_CLIENT_SECRET"])

	_, err = LoadValues(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestImport(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{Secrets: map[string]string{
		"KEEP":   Digest("same"),
		"ROTATE": Digest("old"),
		"STALE":  Digest("gone"),
	}}

	changes := Import(m, map[string]string{
		"KEEP":   "same",
		"ROTATE": "new",
		"NEW":    "fresh",
	}, false)

	assert.Equal(t, []Change{
		{Name: "KEEP", Action: ActionUnchanged},
		{Name: "NEW", Action: ActionAdded},
		{Name: "ROTATE", Action: ActionUpdated},
	}, changes)
	assert.Equal(t, Digest("new"), m.Secrets["ROTATE"])
	assert.Contains(t, m.Secrets, "STALE")
}

func TestImport_Prune(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{Secrets: map[string]string{"A": Digest("a"), "B": Digest("b")}}

	changes := Import(m, map[string]string{"A": "a"}, true)

	assert.Equal(t, []Change{
		{Name: "A", Action: ActionUnchanged},
		{Name: "B", Action: ActionRemoved},
	}, changes)
	assert.Equal(t, []string{"A"}, m.SecretNames())
}

func TestImport_NilSecrets(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{}
	changes := Import(m, map[string]string{"A": "a"}, false)

	assert.Equal(t, []Change{{Name: "A", Action: ActionAdded}}, changes)
	assert.Equal(t, Digest("a"), m.Secrets["A"])
}

func TestVerify(t *testing.T) {
	t.Parallel()

	m := &manifest.Manifest{Secrets: map[string]string{
		"GOOD":    Digest("v"),
		"BAD":     Digest("v"),
		"ABSENT":  Digest("v"),
		"PENDING": manifest.UnsetDigest,
	}}

	problems := Verify(m, map[string]string{"GOOD": "v", "BAD": "w", "PENDING": "p"})

	assert.Equal(t, []Problem{
		{Name: "ABSENT", Reason: "no local value"},
		{Name: "BAD", Reason: "digest mismatch"},
		{Name: "PENDING", Reason: "not imported yet"},
	}, problems)
}
