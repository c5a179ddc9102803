package menu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/joplin-runner/pkg/core"
)

func TestShippedLayoutsAreValid(t *testing.T) {
	require.NoError(t, TopMenu.Validate())
	require.NoError(t, NotebookMenu.Validate())
	require.NoError(t, NoteMenu.Validate())
	// delete is the eighth entry of the note context menu
	i, err := NoteMenu.Index("Delete")
	require.NoError(t, err)
	assert.Equal(t, 7, i)
	assert.Equal(t, []string{"File", "Edit", "View", "Go", "Notebook", "Note", "Tools", "Help"}, TopMenu.Names())
}

func TestValidate_DuplicateSibling(t *testing.T) {
	l := Layout{E("File", E("Open"), E("Open"))}
	err := l.Validate()
	require.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"Open"`)
	assert.Contains(t, err.Error(), `"File"`)
}

func TestValidate_SameNameInDifferentBranches(t *testing.T) {
	l := Layout{E("A", E("x")), E("B", E("x"))}
	assert.NoError(t, l.Validate())
}

func TestIndex(t *testing.T) {
	i, err := TopMenu.Index("Go")
	require.NoError(t, err)
	assert.Equal(t, 3, i)

	j, err := TopMenu[i].Index("Goto anything")
	require.NoError(t, err)
	assert.Equal(t, 3, j)
}

func TestIndex_UnknownNameListsSiblings(t *testing.T) {
	_, err := NotebookMenu.Index("Archive")
	require.ErrorIs(t, err, core.ErrMenuResolution)

	var ee *core.ExecutionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "Archive", ee.Details["segment"])
	assert.Equal(t, []string{"New", "Delete", "Rename", "Export"}, ee.Details["available"])
	assert.Equal(t, core.ErrCategoryMenu, ee.Category)
}

func TestParseLayout(t *testing.T) {
	data := []byte(`
- name: File
  entries:
    - name: New note
    - name: Import
      entries:
        - name: JEX
- name: Help
`)
	l, err := ParseLayout(data)
	require.NoError(t, err)
	require.Len(t, l, 2)
	assert.Equal(t, "Import", l[0].Subentries[1].Name)
	assert.Equal(t, "JEX", l[0].Subentries[1].Subentries[0].Name)
	assert.True(t, l[1].IsLeaf())
}

func TestParseLayout_Invalid(t *testing.T) {
	_, err := ParseLayout([]byte("- name: A\n- name: A\n"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = ParseLayout([]byte("[]"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	_, err = ParseLayout([]byte("name: [unterminated"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: Go\n  entries:\n    - name: Back\n"), 0o644))

	l, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Equal(t, "Back", l[0].Subentries[0].Name)

	_, err = LoadLayout(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
