package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medarch/records-api/internal/model"
	"github.com/medarch/records-api/internal/repository"
)

func TestLoadMissingFileMeansNoData(t *testing.T) {
	repo := New(filepath.Join(t.TempDir(), "patients.json"))

	snapshot, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "patients.json")
	repo := New(path)
	ctx := context.Background()

	saved := &repository.Snapshot{
		State: repository.SnapshotState{
			Patients: []model.Patient{{FirstName: "Jean", LastName: "Dupont", Name: "JEAN DUPONT"}},
		},
		Version: repository.SnapshotVersion,
	}
	require.NoError(t, repo.Save(ctx, saved))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, repository.SnapshotVersion, loaded.Version)
	require.Len(t, loaded.State.Patients, 1)
	assert.Equal(t, "JEAN DUPONT", loaded.State.Patients[0].Name)
}

func TestCorruptFileMeansNoData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.json")
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	snapshot, err := New(path).Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snapshot)
}

func TestSaveOverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.json")
	repo := New(path)
	ctx := context.Background()

	for _, name := range []string{"A", "B"} {
		err := repo.Save(ctx, &repository.Snapshot{
			State:   repository.SnapshotState{Patients: []model.Patient{{FirstName: name}}},
			Version: repository.SnapshotVersion,
		})
		require.NoError(t, err)
	}

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.State.Patients, 1)
	assert.Equal(t, "B", loaded.State.Patients[0].FirstName)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
