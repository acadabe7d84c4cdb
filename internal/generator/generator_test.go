package generator

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/creditbridge/backend/internal/domain"
	"github.com/vanshika/creditbridge/backend/internal/scoring"
)

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	cfg := Config{NumWorking: 20, NumStudents: 20, Seed: 7}

	first, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)
	second, err := New(cfg).Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 40)
}

func TestGeneratedProfilesAreValid(t *testing.T) {
	records, err := New(Config{NumWorking: 50, NumStudents: 50, Seed: 99}).Generate(context.Background())
	require.NoError(t, err)

	svc := scoring.New(nil, 0, nil)
	ids := make(map[string]struct{}, len(records))
	var students int
	for _, rec := range records {
		ids[rec.UserID] = struct{}{}

		p, err := svc.PrepareProfile(rec.Profile)
		require.NoError(t, err, "user %s", rec.UserID)
		if p.UserType == domain.UserTypeStudent {
			students++
			require.NotNil(t, p.GPA)
			assert.GreaterOrEqual(t, *p.GPA, 5.0)
			assert.LessOrEqual(t, *p.GPA, 10.0)
		} else {
			for _, v := range p.MonthlyIncome {
				assert.GreaterOrEqual(t, v, 10000.0)
			}
		}
	}
	assert.Equal(t, 50, students)
	assert.Len(t, ids, len(records))
}

func TestGenerateRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(DefaultConfig()).Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriteAndReadFile(t *testing.T) {
	records, err := New(Config{NumWorking: 3, NumStudents: 2, Seed: 1}).Generate(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "profiles.json")
	require.NoError(t, WriteFile(path, records))

	loaded, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, loaded, len(records))
	for i := range records {
		assert.Equal(t, records[i].UserID, loaded[i].UserID)
		assert.Equal(t, scoring.Normalize(records[i].Profile), scoring.Normalize(loaded[i].Profile))
	}
}
