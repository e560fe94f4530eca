package service

import (
	"context"
	"testing"

	"nexogym/internal/model"
	"nexogym/internal/repository"
	"nexogym/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleService_ResolvesTierWithoutCache(t *testing.T) {
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierPro)
	svc := NewModuleService(repository.NewGymRepository(db), nil, 0)

	access, err := svc.Access(context.Background(), gym.ID)

	require.NoError(t, err)
	assert.Equal(t, model.TierPro, access.Tier)
	assert.Equal(t, model.GymActive, access.Status)
	assert.True(t, access.Allows(model.ModulePOS))
	assert.True(t, access.Allows(model.ModuleClasses))
	assert.False(t, access.Allows(model.ModuleBiometrics))

	// Invalidate is a no-op without Redis.
	svc.Invalidate(context.Background(), gym.ID)
}

func TestModuleService_UnknownGymIsNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewModuleService(repository.NewGymRepository(db), nil, 0)

	_, err := svc.Access(context.Background(), uuid.New())

	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestModuleService_UnknownTierIsInternal(t *testing.T) {
	db := testutil.NewDB(t)
	gym := testutil.SeedGym(t, db, model.TierBasic)
	require.NoError(t, db.Model(&model.Gym{}).Where("id = ?", gym.ID).Update("tier", "GOLD").Error)
	svc := NewModuleService(repository.NewGymRepository(db), nil, 0)

	_, err := svc.Access(context.Background(), gym.ID)

	require.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
}
