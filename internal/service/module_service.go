package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"nexogym/internal/model"
	"nexogym/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const gymAccessKeyPrefix = "gym:access:"

// GymAccess is what the tenant gate needs to know about a gym.
type GymAccess struct {
	GymID   uuid.UUID       `json:"gym_id"`
	Status  model.GymStatus `json:"status"`
	Tier    model.Tier      `json:"tier"`
	Modules model.ModuleSet `json:"modules"`
}

// Allows reports whether the gym is active and its tier enables mod.
func (a *GymAccess) Allows(mod model.Module) bool {
	return a.Status == model.GymActive && a.Modules.Enabled(mod)
}

type ModuleService interface {
	Access(ctx context.Context, gymID uuid.UUID) (*GymAccess, error)
	// Invalidate drops the cached entry after a tier or status change.
	Invalidate(ctx context.Context, gymID uuid.UUID)
}

type moduleService struct {
	gyms repository.GymRepository
	rdb  *redis.Client
	ttl  time.Duration
}

// NewModuleService caches lookups in Redis for ttl. A nil rdb disables the
// cache.
func NewModuleService(gyms repository.GymRepository, rdb *redis.Client, ttl time.Duration) ModuleService {
	return &moduleService{gyms: gyms, rdb: rdb, ttl: ttl}
}

func (s *moduleService) Access(ctx context.Context, gymID uuid.UUID) (*GymAccess, error) {
	key := gymAccessKeyPrefix + gymID.String()

	// 1. Redis
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var access GymAccess
			if jsonErr := json.Unmarshal(cached, &access); jsonErr == nil {
				return &access, nil
			}
		}
	}

	// 2. Database
	gym, err := s.gyms.FindByID(ctx, gymID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFoundError("gimnasio no encontrado")
	}
	if err != nil {
		return nil, err
	}
	modules, err := model.ModulesFor(gym.Tier)
	if err != nil {
		return nil, fmt.Errorf("gym %s: %w", gym.ID, err)
	}
	access := &GymAccess{GymID: gym.ID, Status: gym.Status, Tier: gym.Tier, Modules: modules}

	// 3. Populate cache, best effort
	if s.rdb != nil {
		if b, err := json.Marshal(access); err == nil {
			if err := s.rdb.Set(ctx, key, b, s.ttl).Err(); err != nil {
				log.Debug().Err(err).Str("gym_id", gymID.String()).Msg("gym access cache write failed")
			}
		}
	}
	return access, nil
}

func (s *moduleService) Invalidate(ctx context.Context, gymID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, gymAccessKeyPrefix+gymID.String()).Err()
}
