package middleware

import (
	"net/http"

	"nexogym/internal/apierror"
	"nexogym/internal/model"
	"nexogym/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RequireModule blocks the route unless the actor's gym is ACTIVE and its
// tier enables mod. Must run after JWTAuth.
func RequireModule(modules service.ModuleService, mod model.Module) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		access, err := modules.Access(c.Request.Context(), actor.GymID)
		if err != nil {
			if service.CodeOf(err) == service.CodeNotFound {
				c.AbortWithStatusJSON(http.StatusNotFound, apierror.New(string(service.CodeNotFound), "Gimnasio no encontrado"))
				return
			}
			log.Error().Err(err).Str("gym_id", actor.GymID.String()).Msg("gym access lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New(apierror.CodeInternal, "Error interno del servidor"))
			return
		}
		if access.Status != model.GymActive {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New(string(service.CodeForbidden), "Gimnasio suspendido"))
			return
		}
		if !access.Allows(mod) {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.WithDetails(
				string(service.CodeForbidden),
				"El plan del gimnasio no incluye este modulo",
				map[string]any{"module": string(mod), "tier": string(access.Tier)},
			))
			return
		}
		c.Next()
	}
}
