package middleware

import (
	"net/http"
	"strings"

	"nexogym/internal/apierror"
	"nexogym/internal/model"
	"nexogym/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	ActorKey  = "actor"

	// GymHeader lets a SUPERADMIN act on a specific tenant.
	GymHeader = "X-Gym-ID"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	GymID    string `json:"gym_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTAuth validates the Bearer token on every protected route and resolves
// the tenant the request acts on.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(apierror.CodeUnauthorized, "Autenticacion requerida"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New(apierror.CodeUnauthorized, "Token invalido o expirado"))
			return
		}

		actor, apiErr := resolveActor(claims, c.GetHeader(GymHeader))
		if apiErr != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, apiErr)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// resolveActor pins every role to its token's gym except SUPERADMIN, which
// names the tenant through X-Gym-ID.
func resolveActor(claims *JWTClaims, gymHeader string) (service.Actor, *apierror.APIError) {
	forbidden := func(msg string) (service.Actor, *apierror.APIError) {
		return service.Actor{}, apierror.New(string(service.CodeForbidden), msg)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return forbidden("Token sin usuario")
	}
	role := model.Role(claims.Role)

	gymRaw := claims.GymID
	if role == model.RoleSuperAdmin {
		gymRaw = strings.TrimSpace(gymHeader)
		if gymRaw == "" {
			return forbidden("Se requiere el encabezado " + GymHeader)
		}
	}
	gymID, err := uuid.Parse(gymRaw)
	if err != nil {
		return forbidden("Gimnasio invalido")
	}
	return service.Actor{UserID: userID, GymID: gymID, Role: role}, nil
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims, ok := c.MustGet(ClaimsKey).(*JWTClaims)
		if !ok || !allowed[model.Role(claims.Role)] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New(string(service.CodeForbidden), "Permisos insuficientes"))
			return
		}
		c.Next()
	}
}

// GetActor returns the actor resolved by JWTAuth.
func GetActor(c *gin.Context) service.Actor {
	actor, _ := c.MustGet(ActorKey).(service.Actor)
	return actor
}
