package handler

import (
	"errors"
	"net/http"
	"reflect"

	"nexogym/internal/apierror"
	"nexogym/internal/middleware"
	"nexogym/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "JSON invalido: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(apierror.CodeBadRequest, "Parametros invalidos: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusUnprocessableEntity, apierror.New(string(service.CodeValidation), err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathUUID parses the named path parameter, answering 422 when malformed.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, apierror.New(string(service.CodeValidation), name+" invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// statusFor maps the domain taxonomy to HTTP.
func statusFor(code service.ErrorCode) int {
	switch code {
	case service.CodeValidation:
		return http.StatusUnprocessableEntity
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict, service.CodeInsufficientStock:
		return http.StatusConflict
	case service.CodeForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError renders a service error. Anything outside the taxonomy is
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var appErr *service.AppError
	if errors.As(err, &appErr) && appErr.Code != service.CodeInternal {
		c.JSON(statusFor(appErr.Code), apierror.WithDetails(string(appErr.Code), appErr.Message, appErr.Details))
		return
	}
	log.Error().
		Err(err).
		Str("request_id", c.GetString(middleware.RequestIDKey)).
		Str("path", c.FullPath()).
		Msg("internal error")
	c.JSON(http.StatusInternalServerError, apierror.New(apierror.CodeInternal, "Error interno del servidor"))
}
