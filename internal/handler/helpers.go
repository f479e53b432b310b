package handler

import (
	"net/http"
	"reflect"

	"clinicflow/internal/apierror"
	"clinicflow/internal/apperr"
	"clinicflow/internal/middleware"
	"clinicflow/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
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
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// bindQuery binds and validates query-string filters.
func bindQuery(c *gin.Context, filter interface{}) bool {
	if err := c.ShouldBindQuery(filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	if err := validate.Struct(filter); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathID parses the :id path parameter. Returns uuid.Nil and writes the
// response when the parameter is not a UUID.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid id"))
		return uuid.Nil, false
	}
	return id, true
}

// actorFrom builds the service actor from the validated JWT claims.
func actorFrom(c *gin.Context) service.Actor {
	claims := middleware.GetClaims(c)
	actor := service.Actor{Role: claims.Role}
	if id, err := uuid.Parse(claims.UserID); err == nil {
		actor.ID = id
	}
	if claims.ClinicID != "" {
		if cid, err := uuid.Parse(claims.ClinicID); err == nil {
			actor.ClinicID = cid
		}
	}
	return actor
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case apperr.KindInvalidOperation:
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		// Persistence details stay in the logs, not the response.
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, apierror.New("internal error"))
	}
}
