package handler

import (
	"net/http"
	"reflect"
	"strconv"

	"cajapos/internal/apierror"
	"cajapos/internal/domainerr"
	"cajapos/internal/middleware"
	"cajapos/internal/model"

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
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
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

// respondError maps the domain error taxonomy to HTTP statuses. Precondition
// failures (limit, funds, stock, payments, inactive client) all answer 409
// with their distinct detail message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch domainerr.KindOf(err) {
	case domainerr.KindValidation:
		status = http.StatusBadRequest
	case domainerr.KindUnauthenticated:
		status = http.StatusUnauthorized
	case domainerr.KindNotFound:
		status = http.StatusNotFound
	case domainerr.KindConflict,
		domainerr.KindCreditLimit,
		domainerr.KindInsufficientFunds,
		domainerr.KindStock,
		domainerr.KindHasPayments,
		domainerr.KindClientInactive:
		status = http.StatusConflict
	case domainerr.KindTransient:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		// Internals never leak; the ErrorHandler middleware logs them.
		_ = c.Error(err)
		c.JSON(status, apierror.New("Error interno del servidor"))
		return
	}
	c.JSON(status, apierror.New(err.Error()))
}

// getActor resolves the JWT claims into the Actor value the services take.
func getActor(c *gin.Context) model.Actor {
	claims := middleware.GetClaims(c)
	id, _ := uuid.Parse(claims.UserID)
	return model.Actor{ID: id, Nombre: claims.Nombre}
}

// parseIDParam reads a uuid path parameter, answering 400 on garbage.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// pagination reads page/limit query params with the usual bounds.
func pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
