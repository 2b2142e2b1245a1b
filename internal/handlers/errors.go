package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/huangang/taskline/internal/services"
	"github.com/huangang/taskline/pkg/logger"
	"github.com/huangang/taskline/pkg/response"
)

// toAppError maps service errors onto HTTP responses. Anything unrecognised
// becomes a detail-free 500.
func toAppError(err error) *response.AppError {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.NewValidation("validation failed", ve.Fields)
	case errors.Is(err, services.ErrNotAccessible):
		return response.NewNotFound(services.ErrNotAccessible.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		return response.NewConflict(services.ErrDuplicateEmail.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return response.NewUnauthorized(services.ErrInvalidCredentials.Error())
	case errors.Is(err, services.ErrUnauthenticated):
		return response.NewUnauthorized(services.ErrUnauthenticated.Error())
	case errors.Is(err, services.ErrInactiveAccount):
		return response.NewForbidden(services.ErrInactiveAccount.Error())
	}
	return nil
}

// fail writes the response for a service error.
func fail(c *gin.Context, err error) {
	appErr := toAppError(err)
	if appErr == nil {
		logger.LogError(err).
			Str("request_id", c.GetString(logger.RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("request failed")
		appErr = response.NewServerError("internal server error")
	}
	if appErr.HTTPStatus == 401 {
		c.Header("WWW-Authenticate", "Bearer")
	}
	response.Error(c, appErr)
}

// bindFailed answers a request whose body or query could not be decoded.
func bindFailed(c *gin.Context, err error) {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		numErr    *strconv.NumError
		fieldErrs validator.ValidationErrors
	)
	switch {
	case errors.Is(err, io.EOF):
		response.Error(c, response.NewBadRequest("request body is required"))
	case errors.As(err, &typeErr):
		response.Error(c, response.NewValidation("validation failed", []services.FieldError{
			{Field: typeErr.Field, Message: "must be of type " + typeErr.Type.String()},
		}))
	case errors.As(err, &syntaxErr):
		response.Error(c, response.NewBadRequest("malformed JSON body"))
	case errors.As(err, &numErr):
		response.Error(c, response.NewBadRequest("invalid number "+strconv.Quote(numErr.Num)))
	case errors.As(err, &fieldErrs):
		response.Error(c, response.NewValidation("validation failed", services.FromValidatorErrors(fieldErrs).Fields))
	default:
		response.Error(c, response.NewBadRequest(err.Error()))
	}
}
