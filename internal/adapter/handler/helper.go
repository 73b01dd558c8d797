package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/telaila/companion/errors"
	"github.com/telaila/companion/internal/domain/entities"
	usecaseErrors "github.com/telaila/companion/internal/usecase/errors"
)

// Response shapes
type success struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type errs struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// getRequestID tries to read X-Request-ID from the request
func getRequestID(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	if id := c.Request().Header.Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// GetQueryParam returns a query parameter or its default
func GetQueryParam(c echo.Context, key, defaultValue string) string {
	if value := c.QueryParam(key); value != "" {
		return value
	}
	return defaultValue
}

// HandleSuccess writes a standardized success response using provided logger
func HandleSuccess(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusOK, data)
}

// HandleCreated writes a standardized 201 response
func HandleCreated(logger *zap.Logger, c echo.Context, data interface{}) error {
	return respond(logger, c, http.StatusCreated, data)
}

func respond(logger *zap.Logger, c echo.Context, status int, data interface{}) error {
	resp := success{
		Code:    int(errors.ErrorCode_HTTP_OK),
		Message: "success",
		Data:    data,
	}

	if logger != nil {
		logger.Info("http.response.success",
			zap.String("request_id", getRequestID(c)),
			zap.String("path", c.Path()),
		)
	}

	return c.JSON(status, resp)
}

// HandleError centralizes error handling and logging using provided logger.
// Domain and usecase errors are translated into AppErrors first.
func HandleError(logger *zap.Logger, c echo.Context, err error) error {
	reqID := getRequestID(c)

	var appErr errors.AppError
	if stdErrors.As(err, &appErr) || stdErrors.As(toAppError(c, err), &appErr) {
		if logger != nil {
			log := logger.Error
			if appErr.HTTPCode < http.StatusInternalServerError {
				log = logger.Warn
			}
			log("http.response.error",
				zap.String("request_id", reqID),
				zap.String("path", c.Path()),
				zap.Any("app_code", appErr.Code),
				zap.Error(err),
			)
		}

		info := ""
		if appErr.Raw != nil {
			info = appErr.Raw.Error()
		}

		body := errs{
			Code:    appErr.Code,
			Message: appErr.Message,
			Info:    info,
			Details: appErr.Details,
		}

		return c.JSON(appErr.HTTPCode, body)
	}

	if logger != nil {
		logger.Error("http.response.error",
			zap.String("request_id", reqID),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	appErr = errors.ErrInternal(err)
	body := errs{
		Code:    appErr.Code,
		Message: appErr.Message,
		Info:    err.Error(),
	}

	return c.JSON(appErr.HTTPCode, body)
}

// toAppError maps known errors to API errors; anything else is returned as is
func toAppError(c echo.Context, err error) error {
	switch {
	case stdErrors.Is(err, entities.ErrTesterNotFound):
		return errors.ErrTesterNotFound(c.Param("id"))
	case stdErrors.Is(err, entities.ErrTesterAlreadyExists):
		return errors.ErrTesterAlreadyExists("")
	case stdErrors.Is(err, entities.ErrAgentNotLinked):
		return errors.ErrAgentNotLinked(c.Param("agent_id"))
	case stdErrors.Is(err, usecaseErrors.ErrAgentAlreadyLinked):
		return errors.ErrAgentAlreadyLinked("")
	case stdErrors.Is(err, usecaseErrors.ErrInvalidSignature):
		e := errors.ErrInvalidSignature()
		e.Raw = err
		return e
	case stdErrors.Is(err, usecaseErrors.ErrUnsupportedFormat):
		return errors.ErrUnsupportedFormat(c.QueryParam("format"))
	case stdErrors.Is(err, usecaseErrors.ErrStorageDisabled):
		return errors.ErrStorageDisabled()
	case stdErrors.Is(err, usecaseErrors.ErrInvalidInput),
		stdErrors.Is(err, usecaseErrors.ErrEmptyAgentID),
		stdErrors.Is(err, usecaseErrors.ErrMissingConversationID),
		stdErrors.Is(err, entities.ErrInvalidTesterID):
		e := errors.ErrInvalidArgument(err.Error())
		e.Raw = err
		return e
	}
	return err
}
