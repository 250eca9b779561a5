package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bookfolio/bookfolio/pkg/apperror"
	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
)

// errorBody is the JSON envelope for every failed request.
type errorBody struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// MapError translates an engine or storage failure into an AppError
// the transport can render. Query rejections carry enough detail for
// a caller to correct the request without consulting documentation.
func MapError(err error) *apperror.AppError {
	var (
		malformed   *query.MalformedFilterKeyError
		unknownF    *query.UnknownFilterFieldError
		badValue    *query.InvalidFilterValueError
		badOperator *query.UnsupportedOperatorError
		unknownSort *query.UnknownSortFieldError
		badPage     *query.InvalidPageParametersError
		outOfRange  *query.PageOutOfRangeError
		app         *apperror.AppError
	)

	switch {
	case errors.As(err, &malformed):
		return apperror.NewValidation("query.malformed_filter_key", err.Error(),
			map[string]interface{}{"key": malformed.Key})
	case errors.As(err, &unknownF):
		return apperror.NewValidation("query.unknown_filter_field", err.Error(),
			map[string]interface{}{"field": unknownF.Field, "allowed_fields": unknownF.Allowed})
	case errors.As(err, &badValue):
		return apperror.NewValidation("query.invalid_filter_value", err.Error(),
			map[string]interface{}{"field": badValue.Field, "value": badValue.Value, "expected_type": badValue.Want.String()})
	case errors.As(err, &badOperator):
		return apperror.NewValidation("query.unsupported_operator", err.Error(),
			map[string]interface{}{"field": badOperator.Field, "operator": badOperator.Operator.Token(), "type": badOperator.Type.String()})
	case errors.As(err, &unknownSort):
		return apperror.NewValidation("query.unknown_sort_field", err.Error(),
			map[string]interface{}{"field": unknownSort.Field, "allowed_fields": unknownSort.Allowed})
	case errors.As(err, &badPage):
		return apperror.NewValidation("query.invalid_page_parameters", err.Error(),
			map[string]interface{}{"page": badPage.Page, "page_size": badPage.PageSize})
	case errors.As(err, &outOfRange):
		return apperror.NewValidation("query.page_out_of_range", err.Error(),
			map[string]interface{}{"requested_page": outOfRange.Requested, "total_pages": outOfRange.TotalPages})
	case errors.Is(err, sql.ErrNoRows):
		return apperror.NewNotFound("resource not found")
	case errors.As(err, &app):
		return app
	default:
		return apperror.NewInternal("internal server error", err)
	}
}

// writeError renders err through MapError. Internal failures are
// logged with their cause but never leak it to the client.
func writeError(c *gin.Context, log logger.Logger, err error) {
	app := MapError(err)
	if app.HTTPStatus >= http.StatusInternalServerError && log != nil {
		log.WithContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(),
			"error", err,
		)
	}
	c.AbortWithStatusJSON(app.HTTPStatus, errorBody{
		Code:      app.Code,
		Message:   app.Message,
		Details:   app.Details,
		RequestID: logger.RequestIDFromContext(c.Request.Context()),
	})
}
