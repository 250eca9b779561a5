package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookfolio/bookfolio/pkg/apperror"
	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/observability/metrics"
	"github.com/bookfolio/bookfolio/pkg/query"
	"github.com/bookfolio/bookfolio/pkg/repository"
)

// Lister serves constrained list queries. Both the SQL repository and
// the cache decorator satisfy it, so the resource does not care which
// one it is given.
type Lister[T any] interface {
	FindPage(ctx context.Context, p query.Params) (query.Page[T], error)
}

// Resource wires one entity's CRUD and list endpoints. Name appears in
// metrics labels and log fields.
type Resource[T any] struct {
	Name   string
	Lister Lister[T]
	Repo   repository.Repository[T, int64]

	// SetID stamps the path identifier onto a decoded body before an
	// update. Required for the PUT route.
	SetID func(entity *T, id int64)

	// OnWrite runs after every successful create, update or delete.
	// Used to invalidate cached pages. May be nil.
	OnWrite func(ctx context.Context)

	Log logger.Logger
}

// pageBody is the JSON envelope for list responses.
type pageBody[T any] struct {
	Items       []T  `json:"items"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

// Mount registers the resource's routes under group.
func Mount[T any](group *gin.RouterGroup, r *Resource[T]) {
	group.GET("", r.list)
	group.GET("/:id", r.get)
	group.POST("", r.create)
	group.PUT("/:id", r.update)
	group.DELETE("/:id", r.remove)
}

func (r *Resource[T]) list(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := ParamsFromQuery(c.Request.URL.RawQuery)
	if err != nil {
		r.reject(c, err)
		return
	}

	page, err := r.Lister.FindPage(ctx, p)
	if err != nil {
		r.reject(c, err)
		return
	}

	metrics.RecordPageServed(r.Name)
	c.JSON(http.StatusOK, pageBody[T]{
		Items:       page.Items,
		Page:        page.Index,
		TotalPages:  page.TotalPages,
		HasPrevious: page.HasPrevious(),
		HasNext:     page.HasNext(),
	})
}

func (r *Resource[T]) get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, r.Log, err)
		return
	}

	entity, err := r.Repo.FindByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, r.Log, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (r *Resource[T]) create(c *gin.Context) {
	var entity T
	if err := c.ShouldBindJSON(&entity); err != nil {
		writeError(c, r.Log, apperror.NewValidation("request.invalid_body", "request body is not valid JSON for this resource", nil))
		return
	}

	ctx := c.Request.Context()
	if err := r.Repo.Create(ctx, &entity); err != nil {
		writeError(c, r.Log, err)
		return
	}
	r.wrote(ctx)
	c.JSON(http.StatusCreated, entity)
}

func (r *Resource[T]) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, r.Log, err)
		return
	}

	var entity T
	if err := c.ShouldBindJSON(&entity); err != nil {
		writeError(c, r.Log, apperror.NewValidation("request.invalid_body", "request body is not valid JSON for this resource", nil))
		return
	}
	if r.SetID != nil {
		r.SetID(&entity, id)
	}

	ctx := c.Request.Context()
	if err := r.Repo.Update(ctx, &entity); err != nil {
		writeError(c, r.Log, err)
		return
	}
	r.wrote(ctx)
	c.JSON(http.StatusOK, entity)
}

func (r *Resource[T]) remove(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, r.Log, err)
		return
	}

	ctx := c.Request.Context()
	if err := r.Repo.Delete(ctx, id); err != nil {
		writeError(c, r.Log, err)
		return
	}
	r.wrote(ctx)
	c.Status(http.StatusNoContent)
}

// reject renders a list failure and counts engine rejections by code.
func (r *Resource[T]) reject(c *gin.Context, err error) {
	app := MapError(err)
	if app.HTTPStatus == http.StatusBadRequest {
		metrics.RecordQueryRejection(r.Name, app.Code)
	}
	writeError(c, r.Log, err)
}

func (r *Resource[T]) wrote(ctx context.Context) {
	if r.OnWrite != nil {
		r.OnWrite(ctx)
	}
}

func pathID(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewValidation("request.invalid_parameter",
			"path parameter \"id\" must be a positive integer",
			map[string]interface{}{"parameter": "id", "value": raw})
	}
	return id, nil
}
