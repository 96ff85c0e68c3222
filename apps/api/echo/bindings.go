package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vidyasetu/vidyasetu/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// bindBody decodes the JSON request body into dst; an empty body leaves dst untouched.
func bindBody(ctx echo.Context, dst interface{}, name string) error {
	if err := (&echo.DefaultBinder{}).BindBody(ctx, dst); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return nil
}

// ctxIdentity returns the identity authMiddleware stored in the request context.
func ctxIdentity(ctx echo.Context) (core.Identity, error) {
	id, ok := core.IdentityFromContext(ctx.Request().Context())
	if !ok {
		return core.Identity{}, core.ErrUnauthenticated
	}
	return id, nil
}

type SuccessResponse struct {
	Success string `json:"success"`
}

type DeletedResponse struct {
	Deleted int `json:"deleted"`
}
