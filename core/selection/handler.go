package selection

import (
	"context"
	"errors"
	"net/http"

	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/api/weberr"
	"github.com/sproutbox/api/core/catalog"
	"github.com/sproutbox/api/validate"
)

// Selection is the display-ready view: stored slugs joined against the
// catalog snapshot, unresolvable slugs already dropped.
type Selection struct {
	Kind  Kind              `json:"kind"`
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
}

func webErr(err error) error {
	if errors.Is(err, ErrCapacityExceeded) {
		return weberr.Unprocessable(err)
	}

	var ue *UnavailableError
	if errors.As(err, &ue) {
		return weberr.Unavailable(err)
	}
	return err
}

func kindParam(r *http.Request) (Kind, error) {
	kind, err := ParseKind(web.Param(r, "kind"))
	if err != nil {
		return "", weberr.NotFound(err)
	}
	return kind, nil
}

func HandleShow(rec *Reconciler, cat *catalog.Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		kind, err := kindParam(r)
		if err != nil {
			return err
		}

		slugs := rec.List(ctx, kind)

		snap, err := cat.Snapshot(ctx)
		if err != nil {
			return weberr.Unavailable(err)
		}

		items := catalog.Resolve(slugs, snap)
		sel := Selection{
			Kind:  kind,
			Items: items,
			Count: len(slugs),
		}

		return web.Respond(ctx, w, sel, http.StatusOK)
	}
}

func HandleCount(rec *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		kind, err := kindParam(r)
		if err != nil {
			return err
		}

		body := struct {
			Count int `json:"count"`
		}{rec.Count(ctx, kind)}

		return web.Respond(ctx, w, body, http.StatusOK)
	}
}

func HandleCreateItem(rec *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		kind, err := kindParam(r)
		if err != nil {
			return err
		}

		var item ItemNew
		if err := web.Decode(w, r, &item); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(item); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := rec.Add(ctx, kind, item.Slug); err != nil {
			return webErr(err)
		}

		body := struct {
			Count int `json:"count"`
		}{rec.Count(ctx, kind)}

		return web.Respond(ctx, w, body, http.StatusOK)
	}
}

func HandleDeleteItem(rec *Reconciler) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		kind, err := kindParam(r)
		if err != nil {
			return err
		}

		if err := rec.Remove(ctx, kind, web.Param(r, "slug")); err != nil {
			return webErr(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
