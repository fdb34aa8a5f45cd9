package catalog

import (
	"context"
	"errors"
	"net/http"

	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/api/weberr"
)

func HandleListProducts(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		snap, err := cat.Snapshot(ctx)
		if err != nil {
			return weberr.Unavailable(err)
		}

		products := make([]Product, 0, len(snap))
		for _, p := range snap {
			products = append(products, p)
		}

		return web.Respond(ctx, w, products, http.StatusOK)
	}
}

func HandleShowProduct(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		slug := web.Param(r, "slug")

		p, err := cat.Client().ProductBySlug(ctx, slug)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return weberr.Unavailable(err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleListBrands(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		brands, err := cat.Client().Brands(ctx)
		if err != nil {
			return weberr.Unavailable(err)
		}

		return web.Respond(ctx, w, brands, http.StatusOK)
	}
}

func HandleShowSettings(cat *Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		settings, err := cat.Client().Settings(ctx)
		if err != nil {
			return weberr.Unavailable(err)
		}

		return web.Respond(ctx, w, settings, http.StatusOK)
	}
}
