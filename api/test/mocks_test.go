package test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/plutov/paypal/v4"
	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/core/catalog"
	mock "github.com/stripe/stripe-mock/param"
)

type mockStripe struct {
	expectedBox []catalog.Product
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, _ := mock.ParseParams(r)

		if params["mode"] != "subscription" {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		lines := params["line_items"].(map[string]any)

		n := 0
		tot := 0
		for _, li := range lines {
			it := li.(map[string]any)

			if it["quantity"] != "1" {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd := it["price_data"].(map[string]any)

			rec, ok := pd["recurring"].(map[string]any)
			if !ok || rec["interval"] != "month" {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			s := pd["unit_amount"].(string)
			amount, err := strconv.ParseInt(s, 10, 0)
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			tot += int(amount)
			n += 1
		}

		if n != len(m.expectedBox) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		exp := 0
		for _, p := range m.expectedBox {
			exp += p.PriceCents
		}

		if tot != exp {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		meta, ok := params["metadata"].(map[string]any)
		if !ok {
			web.Respond(context.Background(), w, nil, 400)
			return
		}
		if slugs, _ := meta["box_slugs"].(string); slugs == "" {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		randID := fmt.Sprintf("stripe-%d", rand.Intn(300))
		sess := map[string]any{"id": randID, "url": "https://checkout.test/" + randID, "mode": "subscription"}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}

type mockPaypal struct {
	expectedBox []catalog.Product
}

func (m *mockPaypal) handle() http.Handler {
	token := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := map[string]any{
			"access_token": "test-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		web.Respond(context.Background(), w, tok, 200)
	})

	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 || len(pu.Units[0].Items) != len(m.expectedBox) {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var tot int
		for _, p := range m.expectedBox {
			tot += p.PriceCents
		}

		want := fmt.Sprintf("%d.%02d", tot/100, tot%100)
		if pu.Units[0].Amount.Value != want {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		randID := fmt.Sprintf("paypal-%d", rand.Intn(300))
		ord := paypal.Order{ID: randID}
		web.Respond(context.Background(), w, ord, 200)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := paypal.Order{Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/oauth2/token", token).Methods("POST")
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

type mockCMS struct {
	products []catalog.Product
}

func (m *mockCMS) handle() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("query")

		env := struct {
			Result interface{} `json:"result"`
		}{}

		switch {
		case strings.Contains(q, "$slug"):
			var slug string
			json.Unmarshal([]byte(r.URL.Query().Get("$slug")), &slug)
			for _, p := range m.products {
				if p.Slug == slug {
					env.Result = p
				}
			}
		case strings.Contains(q, `"product"`):
			env.Result = m.products
		case strings.Contains(q, `"brand"`):
			env.Result = []catalog.Brand{}
		default:
			env.Result = catalog.Settings{Title: "Sprout"}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(env)
	})
}
