package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sproutbox/api/api/web"
	"github.com/sproutbox/api/api/weberr"
	"github.com/sproutbox/api/config"
	"github.com/sproutbox/api/core/catalog"
	"github.com/sproutbox/api/core/claims"
	"github.com/sproutbox/api/core/selection"
	"github.com/sproutbox/api/core/user"
	"github.com/sproutbox/api/database"
	"github.com/sproutbox/api/validate"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// metadataSlugs is the checkout-session metadata key carrying the box
// contents over to the payment provider.
const metadataSlugs = "box_slugs"

var errIncompleteBox = errors.New("exactly 5 items required")

// box loads the user's cart and resolves it against the catalog. Checkout
// demands a complete box: five slugs, all of them still purchasable.
func box(ctx context.Context, db *sqlx.DB, cat *catalog.Catalog) ([]catalog.Product, error) {
	store := selection.NewRemoteStore(db)
	slugs, err := store.List(ctx, selection.Cart)
	if err != nil {
		return nil, fmt.Errorf("fetching cart items: %w", err)
	}

	snap, err := cat.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching catalog snapshot: %w", err)
	}

	products := catalog.Resolve(slugs, snap)
	if len(products) != selection.BoxCapacity {
		return nil, weberr.Unprocessable(errIncompleteBox)
	}

	return products, nil
}

func prepare(ctx context.Context, db *sqlx.DB, userID string, providerID string, products []catalog.Product) error {
	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()
		ord := Order{
			ID:         validate.GenerateID(),
			UserID:     userID,
			ProviderID: providerID,
			Status:     Pending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		if err := Create(ctx, tx, ord); err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		for _, p := range products {
			it := Item{
				OrderID:   ord.ID,
				Slug:      p.Slug,
				Price:     p.PriceCents,
				CreatedAt: now,
			}

			if err := CreateItem(ctx, tx, it); err != nil {
				return fmt.Errorf("creating item: %w", err)
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("creating the order bound to payment[%s] for user[%s]: %w", providerID, userID, err)
	}
	return nil
}

// fulfill marks the order paid and empties the cart in the same transaction:
// the box is on its way, the next cart starts blank.
func fulfill(ctx context.Context, db *sqlx.DB, providerID string) error {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		up := StatusUp{
			ID:        ord.ID,
			Status:    Success,
			UpdatedAt: time.Now().UTC(),
		}

		if err = UpdateStatus(ctx, tx, up); err != nil {
			return fmt.Errorf("updating status: %w", err)
		}

		if err = selection.ClearCart(ctx, tx, ord.UserID); err != nil {
			return fmt.Errorf("flushing cart: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("fulfilling the order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}
	return nil
}

// HandleList is the back-office view of boxes handed to the providers.
func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		ords, err := List(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ords, http.StatusOK)
	}
}

func HandleStripeCheckout(db *sqlx.DB, strp *stripecl.API, cfg config.Stripe, cat *catalog.Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var intent Intent
		if err := web.Decode(w, r, &intent); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(intent); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching user[%s]: %w", clm.UserID, err)
		}

		products, err := box(ctx, db, cat)
		if err != nil {
			return err
		}

		li := make([]*stripe.CheckoutSessionLineItemParams, 0, len(products))
		slugs := make([]string, 0, len(products))
		for _, p := range products {
			slugs = append(slugs, p.Slug)

			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(1),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(cfg.Currency),
					TaxBehavior: stripe.String("inclusive"),
					UnitAmount:  stripe.Int64(int64(p.PriceCents)),

					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String("month"),
					},

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(p.Name),
					},
				},
			})
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL:    stripe.String(cfg.SuccessURL),
			CancelURL:     stripe.String(cfg.CancelURL),
			Mode:          stripe.String(string(stripe.CheckoutSessionModeSubscription)),
			CustomerEmail: stripe.String(usr.Email),
			LineItems:     li,
		}

		params.AddMetadata(metadataSlugs, strings.Join(slugs, ","))
		params.AddMetadata("ship_name", intent.Name)
		params.AddMetadata("ship_line1", intent.Line1)
		params.AddMetadata("ship_line2", intent.Line2)
		params.AddMetadata("ship_city", intent.City)
		params.AddMetadata("ship_postal_code", intent.PostalCode)
		params.AddMetadata("ship_country", intent.Country)

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		if err := prepare(ctx, db, clm.UserID, s.ID, products); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		return web.Respond(ctx, w, s.URL, http.StatusOK)
	}
}

func HandleStripeCapture(db *sqlx.DB, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModeSubscription {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		if err := fulfill(ctx, db, session.ID); err != nil {
			return fmt.Errorf("the subscription was started but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client, cat *catalog.Catalog) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var intent Intent
		if err := web.Decode(w, r, &intent); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(intent); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		products, err := box(ctx, db, cat)
		if err != nil {
			return err
		}

		var tot int
		items := make([]paypal.Item, 0, len(products))
		for _, p := range products {
			items = append(items, paypal.Item{
				Quantity: "1",
				Name:     p.Name,
				SKU:      p.Slug,

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    centsValue(p.PriceCents),
				},
			})

			tot += p.PriceCents
		}

		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    centsValue(tot),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{ItemTotal: &paypal.Money{
					Currency: "USD",
					Value:    centsValue(tot),
				}},
			},
		}}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		if err := prepare(ctx, db, clm.UserID, ord.ID, products); err != nil {
			return fmt.Errorf("creating the order on the database: %w", err)
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, db, providerID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func centsValue(cents int) string {
	return strconv.Itoa(cents/100) + "." + fmt.Sprintf("%02d", cents%100)
}
