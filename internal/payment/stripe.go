package payment

import (
	"fmt"

	"github.com/quickshow/booking-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type StripePaymentProvider struct {
	failureUrl string
	successUrl string
}

func NewStripePaymentProvider(failureUrl, successUrl string) *StripePaymentProvider {
	return &StripePaymentProvider{
		failureUrl: failureUrl,
		successUrl: successUrl,
	}
}

// CreateCheckoutSession opens a Stripe checkout session for an unpaid
// booking. The booking id travels in the session metadata so the webhook can
// map the payment back.
func (s *StripePaymentProvider) CreateCheckoutSession(
	booking *domain.Booking,
	user *domain.User,
	show *domain.Show) (*stripe.CheckoutSession, error) {

	seatPrice := show.Price.Mul(decimal.NewFromInt(100)).IntPart()

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, seat := range booking.Seats {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount: stripe.Int64(seatPrice),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("🎬 %s - Seat %s", show.MovieTitle, seat)),
					Description: stripe.String(fmt.Sprintf(
						"Showtime: %s",
						show.StartsAt.Format("Jan 2, 2006 15:04"),
					)),
				},
			},
			Quantity: stripe.Int64(1),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successUrl),
		CancelURL:  stripe.String(s.failureUrl),
		Metadata: map[string]string{
			"booking_id": booking.ID.String(),
			"user_id":    user.ID,
		},
		CustomerEmail:     &user.Email,
		ClientReferenceID: stripe.String(user.ID),
	}

	return session.New(params)
}
