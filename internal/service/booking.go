package service

import (
	"context"

	"github.com/eventsphere/eventsphere/internal/clock"
	"github.com/eventsphere/eventsphere/internal/model"
	"github.com/eventsphere/eventsphere/internal/qr"
	"github.com/eventsphere/eventsphere/internal/utils"
)

// ticketPrefix is the fixed prefix of generated ticket numbers.
const ticketPrefix = "EVT"

// earnPercent is the share of the final amount credited back as
// loyalty points on a completed payment.
const earnPercent = 5

// BookingService orchestrates the two-step booking flow: CreateBooking
// reserves nothing and only records intent; ConfirmPayment performs
// the whole settlement – promotion, loyalty redemption, payment,
// inventory decrement, QR issuance, loyalty earn – inside a single
// store transaction so a failure at any step leaves no partial writes.
type BookingService struct {
	store   Store
	issuer  qr.Issuer
	clock   clock.Clock
	promos  *PromotionResolver
	loyalty *LoyaltyLedger
}

// NewBookingService wires the orchestrator. All dependencies must be non-nil.
func NewBookingService(store Store, issuer qr.Issuer, clk clock.Clock) *BookingService {
	if store == nil || issuer == nil || clk == nil {
		panic("nil dependency passed to NewBookingService")
	}
	return &BookingService{
		store:   store,
		issuer:  issuer,
		clock:   clk,
		promos:  NewPromotionResolver(store),
		loyalty: NewLoyaltyLedger(store),
	}
}

// Receipt is the confirmation result returned to the customer. When
// AlreadyCompleted is true the call was a replay against a completed
// booking and nothing was written.
type Receipt struct {
	Booking          model.Booking  `json:"booking"`
	EventTitle       string         `json:"event_title"`
	Payment          model.Payment  `json:"payment"`
	Tickets          []model.Ticket `json:"tickets"`
	PointsEarned     int64          `json:"points_earned"`
	AlreadyCompleted bool           `json:"already_completed"`
}

// CreateBooking inserts a PENDING booking and its ticket placeholders
// for quantity tickets to the event. Availability is checked but not
// reserved; the authoritative check happens under lock during
// ConfirmPayment. Tickets carry no QR reference at this stage.
func (s *BookingService) CreateBooking(ctx context.Context, eventID, userID uint64, quantity uint32) (model.Booking, error) {
	if quantity == 0 {
		return model.Booking{}, ErrInvalidQuantity
	}
	now := s.clock.Now()
	var booking model.Booking

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.store.GetEvent(txCtx, eventID)
		if err != nil {
			return err
		}
		if event.EndsAt.Before(now) {
			return ErrEventEnded
		}
		if event.AvailableTickets < quantity {
			return ErrInsufficientInventory
		}
		if _, err := s.store.GetUser(txCtx, userID); err != nil {
			return err
		}

		booking = model.Booking{
			EventID:          eventID,
			UserID:           userID,
			Quantity:         quantity,
			TotalAmountCents: event.TicketPriceCents * int64(quantity),
			PaymentStatus:    model.PaymentStatusPending,
			CreatedAt:        now,
		}
		booking.FinalAmountCents = booking.TotalAmountCents
		if err := s.store.CreateBooking(txCtx, &booking); err != nil {
			return err
		}

		tickets := make([]model.Ticket, 0, quantity)
		for i := 1; i <= int(quantity); i++ {
			tickets = append(tickets, model.Ticket{
				BookingID:    booking.ID,
				TicketNumber: utils.TicketNumber(ticketPrefix, now, booking.ID, i),
				IssuedAt:     now,
			})
		}
		return s.store.CreateTickets(txCtx, tickets)
	})
	if err != nil {
		return model.Booking{}, err
	}
	return booking, nil
}

// ConfirmPaymentInput carries the customer's settlement choices.
type ConfirmPaymentInput struct {
	BookingID     uint64
	UserID        uint64
	PromoCode     string
	UsePoints     bool
	PaymentMethod string
}

// ConfirmPayment settles a pending booking. Re-invoking it on a
// COMPLETED booking returns the stored receipt without side effects.
// Otherwise the availability re-check, promotion discount, loyalty
// redemption, payment record, inventory decrement, QR issuance,
// loyalty earn and booking finalization all commit atomically; the
// event and user rows are locked for the duration so concurrent
// confirmations serialize and cannot jointly oversell.
func (s *BookingService) ConfirmPayment(ctx context.Context, in ConfirmPaymentInput) (Receipt, error) {
	now := s.clock.Now()
	var receipt Receipt

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		booking, err := s.store.GetBookingForUpdate(txCtx, in.BookingID)
		if err != nil {
			return err
		}
		if booking.UserID != in.UserID {
			return ErrForbidden
		}

		if booking.PaymentStatus == model.PaymentStatusCompleted {
			stored, err := s.storedReceipt(txCtx, booking)
			if err != nil {
				return err
			}
			receipt = stored
			return nil
		}

		if in.PaymentMethod == "" {
			return ErrInvalidPaymentMethod
		}

		event, err := s.store.GetEventForUpdate(txCtx, booking.EventID)
		if err != nil {
			return err
		}
		if event.AvailableTickets < booking.Quantity {
			return ErrInsufficientInventory
		}
		user, err := s.store.GetUserForUpdate(txCtx, booking.UserID)
		if err != nil {
			return err
		}

		total := booking.TotalAmountCents
		var discount int64
		if in.PromoCode != "" {
			promo, err := s.promos.Resolve(txCtx, in.PromoCode, now)
			if err != nil {
				return err
			}
			discount = Discount(total, promo.Percent)
			promoID := promo.ID
			booking.PromotionID = &promoID
		}

		var pointsUsed int64
		if in.UsePoints && user.LoyaltyPoints > 0 {
			pointsUsed, err = s.loyalty.Redeem(txCtx, user.ID, booking.ID, total-discount)
			if err != nil {
				return err
			}
		}

		final := total - discount - pointsUsed
		if final < 0 {
			final = 0
		}

		if err := s.store.DecrementAvailableTickets(txCtx, event.ID, booking.Quantity); err != nil {
			return err
		}

		payment := model.Payment{
			BookingID:   booking.ID,
			AmountCents: final,
			Status:      model.PaymentStatusCompleted,
			Method:      in.PaymentMethod,
			ReferenceNo: utils.ReferenceNo(now),
			InvoiceNo:   utils.InvoiceNumber(now.Year(), booking.ID),
			PaidAt:      now,
		}
		if err := s.store.CreatePayment(txCtx, &payment); err != nil {
			return err
		}

		tickets, err := s.store.TicketsByBooking(txCtx, booking.ID)
		if err != nil {
			return err
		}
		for i := range tickets {
			ref, err := s.issuer.Generate(tickets[i].TicketNumber, booking.ID, event.Title, user.FullName, event.StartsAt)
			if err != nil {
				return err
			}
			if err := s.store.SetTicketQR(txCtx, tickets[i].ID, ref); err != nil {
				return err
			}
			tickets[i].QRRef = &ref
		}

		earned := final * earnPercent / 100
		if err := s.loyalty.Earn(txCtx, user.ID, booking.ID, earned); err != nil {
			return err
		}

		method := in.PaymentMethod
		booking.DiscountCents = discount
		booking.PointsUsed = pointsUsed
		booking.FinalAmountCents = final
		booking.PaymentStatus = model.PaymentStatusCompleted
		booking.PaymentMethod = &method
		if err := s.store.FinalizeBooking(txCtx, &booking); err != nil {
			return err
		}

		receipt = Receipt{
			Booking:      booking,
			EventTitle:   event.Title,
			Payment:      payment,
			Tickets:      tickets,
			PointsEarned: earned,
		}
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}
	return receipt, nil
}

// storedReceipt reassembles the receipt of an already completed
// booking from its persisted payment and tickets.
func (s *BookingService) storedReceipt(ctx context.Context, booking model.Booking) (Receipt, error) {
	event, err := s.store.GetEvent(ctx, booking.EventID)
	if err != nil {
		return Receipt{}, err
	}
	payment, err := s.store.PaymentByBooking(ctx, booking.ID)
	if err != nil {
		return Receipt{}, err
	}
	tickets, err := s.store.TicketsByBooking(ctx, booking.ID)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{
		Booking:          booking,
		EventTitle:       event.Title,
		Payment:          payment,
		Tickets:          tickets,
		PointsEarned:     booking.FinalAmountCents * earnPercent / 100,
		AlreadyCompleted: true,
	}, nil
}
