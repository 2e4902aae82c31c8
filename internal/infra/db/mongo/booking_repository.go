package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staymarket/internal/domain/booking"
	"staymarket/internal/domain/listings"
	domainrange "staymarket/internal/domain/shared/daterange"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

// nonOccupyingStatuses are the statuses that release a booking's date range.
var nonOccupyingStatuses = []string{
	string(domainbooking.StatusCancelled),
	string(domainbooking.StatusDeclined),
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection("agg_booking")}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save upserts with an optimistic version filter. For occupying bookings the
// overlap constraint is re-checked inside the same session transaction, so
// two racing requests cannot both commit intersecting ranges.
func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	if b.Status.Occupying() {
		conflicts, err := r.col.CountDocuments(ctx, overlapFilter(string(b.ListingID), b.Range, string(b.ID)))
		if err != nil {
			return err
		}
		if conflicts > 0 {
			return domainbooking.ErrDateRangeConflict
		}
	}
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByGuest(ctx context.Context, guestID string) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"guest_id": guestID})
}

func (r *BookingRepository) ListByListing(ctx context.Context, listingID listings.ListingID) ([]*domainbooking.Booking, error) {
	return r.list(ctx, bson.M{"listing_id": string(listingID)})
}

func (r *BookingRepository) ListOccupying(ctx context.Context, listingID listings.ListingID, dr domainrange.DateRange) ([]*domainbooking.Booking, error) {
	return r.list(ctx, overlapFilter(string(listingID), dr, ""))
}

func (r *BookingRepository) list(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	cursor, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

// overlapFilter matches occupying bookings of the listing whose half-open
// range intersects dr: check_in < dr.CheckOut AND check_out > dr.CheckIn.
func overlapFilter(listingID string, dr domainrange.DateRange, excludeID string) bson.M {
	filter := bson.M{
		"listing_id":     listingID,
		"status":         bson.M{"$nin": nonOccupyingStatuses},
		"range.check_in": bson.M{"$lt": dr.CheckOut.UnixMilli()},
		"range.check_out": bson.M{
			"$gt": dr.CheckIn.UnixMilli(),
		},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}
	return filter
}

type bookingDocument struct {
	ID            string        `bson:"_id"`
	ListingID     string        `bson:"listing_id"`
	GuestID       string        `bson:"guest_id"`
	HostID        string        `bson:"host_id"`
	Range         rangeDocument `bson:"range"`
	Guests        int           `bson:"guests"`
	Price         priceDocument `bson:"price"`
	Status        string        `bson:"status"`
	PaymentStatus string        `bson:"payment_status"`
	PaymentID     string        `bson:"payment_id,omitempty"`
	CancelledAt   *int64        `bson:"cancelled_at,omitempty"`
	CancelledBy   string        `bson:"cancelled_by,omitempty"`
	CancelReason  string        `bson:"cancellation_reason,omitempty"`
	RespondedAt   *int64        `bson:"responded_at,omitempty"`
	HostMessage   string        `bson:"host_message,omitempty"`
	CreatedAt     int64         `bson:"created_at"`
	UpdatedAt     int64         `bson:"updated_at"`
	Version       int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  int64 `bson:"check_in"`
	CheckOut int64 `bson:"check_out"`
}

type priceDocument struct {
	Base     moneyDocument `bson:"base"`
	Cleaning moneyDocument `bson:"cleaning"`
	Service  moneyDocument `bson:"service"`
	Taxes    moneyDocument `bson:"taxes"`
	Total    moneyDocument `bson:"total"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:            string(b.ID),
		ListingID:     string(b.ListingID),
		GuestID:       b.GuestID,
		HostID:        string(b.HostID),
		Range:         rangeDocument{CheckIn: b.Range.CheckIn.UnixMilli(), CheckOut: b.Range.CheckOut.UnixMilli()},
		Guests:        b.Guests,
		Price:         newPriceDocument(b.Price),
		Status:        string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		PaymentID:     b.PaymentID,
		CancelledAt:   timeToTimestamp(b.CancelledAt),
		CancelledBy:   b.CancelledBy,
		CancelReason:  b.CancellationReason,
		RespondedAt:   timeToTimestamp(b.RespondedAt),
		HostMessage:   b.HostMessage,
		CreatedAt:     b.CreatedAt.UnixMilli(),
		UpdatedAt:     b.UpdatedAt.UnixMilli(),
		Version:       b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:                 domainbooking.BookingID(d.ID),
		ListingID:          listings.ListingID(d.ListingID),
		GuestID:            d.GuestID,
		HostID:             listings.HostID(d.HostID),
		Range:              domainrange.DateRange{CheckIn: timestampToTime(d.Range.CheckIn), CheckOut: timestampToTime(d.Range.CheckOut)},
		Guests:             d.Guests,
		Price:              d.Price.toBreakdown(),
		Status:             domainbooking.Status(d.Status),
		PaymentStatus:      domainbooking.PaymentStatus(d.PaymentStatus),
		PaymentID:          d.PaymentID,
		CancelledAt:        timestampToTimePtr(d.CancelledAt),
		CancelledBy:        d.CancelledBy,
		CancellationReason: d.CancelReason,
		RespondedAt:        timestampToTimePtr(d.RespondedAt),
		HostMessage:        d.HostMessage,
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		Version:            d.Version,
	}
}

func newPriceDocument(p domainbooking.Breakdown) priceDocument {
	return priceDocument{
		Base:     newMoneyDocument(p.Base),
		Cleaning: newMoneyDocument(p.Cleaning),
		Service:  newMoneyDocument(p.Service),
		Taxes:    newMoneyDocument(p.Taxes),
		Total:    newMoneyDocument(p.Total),
	}
}

func (d priceDocument) toBreakdown() domainbooking.Breakdown {
	return domainbooking.Breakdown{
		Base:     d.Base.toMoney(),
		Cleaning: d.Cleaning.toMoney(),
		Service:  d.Service.toMoney(),
		Taxes:    d.Taxes.toMoney(),
		Total:    d.Total.toMoney(),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func timestampToTimePtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := timestampToTime(*ms)
	return &t
}

func timeToTimestamp(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
