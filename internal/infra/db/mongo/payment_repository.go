package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "staymarket/internal/domain/booking"
	domainpayment "staymarket/internal/domain/payment"
)

type PaymentRepository struct {
	col *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{col: db.Collection("agg_payment")}
}

func (r *PaymentRepository) ByID(ctx context.Context, id domainpayment.PaymentID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainpayment.Payment, error) {
	var doc paymentDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpayment.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PaymentRepository) Save(ctx context.Context, p *domainpayment.Payment) error {
	doc := newPaymentDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
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
	p.Version = doc.Version
	return nil
}

type paymentDocument struct {
	ID                  string          `bson:"_id"`
	BookingID           string          `bson:"booking_id"`
	UserID              string          `bson:"user_id"`
	Amount              moneyDocument   `bson:"amount"`
	Method              string          `bson:"method"`
	Status              string          `bson:"status"`
	TransactionID       string          `bson:"transaction_id,omitempty"`
	Refund              *refundDocument `bson:"refund,omitempty"`
	NeedsReconciliation bool            `bson:"needs_reconciliation"`
	CreatedAt           int64           `bson:"created_at"`
	UpdatedAt           int64           `bson:"updated_at"`
	Version             int64           `bson:"version"`
}

type refundDocument struct {
	Amount     moneyDocument `bson:"amount"`
	Reason     string        `bson:"reason"`
	RefundedAt int64         `bson:"refunded_at"`
	RefundID   string        `bson:"refund_id"`
}

func newPaymentDocument(p *domainpayment.Payment) paymentDocument {
	doc := paymentDocument{
		ID:                  string(p.ID),
		BookingID:           string(p.BookingID),
		UserID:              p.UserID,
		Amount:              newMoneyDocument(p.Amount),
		Method:              string(p.Method),
		Status:              string(p.Status),
		TransactionID:       p.TransactionID,
		NeedsReconciliation: p.NeedsReconciliation,
		CreatedAt:           p.CreatedAt.UnixMilli(),
		UpdatedAt:           p.UpdatedAt.UnixMilli(),
		Version:             p.Version,
	}
	if p.Refund != nil {
		doc.Refund = &refundDocument{
			Amount:     newMoneyDocument(p.Refund.Amount),
			Reason:     p.Refund.Reason,
			RefundedAt: p.Refund.RefundedAt.UnixMilli(),
			RefundID:   p.Refund.RefundID,
		}
	}
	return doc
}

func (d paymentDocument) toAggregate() *domainpayment.Payment {
	p := &domainpayment.Payment{
		ID:                  domainpayment.PaymentID(d.ID),
		BookingID:           domainbooking.BookingID(d.BookingID),
		UserID:              d.UserID,
		Amount:              d.Amount.toMoney(),
		Method:              domainpayment.Method(d.Method),
		Status:              domainpayment.Status(d.Status),
		TransactionID:       d.TransactionID,
		NeedsReconciliation: d.NeedsReconciliation,
		CreatedAt:           timestampToTime(d.CreatedAt),
		UpdatedAt:           timestampToTime(d.UpdatedAt),
		Version:             d.Version,
	}
	if d.Refund != nil {
		p.Refund = &domainpayment.Refund{
			Amount:     d.Refund.Amount.toMoney(),
			Reason:     d.Refund.Reason,
			RefundedAt: timestampToTime(d.Refund.RefundedAt),
			RefundID:   d.Refund.RefundID,
		}
	}
	return p
}
