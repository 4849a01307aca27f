package mongodb

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/wms-platform/fulfillment-orchestrator/internal/order/domain"
)

type reservationDocument struct {
	Status                string     `bson:"status"`
	TransactionID         string     `bson:"transactionId,omitempty"`
	ExternalReservationID string     `bson:"externalReservationId,omitempty"`
	WarehouseID           string     `bson:"warehouseId,omitempty"`
	FailureReason         string     `bson:"failureReason,omitempty"`
	ReservedAt            *time.Time `bson:"reservedAt,omitempty"`
}

type commitmentDocument struct {
	Status        string     `bson:"status"`
	Reference     string     `bson:"reference,omitempty"`
	FailureReason string     `bson:"failureReason,omitempty"`
	UpdatedAt     *time.Time `bson:"updatedAt,omitempty"`
}

type lineDocument struct {
	LineID      string               `bson:"lineId"`
	SKU         string               `bson:"sku"`
	Quantity    int                  `bson:"quantity"`
	Price       primitive.Decimal128 `bson:"price"`
	Reservation reservationDocument  `bson:"reservation"`
	Commitment  commitmentDocument   `bson:"commitment"`
}

type shipmentDocument struct {
	Carrier        string `bson:"carrier"`
	TrackingNumber string `bson:"trackingNumber"`
}

type orderDocument struct {
	OrderID             string            `bson:"orderId"`
	Status              string            `bson:"status"`
	Lines               []lineDocument    `bson:"lines"`
	ScheduledPickupTime *time.Time        `bson:"scheduledPickupTime,omitempty"`
	LeadTimeMillis      int64             `bson:"leadTimeMillis"`
	FulfillmentStartAt  *time.Time        `bson:"fulfillmentStartAt,omitempty"`
	Shipment            *shipmentDocument `bson:"shipment,omitempty"`
	CreatedAt           time.Time         `bson:"createdAt"`
	UpdatedAt           time.Time         `bson:"updatedAt"`
}

func toOrderDocument(order *domain.Order) (orderDocument, error) {
	s := order.State()
	lines := make([]lineDocument, 0, len(s.Lines))
	for _, l := range s.Lines {
		price, err := primitive.ParseDecimal128(l.Price.String())
		if err != nil {
			return orderDocument{}, fmt.Errorf("line %s price: %w", l.LineID, err)
		}
		lines = append(lines, lineDocument{
			LineID:   l.LineID,
			SKU:      l.SKU,
			Quantity: l.Quantity,
			Price:    price,
			Reservation: reservationDocument{
				Status:                string(l.Reservation.Status),
				TransactionID:         l.Reservation.TransactionID,
				ExternalReservationID: l.Reservation.ExternalReservationID,
				WarehouseID:           l.Reservation.WarehouseID,
				FailureReason:         l.Reservation.FailureReason,
				ReservedAt:            l.Reservation.ReservedAt,
			},
			Commitment: commitmentDocument{
				Status:        string(l.Commitment.Status),
				Reference:     l.Commitment.Reference,
				FailureReason: l.Commitment.FailureReason,
				UpdatedAt:     l.Commitment.UpdatedAt,
			},
		})
	}

	doc := orderDocument{
		OrderID:             s.ID,
		Status:              string(s.Status),
		Lines:               lines,
		ScheduledPickupTime: s.ScheduledPickupTime,
		LeadTimeMillis:      s.LeadTime.Milliseconds(),
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
	if s.ScheduledPickupTime != nil {
		start := s.ScheduledPickupTime.Add(-s.LeadTime)
		doc.FulfillmentStartAt = &start
	}
	if s.Shipment != nil {
		doc.Shipment = &shipmentDocument{Carrier: s.Shipment.Carrier, TrackingNumber: s.Shipment.TrackingNumber}
	}
	return doc, nil
}

func (d orderDocument) toDomain() (*domain.Order, error) {
	lines := make([]domain.OrderLineItem, 0, len(d.Lines))
	for _, l := range d.Lines {
		price, err := decimal.NewFromString(l.Price.String())
		if err != nil {
			return nil, fmt.Errorf("order %s line %s price: %w", d.OrderID, l.LineID, err)
		}
		lines = append(lines, domain.OrderLineItem{
			LineID:   l.LineID,
			SKU:      l.SKU,
			Quantity: l.Quantity,
			Price:    price,
			Reservation: domain.LineReservationInfo{
				Status:                domain.ReservationStatus(l.Reservation.Status),
				TransactionID:         l.Reservation.TransactionID,
				ExternalReservationID: l.Reservation.ExternalReservationID,
				WarehouseID:           l.Reservation.WarehouseID,
				FailureReason:         l.Reservation.FailureReason,
				ReservedAt:            l.Reservation.ReservedAt,
			},
			Commitment: domain.LineCommitmentInfo{
				Status:        domain.CommitmentStatus(l.Commitment.Status),
				Reference:     l.Commitment.Reference,
				FailureReason: l.Commitment.FailureReason,
				UpdatedAt:     l.Commitment.UpdatedAt,
			},
		})
	}

	state := domain.OrderState{
		ID:                  d.OrderID,
		Status:              domain.OrderStatus(d.Status),
		Lines:               lines,
		ScheduledPickupTime: d.ScheduledPickupTime,
		LeadTime:            time.Duration(d.LeadTimeMillis) * time.Millisecond,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}
	if d.Shipment != nil {
		state.Shipment = &domain.ShipmentInfo{Carrier: d.Shipment.Carrier, TrackingNumber: d.Shipment.TrackingNumber}
	}
	return domain.ReconstituteOrder(state), nil
}
