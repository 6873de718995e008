package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nekogravitycat/evently-backend/internal/docstore"
	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
	"github.com/nekogravitycat/evently-backend/internal/resource"
)

type itemDocument struct {
	ResourceID string    `bson:"resourceId"`
	Quantity   int       `bson:"quantity"`
	CreatedAt  time.Time `bson:"createdAt"`
}

type bookingDocument struct {
	ID        string         `bson:"_id"`
	EventID   string         `bson:"eventId"`
	UserID    string         `bson:"userId"`
	Resources []itemDocument `bson:"resources"`
	CreatedAt time.Time      `bson:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

func (d *bookingDocument) toBooking() *Booking {
	b := &Booking{
		ID:        d.ID,
		EventID:   d.EventID,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, it := range d.Resources {
		b.Items = append(b.Items, LineItem(it))
	}
	return b
}

type mongoRepository struct {
	db        *mongo.Database
	resources *mongo.Collection
	bookings  *mongo.Collection
}

// NewMongoRepository stores bookings as documents with embedded line items.
// Book and Unbook need a replica set since they run in multi-document transactions.
func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		db:        db,
		resources: db.Collection(docstore.CollectionResources),
		bookings:  db.Collection(docstore.CollectionBookings),
	}
}

func (r *mongoRepository) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := r.db.Client().StartSession()
	if err != nil {
		return errs.Wrap(err, "start session failed")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (r *mongoRepository) Book(ctx context.Context, p BookParams) (*BookResult, error) {
	var result BookResult

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now().UTC()
		after := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var resDoc resource.Document
		err := r.resources.FindOneAndUpdate(sc,
			bson.M{"_id": p.ResourceID, "available": bson.M{"$gte": p.Quantity}},
			bson.M{"$inc": bson.M{"available": -p.Quantity}, "$set": bson.M{"updatedAt": now}},
			after,
		).Decode(&resDoc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			var current resource.Document
			getErr := r.resources.FindOne(sc, bson.M{"_id": p.ResourceID}).Decode(&current)
			if errors.Is(getErr, mongo.ErrNoDocuments) {
				return ErrResourceNotFound
			}
			if getErr != nil {
				return errs.Wrap(getErr, "find resource failed")
			}
			return NewInsufficientAvailability(p.ResourceID, p.Quantity, current.Available)
		}
		if err != nil {
			return errs.Wrap(err, "decrement availability failed")
		}
		result.Resource = resDoc.ToResource()

		owner := bson.M{"eventId": p.EventID, "userId": p.UserID}

		// Existing line item: grow it in place.
		var doc bookingDocument
		err = r.bookings.FindOneAndUpdate(sc,
			bson.M{"eventId": p.EventID, "userId": p.UserID, "resources.resourceId": p.ResourceID},
			bson.M{"$inc": bson.M{"resources.$.quantity": p.Quantity}, "$set": bson.M{"updatedAt": now}},
			after,
		).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			err = r.bookings.FindOneAndUpdate(sc,
				owner,
				bson.M{
					"$push":        bson.M{"resources": itemDocument{ResourceID: p.ResourceID, Quantity: p.Quantity, CreatedAt: now}},
					"$set":         bson.M{"updatedAt": now},
					"$setOnInsert": bson.M{"_id": uuid.NewString(), "createdAt": now},
				},
				options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
			).Decode(&doc)
		}
		if err != nil {
			return errs.Wrap(err, "upsert booking failed")
		}

		result.Booking = doc.toBooking()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *mongoRepository) Unbook(ctx context.Context, p UnbookParams) (*UnbookResult, error) {
	var result UnbookResult

	err := r.withTransaction(ctx, func(sc mongo.SessionContext) error {
		now := time.Now().UTC()

		var doc bookingDocument
		if err := r.bookings.FindOne(sc, bson.M{"_id": p.BookingID}).Decode(&doc); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return errs.Wrap(err, "find booking failed")
		}
		b := doc.toBooking()
		if p.Authorize != nil {
			if err := p.Authorize(b); err != nil {
				return err
			}
		}

		var current resource.Document
		if err := r.resources.FindOne(sc, bson.M{"_id": p.ResourceID}).Decode(&current); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrResourceNotFound
			}
			return errs.Wrap(err, "find resource failed")
		}

		item, ok := b.Item(p.ResourceID)
		if !ok {
			return ErrLineItemNotFound
		}
		released := min(p.Quantity, item.Quantity)
		if current.Available+released > current.Quantity {
			slog.WarnContext(sc, "availability clamped to quantity on release",
				"resource_id", current.ID, "quantity", current.Quantity, "computed", current.Available+released)
		}

		var resDoc resource.Document
		err := r.resources.FindOneAndUpdate(sc,
			bson.M{"_id": p.ResourceID},
			mongo.Pipeline{{{Key: "$set", Value: bson.M{
				"available": bson.M{"$min": bson.A{"$quantity", bson.M{"$add": bson.A{"$available", released}}}},
				"updatedAt": now,
			}}}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&resDoc)
		if err != nil {
			return errs.Wrap(err, "release availability failed")
		}

		var itemUpdate bson.M
		if released == item.Quantity {
			itemUpdate = bson.M{
				"$pull": bson.M{"resources": bson.M{"resourceId": p.ResourceID}},
				"$set":  bson.M{"updatedAt": now},
			}
		} else {
			itemUpdate = bson.M{
				"$inc": bson.M{"resources.$[item].quantity": -released},
				"$set": bson.M{"updatedAt": now},
			}
		}
		updateOpts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		if released != item.Quantity {
			updateOpts.SetArrayFilters(options.ArrayFilters{Filters: []interface{}{bson.M{"item.resourceId": p.ResourceID}}})
		}

		var updated bookingDocument
		if err := r.bookings.FindOneAndUpdate(sc, bson.M{"_id": p.BookingID}, itemUpdate, updateOpts).Decode(&updated); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return errs.Wrap(err, "update booking failed")
		}

		if len(updated.Resources) == 0 {
			if _, err := r.bookings.DeleteOne(sc, bson.M{"_id": p.BookingID}); err != nil {
				return errs.Wrap(err, "delete booking failed")
			}
			result.Deleted = true
		}

		result.Resource = resDoc.ToResource()
		result.Booking = updated.toBooking()
		result.Released = released
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	var doc bookingDocument
	if err := r.bookings.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errs.Wrap(err, "find booking failed")
	}
	return doc.toBooking(), nil
}

func (r *mongoRepository) List(ctx context.Context, filter Filter) ([]*Booking, error) {
	q := bson.M{"resources.0": bson.M{"$exists": true}}
	if filter.EventID != "" {
		q["eventId"] = filter.EventID
	}
	if filter.UserID != "" {
		q["userId"] = filter.UserID
	}
	if filter.ResourceID != "" {
		q["resources.resourceId"] = filter.ResourceID
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := r.bookings.Find(ctx, q, opts)
	if err != nil {
		return nil, errs.Wrap(err, "find bookings failed")
	}
	defer cur.Close(ctx)

	var out []*Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(err, "decode booking failed")
		}
		out = append(out, doc.toBooking())
	}
	return out, cur.Err()
}
