package resource

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nekogravitycat/evently-backend/internal/docstore"
	"github.com/nekogravitycat/evently-backend/internal/pkg/errs"
)

// Document is the stored shape of a resource in the document store.
type Document struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Type        Type      `bson:"type"`
	Description *string   `bson:"description,omitempty"`
	Quantity    int       `bson:"quantity"`
	Available   int       `bson:"available"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d *Document) ToResource() *Resource {
	return &Resource{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Type,
		Description: d.Description,
		Quantity:    d.Quantity,
		Available:   d.Available,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type mongoRepository struct {
	db       *mongo.Database
	col      *mongo.Collection
	bookings *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		db:       db,
		col:      db.Collection(docstore.CollectionResources),
		bookings: db.Collection(docstore.CollectionBookings),
	}
}

func (r *mongoRepository) Create(ctx context.Context, res *Resource) error {
	now := time.Now().UTC()
	doc := Document{
		ID:          uuid.NewString(),
		Name:        res.Name,
		Type:        res.Type,
		Description: res.Description,
		Quantity:    res.Quantity,
		Available:   res.Available,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return errs.Wrap(err, "insert resource failed")
	}
	*res = *doc.ToResource()
	return nil
}

func (r *mongoRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	var doc Document
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, errs.Wrap(err, "find resource failed")
	}
	return doc.ToResource(), nil
}

func (r *mongoRepository) GetMany(ctx context.Context, ids []string) (map[string]*Resource, error) {
	out := make(map[string]*Resource, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	docs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return nil, err
	}
	for _, res := range docs {
		out[res.ID] = res
	}
	return out, nil
}

func (r *mongoRepository) List(ctx context.Context, filter Filter) ([]*Resource, error) {
	q := bson.M{}
	if filter.Type != "" {
		q["type"] = filter.Type
	}
	if filter.Query != "" {
		q["name"] = bson.M{"$regex": regexp.QuoteMeta(filter.Query), "$options": "i"}
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, q, opts)
}

func (r *mongoRepository) find(ctx context.Context, q bson.M, opts *options.FindOptions) ([]*Resource, error) {
	cur, err := r.col.Find(ctx, q, opts)
	if err != nil {
		return nil, errs.Wrap(err, "find resources failed")
	}
	defer cur.Close(ctx)

	var out []*Resource
	for cur.Next(ctx) {
		var doc Document
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.Wrap(err, "decode resource failed")
		}
		out = append(out, doc.ToResource())
	}
	return out, cur.Err()
}

func (r *mongoRepository) Update(ctx context.Context, id string, p Patch) (*Resource, error) {
	// Pipeline updates treat "$..." strings as field paths, hence $literal.
	set := bson.M{"updatedAt": time.Now().UTC()}
	if p.Name != nil {
		set["name"] = bson.M{"$literal": *p.Name}
	}
	if p.Type != nil {
		set["type"] = bson.M{"$literal": *p.Type}
	}
	if p.Description != nil {
		set["description"] = bson.M{"$literal": *p.Description}
	}

	filter := bson.M{"_id": id}
	if p.Quantity != nil {
		q := *p.Quantity
		// Evaluated against the stored document, so "$quantity" is the old value.
		set["available"] = bson.M{"$add": bson.A{"$available", bson.M{"$subtract": bson.A{q, "$quantity"}}}}
		set["quantity"] = q
		filter["$expr"] = bson.M{"$gte": bson.A{q, bson.M{"$subtract": bson.A{"$quantity", "$available"}}}}
	}

	update := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc Document
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		return doc.ToResource(), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.Wrap(err, "update resource failed")
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrQuantityBelowReserved
}

func (r *mongoRepository) Delete(ctx context.Context, id string) error {
	sess, err := r.db.Client().StartSession()
	if err != nil {
		return errs.Wrap(err, "start session failed")
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		n, err := r.bookings.CountDocuments(sc, bson.M{"resources.resourceId": id}, options.Count().SetLimit(1))
		if err != nil {
			return nil, errs.Wrap(err, "count bookings failed")
		}
		if n > 0 {
			return nil, ErrInUse
		}
		res, err := r.col.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return nil, errs.Wrap(err, "delete resource failed")
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		return nil, nil
	})
	return err
}
