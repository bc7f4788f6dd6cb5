package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devevents/db"
)

type mongoEventRepo struct {
	mg *db.Mongo
}

func NewMongoEventRepository(mg *db.Mongo) EventRepository {
	return &mongoEventRepo{mg: mg}
}

func (r *mongoEventRepo) col(ctx context.Context) (*mongo.Collection, error) {
	c, err := r.mg.Collection(ctx, db.EventsCollection)
	if err != nil {
		return nil, Infrastructure("database unavailable", err)
	}
	return c, nil
}

func (r *mongoEventRepo) List(ctx context.Context, skip, limit int64) ([]Event, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return nil, 0, err
	}

	total, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, Infrastructure("could not count events", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, Infrastructure("could not fetch events", err)
	}
	out := []Event{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, Infrastructure("could not decode events", err)
	}
	return out, total, nil
}

func (r *mongoEventRepo) findOne(ctx context.Context, filter bson.M) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return Event{}, err
	}
	var e Event
	if err := col.FindOne(ctx, filter).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Event{}, NotFound("Event not found")
		}
		return Event{}, Infrastructure("could not fetch event", err)
	}
	return e, nil
}

func (r *mongoEventRepo) GetByID(ctx context.Context, id string) (Event, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoEventRepo) GetBySlug(ctx context.Context, slug string) (Event, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

func (r *mongoEventRepo) Similar(ctx context.Context, e Event, limit int64) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return nil, err
	}
	out := []Event{}
	if len(e.Tags) == 0 {
		return out, nil
	}
	filter := bson.M{
		"_id":  bson.M{"$ne": e.ID},
		"tags": bson.M{"$in": e.Tags},
	}
	cur, err := col.Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, Infrastructure("could not fetch similar events", err)
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, Infrastructure("could not decode similar events", err)
	}
	return out, nil
}

func (r *mongoEventRepo) Create(ctx context.Context, e *Event) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Conflict("An event with this title already exists")
		}
		return Infrastructure("could not create event", err)
	}
	return nil
}

func (r *mongoEventRepo) UpdateBySlug(ctx context.Context, slug string, p EventPatch) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return Event{}, err
	}

	set, err := patchDocument(p)
	if err != nil {
		return Event{}, Infrastructure("could not encode event update", err)
	}
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var out Event
	err = col.FindOneAndUpdate(ctx, bson.M{"slug": slug}, bson.M{"$set": set}, opts).Decode(&out)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return Event{}, NotFound("Event not found")
	case mongo.IsDuplicateKeyError(err):
		return Event{}, Conflict("An event with this title already exists")
	case err != nil:
		return Event{}, Infrastructure("could not update event", err)
	}
	return out, nil
}

// patchDocument renders the set fields of p as a $set document. The derived
// slug travels with the title so the unique index sees it.
func patchDocument(p EventPatch) (bson.M, error) {
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, err
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}
	return set, nil
}

func (r *mongoEventRepo) IncrementBookings(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return err
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{"bookings": 1}})
	if err != nil {
		return Infrastructure("could not increment bookings", err)
	}
	if res.MatchedCount == 0 {
		return NotFound("Event not found")
	}
	return nil
}
