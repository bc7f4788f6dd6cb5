package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"devevents/db"
)

type mongoBookingRepo struct {
	mg *db.Mongo
}

func NewMongoBookingRepository(mg *db.Mongo) BookingRepository {
	return &mongoBookingRepo{mg: mg}
}

func (r *mongoBookingRepo) col(ctx context.Context) (*mongo.Collection, error) {
	c, err := r.mg.Collection(ctx, db.BookingsCollection)
	if err != nil {
		return nil, Infrastructure("database unavailable", err)
	}
	return c, nil
}

func (r *mongoBookingRepo) Exists(ctx context.Context, eventID, email string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return false, err
	}
	n, err := col.CountDocuments(ctx, bson.M{"eventId": eventID, "email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, Infrastructure("could not check existing booking", err)
	}
	return n > 0, nil
}

func (r *mongoBookingRepo) Create(ctx context.Context, b *Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return err
	}
	// unique (eventId, email) index is the authority on duplicates
	if _, err := col.InsertOne(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Conflict(AlreadyBookedMessage)
		}
		return Infrastructure("could not create booking", err)
	}
	return nil
}

func (r *mongoBookingRepo) ListByEmail(ctx context.Context, email string, sort BookingSort, skip, limit int64) ([]BookingSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return nil, err
	}
	cur, err := col.Aggregate(ctx, bookingsPipeline(email, sort, skip, limit))
	if err != nil {
		return nil, Infrastructure("could not fetch bookings", err)
	}
	out := []BookingSummary{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, Infrastructure("could not decode bookings", err)
	}
	return out, nil
}

func (r *mongoBookingRepo) CountByEmail(ctx context.Context, email string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, err := r.col(ctx)
	if err != nil {
		return 0, err
	}
	n, err := col.CountDocuments(ctx, bson.M{"email": email})
	if err != nil {
		return 0, Infrastructure("could not count bookings", err)
	}
	return n, nil
}

// bookingsPipeline builds the history query. latest/oldest sort on the
// booking's own createdAt, so sort, skip and limit run before the join and
// only one page of bookings is looked up. upcoming sorts on the joined event
// date, so the join has to come first.
func bookingsPipeline(email string, sort BookingSort, skip, limit int64) mongo.Pipeline {
	match := bson.D{{Key: "$match", Value: bson.D{{Key: "email", Value: email}}}}
	page := []bson.D{
		{{Key: "$skip", Value: skip}},
		{{Key: "$limit", Value: limit}},
	}
	join := []bson.D{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: db.EventsCollection},
			{Key: "let", Value: bson.D{{Key: "eventId", Value: "$eventId"}}},
			{Key: "pipeline", Value: bson.A{
				bson.D{{Key: "$match", Value: bson.D{{Key: "$expr", Value: bson.D{
					{Key: "$eq", Value: bson.A{"$_id", "$$eventId"}},
				}}}}},
				bson.D{{Key: "$project", Value: bson.D{
					{Key: "title", Value: 1},
					{Key: "slug", Value: 1},
					{Key: "date", Value: 1},
				}}},
			}},
			{Key: "as", Value: "event"},
		}}},
		{{Key: "$unwind", Value: "$event"}},
	}
	project := bson.D{{Key: "$project", Value: bson.D{
		{Key: "_id", Value: 1},
		{Key: "createdAt", Value: 1},
		{Key: "event.title", Value: 1},
		{Key: "event.slug", Value: 1},
		{Key: "event.date", Value: 1},
	}}}

	p := mongo.Pipeline{match}
	switch sort {
	case SortUpcoming:
		p = append(p, join...)
		p = append(p, bson.D{{Key: "$sort", Value: bson.D{
			{Key: "event.date", Value: 1},
			{Key: "createdAt", Value: 1},
			{Key: "_id", Value: 1},
		}}})
		p = append(p, page...)
	default:
		dir := -1
		if sort == SortOldest {
			dir = 1
		}
		p = append(p, bson.D{{Key: "$sort", Value: bson.D{
			{Key: "createdAt", Value: dir},
			{Key: "_id", Value: dir},
		}}})
		p = append(p, page...)
		p = append(p, join...)
	}
	return append(p, project)
}
