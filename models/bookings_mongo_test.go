package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageNames(p mongo.Pipeline) []string {
	out := make([]string, len(p))
	for i, st := range p {
		out[i] = st[0].Key
	}
	return out
}

func stage(p mongo.Pipeline, name string) bson.E {
	for _, st := range p {
		if st[0].Key == name {
			return st[0]
		}
	}
	return bson.E{}
}

func TestBookingsPipeline_PaginatesBeforeJoinForCreatedAtSorts(t *testing.T) {
	for _, sort := range []BookingSort{SortLatest, SortOldest} {
		p := bookingsPipeline("a@b.com", sort, 10, 5)
		assert.Equal(t,
			[]string{"$match", "$sort", "$skip", "$limit", "$lookup", "$unwind", "$project"},
			stageNames(p), string(sort))

		keys := stage(p, "$sort").Value.(bson.D)
		assert.Equal(t, "createdAt", keys[0].Key)
		want := -1
		if sort == SortOldest {
			want = 1
		}
		assert.Equal(t, want, keys[0].Value)
	}
}

func TestBookingsPipeline_JoinsBeforeSortForUpcoming(t *testing.T) {
	p := bookingsPipeline("a@b.com", SortUpcoming, 0, 5)
	assert.Equal(t,
		[]string{"$match", "$lookup", "$unwind", "$sort", "$skip", "$limit", "$project"},
		stageNames(p))

	keys := stage(p, "$sort").Value.(bson.D)
	assert.Equal(t, "event.date", keys[0].Key)
	assert.Equal(t, 1, keys[0].Value)
}

func TestBookingsPipeline_PageWindow(t *testing.T) {
	p := bookingsPipeline("a@b.com", SortLatest, 15, 5)
	assert.Equal(t, int64(15), stage(p, "$skip").Value)
	assert.Equal(t, int64(5), stage(p, "$limit").Value)

	match := stage(p, "$match").Value.(bson.D)
	assert.Equal(t, bson.E{Key: "email", Value: "a@b.com"}, match[0])
}

func TestParseBookingSort(t *testing.T) {
	s, err := ParseBookingSort("")
	assert.NoError(t, err)
	assert.Equal(t, SortLatest, s)

	s, err = ParseBookingSort("upcoming")
	assert.NoError(t, err)
	assert.Equal(t, SortUpcoming, s)

	_, err = ParseBookingSort("random")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestPatchDocument_CarriesSlugWithTitle(t *testing.T) {
	p := EventPatch{Title: strp("New Title")}
	if err := NormalizeEvent(&p, false); err != nil {
		t.Fatal(err)
	}
	set, err := patchDocument(p)
	assert.NoError(t, err)
	assert.Equal(t, "New Title", set["title"])
	assert.Equal(t, "new-title", set["slug"])
	_, hasVenue := set["venue"]
	assert.False(t, hasVenue, "unset fields must not be written")
}
