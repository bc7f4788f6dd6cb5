package models

import "time"

type Event struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Slug        string    `bson:"slug" json:"slug"`
	Description string    `bson:"description" json:"description"`
	Overview    string    `bson:"overview" json:"overview"`
	Image       string    `bson:"image" json:"image"`
	Venue       string    `bson:"venue" json:"venue"`
	Location    string    `bson:"location" json:"location"`
	Date        string    `bson:"date" json:"date"` // ISO-8601, UTC
	Time        string    `bson:"time" json:"time"` // HH:MM, 24h
	Mode        string    `bson:"mode" json:"mode"`
	Audience    string    `bson:"audience" json:"audience"`
	Agenda      []string  `bson:"agenda" json:"agenda"`
	Organizer   string    `bson:"organizer" json:"organizer"`
	Tags        []string  `bson:"tags" json:"tags"`
	Bookings    int       `bson:"bookings" json:"bookings"`
	CreatedBy   int64     `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

// EventPatch is the writable part of an Event. A nil field is left alone by
// an update; a create requires every field.
type EventPatch struct {
	Title       *string   `json:"title" bson:"title,omitempty"`
	Slug        *string   `json:"-" bson:"slug,omitempty"`
	Description *string   `json:"description" bson:"description,omitempty"`
	Overview    *string   `json:"overview" bson:"overview,omitempty"`
	Image       *string   `json:"image" bson:"image,omitempty"`
	Venue       *string   `json:"venue" bson:"venue,omitempty"`
	Location    *string   `json:"location" bson:"location,omitempty"`
	Date        *string   `json:"date" bson:"date,omitempty"`
	Time        *string   `json:"time" bson:"time,omitempty"`
	Mode        *string   `json:"mode" bson:"mode,omitempty"`
	Audience    *string   `json:"audience" bson:"audience,omitempty"`
	Agenda      *[]string `json:"agenda" bson:"agenda,omitempty"`
	Organizer   *string   `json:"organizer" bson:"organizer,omitempty"`
	Tags        *[]string `json:"tags" bson:"tags,omitempty"`
}

// Apply copies the set fields of p onto e.
func (p *EventPatch) Apply(e *Event) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&e.Title, p.Title)
	set(&e.Slug, p.Slug)
	set(&e.Description, p.Description)
	set(&e.Overview, p.Overview)
	set(&e.Image, p.Image)
	set(&e.Venue, p.Venue)
	set(&e.Location, p.Location)
	set(&e.Date, p.Date)
	set(&e.Time, p.Time)
	set(&e.Mode, p.Mode)
	set(&e.Audience, p.Audience)
	set(&e.Organizer, p.Organizer)
	if p.Agenda != nil {
		e.Agenda = append([]string(nil), (*p.Agenda)...)
	}
	if p.Tags != nil {
		e.Tags = append([]string(nil), (*p.Tags)...)
	}
}

func (p *EventPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Overview == nil &&
		p.Image == nil && p.Venue == nil && p.Location == nil &&
		p.Date == nil && p.Time == nil && p.Mode == nil &&
		p.Audience == nil && p.Agenda == nil && p.Organizer == nil && p.Tags == nil
}

// EventSummary is the part of an event shown next to a booking.
type EventSummary struct {
	Title string `bson:"title" json:"title"`
	Slug  string `bson:"slug" json:"slug"`
	Date  string `bson:"date" json:"date"`
}

func (e Event) Summary() EventSummary {
	return EventSummary{Title: e.Title, Slug: e.Slug, Date: e.Date}
}
