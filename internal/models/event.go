package models

import validation "github.com/go-ozzo/ozzo-validation/v4"

// Event types.
const (
	EventConference = "conference"
	EventWorkshop   = "workshop"
	EventMeetup     = "meetup"
	EventWebinar    = "webinar"
	EventHackathon  = "hackathon"
	EventCourse     = "course"
	EventOther      = "other"
)

// Event statuses.
const (
	EventUpcoming  = "upcoming"
	EventAttended  = "attended"
	EventMissed    = "missed"
	EventCancelled = "cancelled"
)

// Event is something the user attended or plans to attend.
type Event struct {
	Meta
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	Location    string   `json:"location,omitempty"`
	StartDate   string   `json:"start_date"`
	EndDate     string   `json:"end_date,omitempty"`
	Cost        float64  `json:"cost"`
	Status      string   `json:"status,omitempty"`
	Rating      int      `json:"rating"`
	Tags        []string `json:"tags"`
	IsFeatured  bool     `json:"is_featured"`
}

// Validate checks required fields and enum values.
func (e *Event) Validate() error {
	e.Tags = nonNil(e.Tags)
	return validation.ValidateStruct(e,
		validation.Field(&e.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Type, validation.In(EventConference, EventWorkshop, EventMeetup, EventWebinar, EventHackathon, EventCourse, EventOther)),
		validation.Field(&e.Status, validation.In(EventUpcoming, EventAttended, EventMissed, EventCancelled)),
		validation.Field(&e.StartDate, validation.Required, dateRule),
		validation.Field(&e.EndDate, dateRule),
		validation.Field(&e.Cost, validation.Min(0.0)),
		validation.Field(&e.Rating, validation.Min(0), validation.Max(5)),
	)
}
