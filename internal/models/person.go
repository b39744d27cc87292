package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Relationship values for Person.Relationship.
const (
	RelationshipFriend    = "friend"
	RelationshipColleague = "colleague"
	RelationshipMentor    = "mentor"
	RelationshipMentee    = "mentee"
	RelationshipClient    = "client"
	RelationshipFamily    = "family"
	RelationshipOther     = "other"
)

// Person is a contact in the user's network.
type Person struct {
	Meta
	Name          string   `json:"name"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Profession    string   `json:"profession,omitempty"`
	Company       string   `json:"company,omitempty"`
	Location      string   `json:"location,omitempty"`
	Relationship  string   `json:"relationship,omitempty"`
	Skills        []string `json:"skills"`
	Tags          []string `json:"tags"`
	Notes         string   `json:"notes,omitempty"`
	LinkedIn      string   `json:"linkedin,omitempty"`
	IsFavorite    bool     `json:"is_favorite"`
	LastContacted string   `json:"last_contacted,omitempty"`
}

// Validate checks required fields and enum values.
func (p *Person) Validate() error {
	p.Skills = nonNil(p.Skills)
	p.Tags = nonNil(p.Tags)
	return validation.ValidateStruct(p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, is.EmailFormat),
		validation.Field(&p.LinkedIn, is.URL),
		validation.Field(&p.Relationship, validation.In(
			RelationshipFriend, RelationshipColleague, RelationshipMentor, RelationshipMentee,
			RelationshipClient, RelationshipFamily, RelationshipOther,
		)),
		validation.Field(&p.LastContacted, dateRule),
	)
}
