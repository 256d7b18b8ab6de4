package models

import "time"

// Correction is an operator-entered overwrite for one post, keyed by the
// post key ("coffee/<filename-stem>"). Nil fields mean "leave alone";
// non-nil fields replace the stored value unconditionally, unlike import
// merges which only fill gaps.
type Correction struct {
	PostKey   string     `gorm:"primaryKey" json:"post_key"`
	CafeName  *string    `json:"cafe_name"`
	City      *string    `json:"city"`
	Country   *string    `json:"country"`
	Continent *string    `json:"continent"`
	Latitude  *float64   `json:"latitude"`
	Longitude *float64   `json:"longitude"`
	Notes     *string    `json:"notes"`
	Rating    *int       `json:"rating"`
	Published *bool      `json:"published"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Fields flattens the non-nil corrections into an update map usable with
// the repository's partial update.
func (c *Correction) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if c.CafeName != nil {
		fields["cafe_name"] = *c.CafeName
	}
	if c.City != nil {
		fields["city"] = *c.City
	}
	if c.Country != nil {
		fields["country"] = *c.Country
	}
	if c.Continent != nil {
		fields["continent"] = *c.Continent
	}
	if c.Latitude != nil {
		fields["latitude"] = *c.Latitude
	}
	if c.Longitude != nil {
		fields["longitude"] = *c.Longitude
	}
	if c.Notes != nil {
		fields["notes"] = *c.Notes
	}
	if c.Rating != nil {
		fields["rating"] = *c.Rating
	}
	if c.Published != nil {
		fields["published"] = *c.Published
	}
	return fields
}
