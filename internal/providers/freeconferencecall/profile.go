package freeconferencecall

import (
	"github.com/tidwall/gjson"

	"github.com/BlackMission/fccauth/internal/domain"
)

// MapProfile extracts the user fields from a subscription document:
//
//	{"subscription":{"user_id":..,"email":..,"first_name":..,"last_name":..}}
//
// Missing, malformed or non-scalar values map to empty fields.
func MapProfile(raw []byte) domain.UserProfile {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return domain.UserProfile{}
	}
	sub := gjson.GetBytes(raw, "subscription")
	if !sub.IsObject() {
		return domain.UserProfile{}
	}
	return domain.UserProfile{
		UserID:    scalar(sub.Get("user_id")),
		Email:     scalar(sub.Get("email")),
		GivenName: scalar(sub.Get("first_name")),
		Surname:   scalar(sub.Get("last_name")),
	}
}

func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// MapProfile implements flow.Provider.
func (c *Client) MapProfile(raw []byte) domain.UserProfile {
	return MapProfile(raw)
}
