package freeconferencecall

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BlackMission/fccauth/internal/domain"
)

func TestMapProfile(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.UserProfile
	}{
		{
			name: "full subscription",
			raw:  `{"subscription":{"user_id":"42","email":"a@b.com","first_name":"A","last_name":"B"}}`,
			want: domain.UserProfile{UserID: "42", Email: "a@b.com", GivenName: "A", Surname: "B"},
		},
		{
			name: "numeric user id",
			raw:  `{"subscription":{"user_id":42}}`,
			want: domain.UserProfile{UserID: "42"},
		},
		{
			name: "partial",
			raw:  `{"subscription":{"email":"a@b.com"}}`,
			want: domain.UserProfile{Email: "a@b.com"},
		},
		{
			name: "non scalar values",
			raw:  `{"subscription":{"user_id":{"id":1},"email":["a@b.com"],"first_name":null,"last_name":true}}`,
			want: domain.UserProfile{},
		},
		{name: "missing subscription", raw: `{"user_id":"42"}`},
		{name: "subscription not an object", raw: `{"subscription":"42"}`},
		{name: "invalid json", raw: `{"subscription":`},
		{name: "empty", raw: ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapProfile([]byte(tt.raw)))
		})
	}
}

func TestMapProfile_Nil(t *testing.T) {
	assert.Equal(t, domain.UserProfile{}, MapProfile(nil))
}

func TestProfileIdentity_FullProfile(t *testing.T) {
	p := MapProfile([]byte(`{"subscription":{"user_id":"42","email":"a@b.com","first_name":"A","last_name":"B"}}`))
	id := domain.NewProfileIdentity(AuthenticationType, p)

	want := map[string]string{
		domain.ClaimNameIdentifier: "42",
		domain.ClaimName:           "A B",
		domain.ClaimEmail:          "a@b.com",
		domain.ClaimGivenName:      "A",
		domain.ClaimSurname:        "B",
	}
	assert.Len(t, id.Claims, len(want))
	for typ, value := range want {
		c, ok := id.FindFirst(typ)
		if assert.True(t, ok, "missing claim %s", typ) {
			assert.Equal(t, value, c.Value)
			assert.Equal(t, AuthenticationType, c.Issuer)
			assert.Equal(t, domain.ClaimValueTypeString, c.ValueType)
		}
	}
}

func TestProfileIdentity_DisplayNameIsTrimmed(t *testing.T) {
	id := domain.NewProfileIdentity(AuthenticationType, domain.UserProfile{Surname: "B"})
	assert.Equal(t, "B", id.Name())

	id = domain.NewProfileIdentity(AuthenticationType, domain.UserProfile{GivenName: "A"})
	assert.Equal(t, "A", id.Name())
	_, hasSurname := id.FindFirst(domain.ClaimSurname)
	assert.False(t, hasSurname)
}

func TestProfileIdentity_EmptyProfileHasNoClaims(t *testing.T) {
	id := domain.NewProfileIdentity(AuthenticationType, domain.UserProfile{})
	assert.Empty(t, id.Claims)
	assert.Equal(t, AuthenticationType, id.AuthenticationType)
}
