package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fccauth/internal/domain"
)

const self = "https://auth.example.com"

func TestResolve(t *testing.T) {
	a, err := NewAllowlist([]string{"https://app.example.com", " https://Admin.Example.com/ "})
	require.NoError(t, err)

	tests := []struct {
		name      string
		returnURL string
		want      string
		wantErr   bool
	}{
		{name: "empty", returnURL: "", want: self + "/"},
		{name: "local path", returnURL: "/account?tab=1", want: self + "/account?tab=1"},
		{name: "own origin", returnURL: self + "/x", want: self + "/x"},
		{name: "allowed origin", returnURL: "https://app.example.com/home", want: "https://app.example.com/home"},
		{name: "allowed origin any case", returnURL: "https://ADMIN.example.com/", want: "https://ADMIN.example.com/"},
		{name: "protocol relative", returnURL: "//evil.example.com/", wantErr: true},
		{name: "backslash trick", returnURL: "/\\evil.example.com", wantErr: true},
		{name: "other origin", returnURL: "https://evil.example.com/", wantErr: true},
		{name: "scheme mismatch", returnURL: "http://app.example.com/", wantErr: true},
		{name: "javascript", returnURL: "javascript:alert(1)", wantErr: true},
		{name: "relative without slash", returnURL: "account", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Resolve(self, tt.returnURL)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrReturnURLNotAllowed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewAllowlist_Invalid(t *testing.T) {
	for _, origin := range []string{"ftp://files.example.com", "https://", "https://app.example.com/path"} {
		_, err := NewAllowlist([]string{origin})
		assert.ErrorIs(t, err, domain.ErrInvalidConfig, origin)
	}
}

func TestAllowed_NilList(t *testing.T) {
	var a *Allowlist
	assert.False(t, a.Allowed("https://app.example.com"))
}
