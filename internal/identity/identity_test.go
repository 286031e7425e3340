package identity

import (
	"context"
	"testing"

	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
)

func TestFromGothUser(t *testing.T) {
	tests := []struct {
		name string
		user goth.User
		want Identity
	}{
		{
			name: "nickname",
			user: goth.User{Provider: "discord", UserID: "123", NickName: "ace", Name: "Alice", AvatarURL: "https://cdn/a.png"},
			want: Identity{Provider: "discord", ExternalID: "123", DisplayName: "ace", AvatarURL: "https://cdn/a.png"},
		},
		{
			name: "falls back to name",
			user: goth.User{Provider: "discord", UserID: "456", Name: "Bob"},
			want: Identity{Provider: "discord", ExternalID: "456", DisplayName: "Bob"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromGothUser(tt.user))
		})
	}
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{ExternalID: "123"})
	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "123", got.ExternalID)
}
