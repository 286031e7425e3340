// Package identity holds the chat identity a web visitor signed in with.
package identity

import (
	"context"

	"github.com/markbates/goth"
)

type ContextKey string

const Key ContextKey = "identity"

type Identity struct {
	Provider    string `json:"provider"`
	ExternalID  string `json:"externalId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

// FromGothUser prefers the provider nickname and falls back to the full name.
func FromGothUser(u goth.User) Identity {
	name := u.NickName
	if name == "" {
		name = u.Name
	}
	return Identity{
		Provider:    u.Provider,
		ExternalID:  u.UserID,
		DisplayName: name,
		AvatarURL:   u.AvatarURL,
	}
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(Key).(Identity)
	return id, ok
}
