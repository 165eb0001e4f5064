package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembers struct {
	members []*discordgo.Member
	calls   int
	err     error
}

func (f *fakeMembers) GuildMembers(guildID string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	start := 0
	if after != "" {
		for i, m := range f.members {
			if m.User.ID == after {
				start = i + 1
			}
		}
	}
	end := start + limit
	if end > len(f.members) {
		end = len(f.members)
	}
	return f.members[start:end], nil
}

func member(id, username, globalName, nick string) *discordgo.Member {
	return &discordgo.Member{
		User: &discordgo.User{ID: id, Username: username, GlobalName: globalName},
		Nick: nick,
	}
}

func newTestResolver(members *fakeMembers) *UserResolver {
	r := NewUserResolver(members)
	r.rateLimiter.minInterval = 0
	return r
}

func TestUserResolver_ResolveHandle(t *testing.T) {
	members := &fakeMembers{members: []*discordgo.Member{
		member("1", "piplup_fan", "Piplup", ""),
		member("2", "turtwig", "", "Tree"),
		member("3", "chimchar", "Chimchar", "piplup"),
		member("4", "bidoof", "Bidoof", ""),
		member("5", "bidoof_two", "Bidoof", ""),
	}}
	r := newTestResolver(members)
	ctx := context.Background()

	tests := []struct {
		name       string
		handle     string
		expectedID string
		expectErr  error
	}{
		{"nickname beats display name", "@Piplup", "3", nil},
		{"username match", "turtwig", "2", nil},
		{"nickname match", "tree", "2", nil},
		{"case insensitive username", "PIPLUP_FAN", "1", nil},
		{"unknown handle", "@missingno", "", ErrMemberNotFound},
		{"ambiguous display name", "@bidoof", "", ErrAmbiguousHandle},
		{"empty handle", "@", "", ErrMemberNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := r.ResolveHandle(ctx, "guild", tt.handle)
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, user.UserID)
		})
	}

	assert.Equal(t, 1, members.calls, "member list is cached across lookups")
}

func TestUserResolver_DisplayNamePrefersNickname(t *testing.T) {
	r := newTestResolver(&fakeMembers{members: []*discordgo.Member{member("2", "turtwig", "Turt", "Tree")}})

	user, err := r.ResolveHandle(context.Background(), "guild", "turtwig")

	require.NoError(t, err)
	assert.Equal(t, "Tree", user.DisplayName)
}

func TestUserResolver_Paginates(t *testing.T) {
	var all []*discordgo.Member
	for i := 0; i < memberPageSize+5; i++ {
		all = append(all, member(fmt.Sprintf("%d", i+1), fmt.Sprintf("user%d", i+1), "", ""))
	}
	members := &fakeMembers{members: all}
	r := newTestResolver(members)

	user, err := r.ResolveHandle(context.Background(), "guild", "user1005")

	require.NoError(t, err)
	assert.Equal(t, "1005", user.UserID)
	assert.Equal(t, 2, members.calls)
}

func TestUserResolver_CacheExpiresAndInvalidates(t *testing.T) {
	members := &fakeMembers{members: []*discordgo.Member{member("1", "alice", "", "")}}
	r := newTestResolver(members)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := r.ResolveHandle(ctx, "guild", "alice")
	require.NoError(t, err)

	now = now.Add(r.cacheTTL + time.Second)
	_, err = r.ResolveHandle(ctx, "guild", "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, members.calls)

	r.InvalidateCache("guild")
	_, err = r.ResolveHandle(ctx, "guild", "alice")
	require.NoError(t, err)
	assert.Equal(t, 3, members.calls)
}

func TestUserResolver_FetchError(t *testing.T) {
	r := newTestResolver(&fakeMembers{err: errors.New("HTTP 403 Forbidden")})

	_, err := r.ResolveHandle(context.Background(), "guild", "alice")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMemberNotFound)
}

func TestIsRateLimitError(t *testing.T) {
	assert.True(t, isRateLimitError(errors.New("HTTP 429 Too Many Requests")))
	assert.True(t, isRateLimitError(errors.New("you are being rate limited")))
	assert.False(t, isRateLimitError(errors.New("HTTP 403 Forbidden")))
}
