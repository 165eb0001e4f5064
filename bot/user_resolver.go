package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"wordler/application"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const memberPageSize = 1000

var (
	// ErrMemberNotFound means no guild member carries the handle
	ErrMemberNotFound = errors.New("member not found")
	// ErrAmbiguousHandle means several members carry the handle at the same priority
	ErrAmbiguousHandle = errors.New("handle matches more than one member")
)

// NameType represents the type of Discord name
type NameType int

const (
	NicknameType    NameType = iota // Server-specific nickname (highest priority)
	DisplayNameType                 // Global display name
	UsernameType                    // Username (lowest priority)
)

var namePriority = []NameType{NicknameType, DisplayNameType, UsernameType}

// String returns a human-readable name for the NameType
func (n NameType) String() string {
	switch n {
	case NicknameType:
		return "server nickname"
	case DisplayNameType:
		return "global display name"
	case UsernameType:
		return "username"
	default:
		return "unknown"
	}
}

// RateLimiter spaces out member list refreshes
type RateLimiter struct {
	mutex       sync.Mutex
	lastCall    time.Time
	minInterval time.Duration
}

// Wait waits if necessary to respect rate limits
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	elapsed := time.Since(rl.lastCall)
	if elapsed < rl.minInterval {
		waitTime := rl.minInterval - elapsed
		log.Debugf("Rate limiting: waiting %v before next API call", waitTime)

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	rl.lastCall = time.Now()
	return nil
}

// memberLister is the REST call used to page through guild members
type memberLister interface {
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
}

type nameEntry struct {
	userID      string
	displayName string
}

// guildNames indexes one guild's members by lowercase name per name type
type guildNames struct {
	byType  map[NameType]map[string][]nameEntry
	expires time.Time
}

// UserResolver resolves @handles from Wordle summary messages to guild
// members, caching the member list per guild
type UserResolver struct {
	members  memberLister
	cacheTTL time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]*guildNames

	rateLimiter *RateLimiter
}

var _ application.UserResolver = (*UserResolver)(nil)

// NewUserResolver creates a new user resolver
func NewUserResolver(members memberLister) *UserResolver {
	return &UserResolver{
		members:  members,
		cacheTTL: 5 * time.Minute,
		now:      time.Now,
		cache:    make(map[string]*guildNames),
		rateLimiter: &RateLimiter{
			minInterval: 1 * time.Second,
		},
	}
}

// ResolveHandle finds the member whose nickname, display name or username
// matches handle, case-insensitively, in that priority order
func (r *UserResolver) ResolveHandle(ctx context.Context, guildID, handle string) (*application.ResolvedUser, error) {
	name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(handle, "@")))
	if guildID == "" || name == "" {
		return nil, ErrMemberNotFound
	}

	names, err := r.guildNames(ctx, guildID)
	if err != nil {
		return nil, err
	}

	for _, nameType := range namePriority {
		matches := names.byType[nameType][name]
		switch len(matches) {
		case 0:
			continue
		case 1:
			log.WithFields(log.Fields{
				"handle":   handle,
				"user_id":  matches[0].userID,
				"matched":  nameType.String(),
				"guild_id": guildID,
			}).Debug("Resolved summary handle")
			return &application.ResolvedUser{UserID: matches[0].userID, DisplayName: matches[0].displayName}, nil
		default:
			return nil, fmt.Errorf("%w: %q (%s)", ErrAmbiguousHandle, handle, nameType)
		}
	}

	return nil, ErrMemberNotFound
}

// InvalidateCache drops a guild's cached members so the next lookup refetches
func (r *UserResolver) InvalidateCache(guildID string) {
	r.mu.Lock()
	delete(r.cache, guildID)
	r.mu.Unlock()
}

// guildNames returns the cached index or rebuilds it from the API
func (r *UserResolver) guildNames(ctx context.Context, guildID string) (*guildNames, error) {
	r.mu.RLock()
	names, ok := r.cache[guildID]
	r.mu.RUnlock()
	if ok && r.now().Before(names.expires) {
		return names, nil
	}

	members, err := r.fetchGuildMembers(ctx, guildID)
	if err != nil {
		return nil, err
	}

	names = buildNameIndex(members)
	names.expires = r.now().Add(r.cacheTTL)

	r.mu.Lock()
	r.cache[guildID] = names
	r.mu.Unlock()

	return names, nil
}

// fetchGuildMembers fetches all guild members with pagination
func (r *UserResolver) fetchGuildMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	var all []*discordgo.Member
	after := ""

	for {
		if err := r.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		batch, err := r.fetchMemberBatchWithRetry(ctx, guildID, after)
		if err != nil {
			return nil, err
		}

		for _, member := range batch {
			if member != nil && member.User != nil {
				all = append(all, member)
			}
		}

		if len(batch) < memberPageSize {
			break
		}

		last := batch[len(batch)-1]
		if last == nil || last.User == nil {
			log.Warnf("Unable to determine next pagination token, stopping at %d members", len(all))
			break
		}
		after = last.User.ID
	}

	log.WithFields(log.Fields{
		"guild_id": guildID,
		"members":  len(all),
	}).Debug("Fetched guild members")
	return all, nil
}

// fetchMemberBatchWithRetry fetches a batch of members with exponential backoff retry
func (r *UserResolver) fetchMemberBatchWithRetry(ctx context.Context, guildID string, after string) ([]*discordgo.Member, error) {
	const maxRetries = 3

	for attempt := 0; ; attempt++ {
		batch, err := r.members.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err == nil {
			return batch, nil
		}

		if !isRateLimitError(err) {
			return nil, fmt.Errorf("failed to fetch guild members: %w", err)
		}
		if attempt >= maxRetries {
			return nil, fmt.Errorf("exceeded max retries for rate limit: %w", err)
		}

		waitTime := time.Duration(1<<uint(attempt)) * time.Second
		log.Warnf("Hit rate limit, waiting %v before retry %d/%d", waitTime, attempt+1, maxRetries)

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// isRateLimitError checks if an error is a rate limit error
func isRateLimitError(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == 429 {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit")
}

// buildNameIndex indexes members by nickname, display name and username
func buildNameIndex(members []*discordgo.Member) *guildNames {
	names := &guildNames{byType: make(map[NameType]map[string][]nameEntry, len(namePriority))}
	for _, nameType := range namePriority {
		names.byType[nameType] = make(map[string][]nameEntry)
	}

	add := func(nameType NameType, name string, entry nameEntry) {
		key := strings.ToLower(name)
		if key == "" {
			return
		}
		names.byType[nameType][key] = append(names.byType[nameType][key], entry)
	}

	for _, member := range members {
		if member == nil || member.User == nil {
			continue
		}
		entry := nameEntry{userID: member.User.ID, displayName: member.DisplayName()}

		add(UsernameType, member.User.Username, entry)
		if member.User.GlobalName != "" && member.User.GlobalName != member.User.Username {
			add(DisplayNameType, member.User.GlobalName, entry)
		}
		if member.Nick != "" {
			add(NicknameType, member.Nick, entry)
		}
	}

	return names
}
