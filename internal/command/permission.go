package command

import (
	"fmt"
	"strings"
)

// Tier is a channel permission level
type Tier string

const (
	TierNone    Tier = "none"
	TierPublic  Tier = "public"
	TierPrivate Tier = "private"
	TierAdmin   Tier = "admin"
)

var tierRank = map[Tier]int{
	TierNone:    0,
	TierPublic:  1,
	TierPrivate: 2,
	TierAdmin:   3,
}

// ParseTier validates a tier name from configuration
func ParseTier(s string) (Tier, error) {
	tier := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tierRank[tier]; !ok {
		return "", fmt.Errorf("unknown permission tier: %q (must be none, public, private or admin)", s)
	}
	return tier, nil
}

// Allows reports whether a channel at tier t may run a command requiring tier required
func (t Tier) Allows(required Tier) bool {
	if t == TierNone {
		return false
	}
	return tierRank[t] >= tierRank[required]
}

// ChannelService resolves whether a channel may run commands of a tier
type ChannelService interface {
	HasPermission(channelName string, required Tier) bool
}

// ChannelTable is a ChannelService backed by a static channel → tier map.
// Channel names are matched case-insensitively.
type ChannelTable struct {
	channels    map[string]Tier
	defaultTier Tier
}

// NewChannelTable creates a table; channels not listed get defaultTier
func NewChannelTable(channels map[string]Tier, defaultTier Tier) *ChannelTable {
	copied := make(map[string]Tier, len(channels))
	for name, tier := range channels {
		copied[strings.ToLower(name)] = tier
	}
	return &ChannelTable{
		channels:    copied,
		defaultTier: defaultTier,
	}
}

// TierFor returns the tier configured for a channel
func (t *ChannelTable) TierFor(channelName string) Tier {
	if tier, ok := t.channels[strings.ToLower(channelName)]; ok {
		return tier
	}
	return t.defaultTier
}

// HasPermission implements ChannelService
func (t *ChannelTable) HasPermission(channelName string, required Tier) bool {
	return t.TierFor(channelName).Allows(required)
}
