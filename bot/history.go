package bot

import (
	"context"
	"fmt"

	"wordler/models"

	"github.com/bwmarrin/discordgo"
)

const historyPageSize = 100

// messageFetcher is the REST call the history iterator pages through
type messageFetcher interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// ChannelHistory iterates a channel's messages newest first, holding one
// page of 100 in memory at a time
type ChannelHistory struct {
	fetcher   messageFetcher
	converter *messageConverter
	channelID string
	guildID   string

	before string
	page   []*discordgo.Message
	done   bool
}

func newChannelHistory(fetcher messageFetcher, converter *messageConverter, channelID, guildID string) *ChannelHistory {
	return &ChannelHistory{
		fetcher:   fetcher,
		converter: converter,
		channelID: channelID,
		guildID:   guildID,
	}
}

// Next returns the next older message. ok is false once the channel start
// is reached.
func (h *ChannelHistory) Next(ctx context.Context) (models.InboundMessage, bool, error) {
	if len(h.page) == 0 {
		if h.done {
			return models.InboundMessage{}, false, nil
		}
		if err := ctx.Err(); err != nil {
			return models.InboundMessage{}, false, err
		}

		page, err := h.fetcher.ChannelMessages(h.channelID, historyPageSize, h.before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return models.InboundMessage{}, false, fmt.Errorf("failed to fetch messages before %q: %w", h.before, err)
		}
		if len(page) < historyPageSize {
			h.done = true
		}
		if len(page) == 0 {
			return models.InboundMessage{}, false, nil
		}
		h.before = page[len(page)-1].ID
		h.page = page
	}

	m := h.page[0]
	h.page[0] = nil
	h.page = h.page[1:]

	return h.converter.convert(m, h.guildID), true, nil
}
