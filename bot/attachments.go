package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"wordler/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// MaxAttachmentSize is the largest screenshot downloaded for recognition
const MaxAttachmentSize = 6 << 20

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// httpDoer is satisfied by the session's *http.Client
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// isImageAttachment reports whether an attachment is a screenshot worth downloading
func isImageAttachment(a *discordgo.MessageAttachment) bool {
	if a == nil || a.Size > MaxAttachmentSize || a.URL == "" {
		return false
	}
	if strings.HasPrefix(strings.ToLower(a.ContentType), "image/") {
		return true
	}
	return imageExtensions[strings.ToLower(path.Ext(a.Filename))]
}

// messageConverter turns Discord messages into InboundMessages. Image
// attachments are downloaded only when the router asks for them.
type messageConverter struct {
	client httpDoer
}

// convert builds the InboundMessage for m. guildID fills in for REST history
// messages, which carry no guild.
func (c *messageConverter) convert(m *discordgo.Message, guildID string) models.InboundMessage {
	msg := models.InboundMessage{
		Text:      m.Content,
		MessageID: m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Timestamp: m.Timestamp.UTC(),
	}
	if msg.GuildID == "" {
		msg.GuildID = guildID
	}

	if m.Author != nil {
		msg.AuthorID = m.Author.ID
		msg.AuthorIsBot = m.Author.Bot
		msg.AuthorName = userDisplayName(m.Author)
	}
	if m.Member != nil && m.Member.Nick != "" {
		msg.AuthorName = m.Member.Nick
	}

	if len(m.Mentions) > 0 {
		msg.Mentions = make(map[string]string, len(m.Mentions))
		for _, u := range m.Mentions {
			if u != nil {
				msg.Mentions[u.ID] = userDisplayName(u)
			}
		}
	}

	for _, a := range m.Attachments {
		if !isImageAttachment(a) {
			continue
		}
		msg.Images = append(msg.Images, models.Attachment{
			Filename:    a.Filename,
			ContentType: a.ContentType,
			Fetch:       c.fetcher(m.ID, a),
		})
	}

	return msg
}

func (c *messageConverter) fetcher(messageID string, a *discordgo.MessageAttachment) func(ctx context.Context) ([]byte, error) {
	url, filename := a.URL, a.Filename
	return func(ctx context.Context) ([]byte, error) {
		data, err := c.download(ctx, url)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"message_id": messageID,
				"filename":   filename,
			}).Warn("Failed to download attachment")
			return nil, err
		}
		return data, nil
	}
}

// download fetches an attachment, refusing bodies over MaxAttachmentSize
func (c *messageConverter) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxAttachmentSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if len(data) > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment exceeds %d bytes", MaxAttachmentSize)
	}
	return data, nil
}

func userDisplayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}
