package common

import (
	"bytes"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// DeferResponse sends a deferred response to give more time for processing
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: flags,
		},
	})
}

// FollowUpWithEmbed sends an embed as a follow-up message. A non-empty png
// is attached and shown as the embed image.
func FollowUpWithEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, png []byte, filename string, ephemeral bool) (*discordgo.Message, error) {
	params := &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
	}

	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	if len(png) > 0 {
		params.Files = []*discordgo.File{ImageFile(filename, png)}
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + filename}
	}

	return s.FollowupMessageCreate(i.Interaction, true, params)
}

// ChannelSender posts messages to a channel; *discordgo.Session implements it
type ChannelSender interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// SendEmbed posts an embed to a channel, attaching png as the embed image
// when present
func SendEmbed(s ChannelSender, channelID string, embed *discordgo.MessageEmbed, png []byte, filename string) (*discordgo.Message, error) {
	send := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}

	if len(png) > 0 {
		send.Files = []*discordgo.File{ImageFile(filename, png)}
		embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + filename}
	}

	return s.ChannelMessageSendComplex(channelID, send)
}

// ImageFile wraps PNG bytes as a Discord upload
func ImageFile(filename string, png []byte) *discordgo.File {
	return &discordgo.File{
		Name:        filename,
		ContentType: "image/png",
		Reader:      bytes.NewReader(png),
	}
}

// FollowUpWithSuccess sends a success message as a follow-up
func FollowUpWithSuccess(s *discordgo.Session, i *discordgo.InteractionCreate, message string, ephemeral bool) {
	params := &discordgo.WebhookParams{
		Content: "✅ " + message,
	}

	if ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}

	_, err := s.FollowupMessageCreate(i.Interaction, false, params)
	if err != nil {
		log.Errorf("Error sending follow-up success message: %v", err)
	}
}
