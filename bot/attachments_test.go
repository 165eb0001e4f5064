package bot

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImageAttachment(t *testing.T) {
	tests := []struct {
		name       string
		attachment *discordgo.MessageAttachment
		expected   bool
	}{
		{"png content type", &discordgo.MessageAttachment{URL: "u", Filename: "board", ContentType: "image/png", Size: 1024}, true},
		{"extension only", &discordgo.MessageAttachment{URL: "u", Filename: "board.WEBP", Size: 1024}, true},
		{"text file", &discordgo.MessageAttachment{URL: "u", Filename: "notes.txt", ContentType: "text/plain", Size: 10}, false},
		{"exactly at limit", &discordgo.MessageAttachment{URL: "u", Filename: "big.png", Size: MaxAttachmentSize}, true},
		{"over limit", &discordgo.MessageAttachment{URL: "u", Filename: "huge.png", ContentType: "image/png", Size: MaxAttachmentSize + 1}, false},
		{"no url", &discordgo.MessageAttachment{Filename: "board.png", Size: 10}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isImageAttachment(tt.attachment))
		})
	}
}

func TestMessageConverter_Convert(t *testing.T) {
	png := []byte("\x89PNG fake board")
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/board.png":
			w.Write(png)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	converter := &messageConverter{client: server.Client()}
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("EST", -5*3600))

	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Content:   "Wordle 1,000 3/6",
		Timestamp: ts,
		Author:    &discordgo.User{ID: "u1", Username: "alice_01", GlobalName: "Alice"},
		Member:    &discordgo.Member{Nick: "Ali"},
		Mentions: []*discordgo.User{
			{ID: "u2", Username: "bob"},
			{ID: "u3", Username: "carol", GlobalName: "Carol C"},
		},
		Attachments: []*discordgo.MessageAttachment{
			{URL: server.URL + "/board.png", Filename: "board.png", ContentType: "image/png", Size: len(png)},
			{URL: server.URL + "/notes.txt", Filename: "notes.txt", ContentType: "text/plain", Size: 5},
			{URL: server.URL + "/missing.png", Filename: "missing.png", ContentType: "image/png", Size: 5},
		},
	}

	msg := converter.convert(m, "g1")

	assert.Equal(t, "Wordle 1,000 3/6", msg.Text)
	assert.Equal(t, "m1", msg.MessageID)
	assert.Equal(t, "c1", msg.ChannelID)
	assert.Equal(t, "g1", msg.GuildID, "history messages take the channel's guild")
	assert.Equal(t, "u1", msg.AuthorID)
	assert.Equal(t, "Ali", msg.AuthorName, "server nickname wins over global name")
	assert.Equal(t, time.UTC, msg.Timestamp.Location())
	assert.True(t, msg.Timestamp.Equal(ts))
	assert.Equal(t, map[string]string{"u2": "bob", "u3": "Carol C"}, msg.Mentions)

	require.Len(t, msg.Images, 2, "non-images are skipped")
	assert.Equal(t, int32(0), requests.Load(), "nothing is downloaded while converting")
	assert.Nil(t, msg.Images[0].Data)

	data, err := msg.Images[0].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, png, data)
	assert.Equal(t, png, msg.Images[0].Data, "the payload is kept after the first load")

	_, err = msg.Images[1].Load(context.Background())
	assert.ErrorContains(t, err, "unexpected status 404")
	assert.Equal(t, int32(2), requests.Load())
}

func TestMessageConverter_KeepsGatewayGuild(t *testing.T) {
	converter := &messageConverter{client: http.DefaultClient}
	m := &discordgo.Message{ID: "m1", GuildID: "gateway-guild", Author: &discordgo.User{ID: "u1", Username: "bot", Bot: true}}

	msg := converter.convert(m, "fallback")

	assert.Equal(t, "gateway-guild", msg.GuildID)
	assert.True(t, msg.AuthorIsBot)
	assert.Equal(t, "bot", msg.AuthorName)
	assert.Nil(t, msg.Mentions)
}

func TestMessageConverter_RejectsOversizedBody(t *testing.T) {
	// The declared size can lie; the body is capped while reading
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0}, MaxAttachmentSize+10))
	}))
	defer server.Close()

	converter := &messageConverter{client: server.Client()}
	_, err := converter.download(context.Background(), server.URL+"/huge.png")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}
