package models

import (
	"context"
	"errors"
	"time"
)

// Attachment is an image carried by a message. Data holds the payload when
// it is already in memory; otherwise Fetch downloads it on first use.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
	Fetch       func(ctx context.Context) ([]byte, error)
}

// Load returns the payload, downloading it through Fetch when needed
func (a *Attachment) Load(ctx context.Context) ([]byte, error) {
	if len(a.Data) > 0 {
		return a.Data, nil
	}
	if a.Fetch == nil {
		return nil, errors.New("attachment has no data")
	}
	data, err := a.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	a.Data = data
	return data, nil
}

// InboundMessage is a chat message already scoped to the Wordle channel
type InboundMessage struct {
	Text        string
	Images      []Attachment
	AuthorID    string
	AuthorName  string
	AuthorIsBot bool
	MessageID   string
	ChannelID   string
	GuildID     string
	Timestamp   time.Time
	// Mentions maps user IDs mentioned in the message to display names
	Mentions map[string]string
}

// Meta returns the attribution for a result extracted from this message
func (m InboundMessage) Meta(source ResultSource) ResultMeta {
	return ResultMeta{
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		MessageID:  m.MessageID,
		Timestamp:  m.Timestamp,
		Source:     source,
	}
}
