package application

import (
	"context"
	"errors"
	"testing"

	"wordler/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const share = "Wordle 986 3/6\n⬛🟨⬛⬛⬛\n⬛🟩🟩⬛🟨\n🟩🟩🟩🟩🟩"

func newTestRouter(recognizer Recognizer, resolver UserResolver, metrics MetricsRecorder) *ResultRouter {
	parser := NewGridParser()
	var extractor *ImageGridExtractor
	if recognizer != nil {
		extractor = NewImageGridExtractor(recognizer, parser)
	}
	return NewResultRouter(parser, extractor, resolver, metrics)
}

func withImage(msg models.InboundMessage) models.InboundMessage {
	msg.Images = []models.Attachment{{Filename: "board.png", ContentType: "image/png", Data: []byte("png")}}
	return msg
}

func TestResultRouter_TextShare(t *testing.T) {
	metrics := newCountingMetrics()
	recognizer := &stubRecognizer{text: "Wordle 986 1/6\nGGGGG"}
	router := newTestRouter(recognizer, nil, metrics)

	result, ok := router.Route(context.Background(), withImage(textMessage("m-1", "111", share)))
	require.True(t, ok)

	assert.Equal(t, models.SourceText, result.Source)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 0, recognizer.calls, "text path wins before the oracle runs")
	assert.Equal(t, 1, metrics.routed["text"])
}

// lazyImages returns attachments that count their downloads
func lazyImages(fetches *int, payloads ...[]byte) []models.Attachment {
	images := make([]models.Attachment, len(payloads))
	for i, payload := range payloads {
		images[i] = models.Attachment{
			Filename: "board.png",
			Fetch: func(ctx context.Context) ([]byte, error) {
				*fetches++
				if payload == nil {
					return nil, errors.New("HTTP 404")
				}
				return payload, nil
			},
		}
	}
	return images
}

func TestResultRouter_TextShareSkipsDownloads(t *testing.T) {
	fetches := 0
	router := newTestRouter(&stubRecognizer{text: "Wordle 986 1/6\nGGGGG"}, nil, nil)

	msg := textMessage("m-9", "111", share)
	msg.Images = lazyImages(&fetches, []byte("png"))

	_, ok := router.Route(context.Background(), msg)
	require.True(t, ok)
	assert.Equal(t, 0, fetches)
}

func TestResultRouter_FailedDownloadTriesNextImage(t *testing.T) {
	fetches := 0
	metrics := newCountingMetrics()
	recognizer := &stubRecognizer{text: "Wordle 986 1/6\nGGGGG"}
	router := newTestRouter(recognizer, nil, metrics)

	msg := textMessage("m-10", "111", "")
	msg.Images = lazyImages(&fetches, nil, []byte("png"))

	result, ok := router.Route(context.Background(), msg)
	require.True(t, ok)
	assert.Equal(t, models.SourceImage, result.Source)
	assert.Equal(t, 2, fetches)
	assert.Equal(t, 1, recognizer.calls)
	assert.Equal(t, 1, metrics.extraction[string(ReasonDownload)])
}

func TestResultRouter_ImageFallback(t *testing.T) {
	metrics := newCountingMetrics()
	recognizer := &stubRecognizer{text: "Wordle 986 2/6\n..Y..\nGGGGG"}
	router := newTestRouter(recognizer, nil, metrics)

	msg := withImage(textMessage("m-2", "111", "Wordle 986 2/6\n🟩🟩🟥🟩🟩\n🟩🟩🟩🟩🟩"))
	results := router.RouteAll(context.Background(), msg)
	require.Len(t, results, 1)

	assert.Equal(t, models.SourceImage, results[0].Source)
	assert.Equal(t, 2, results[0].Attempts)
	assert.Equal(t, 1, metrics.parse[string(ReasonInvalidSymbol)])
	assert.Equal(t, 1, metrics.routed["image"])
}

func TestResultRouter_Chatter(t *testing.T) {
	metrics := newCountingMetrics()
	router := newTestRouter(&stubRecognizer{}, nil, metrics)

	results := router.RouteAll(context.Background(), textMessage("m-3", "111", "good morning everyone"))

	assert.Empty(t, results)
	assert.Empty(t, metrics.parse, "chatter without a header is not a parse failure")
	assert.Empty(t, metrics.routed)
}

func TestResultRouter_ExtractionFailure(t *testing.T) {
	metrics := newCountingMetrics()
	router := newTestRouter(&stubRecognizer{err: testError("timeout")}, nil, metrics)

	_, ok := router.Route(context.Background(), withImage(textMessage("m-4", "111", "")))

	assert.False(t, ok)
	assert.Equal(t, 1, metrics.extraction[string(ReasonOracle)])
}

func TestResultRouter_ImagesIgnoredWithoutExtractor(t *testing.T) {
	router := newTestRouter(nil, nil, nil)

	_, ok := router.Route(context.Background(), withImage(textMessage("m-5", "111", "")))
	assert.False(t, ok)
}

func TestResultRouter_CancelledContextSkipsImages(t *testing.T) {
	recognizer := &stubRecognizer{text: "Wordle 986 1/6\nGGGGG"}
	router := newTestRouter(recognizer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := router.Route(ctx, withImage(textMessage("m-6", "111", "")))
	assert.False(t, ok)
	assert.Equal(t, 0, recognizer.calls)
}

func TestResultRouter_Summary(t *testing.T) {
	metrics := newCountingMetrics()
	resolver := stubResolver{"piplup": {UserID: "333", DisplayName: "Piplup"}}
	router := newTestRouter(nil, resolver, metrics)

	msg := textMessage("m-7", "wordle-app", groupSummary)
	msg.AuthorIsBot = true

	results := router.RouteAll(context.Background(), msg)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, models.SourceSummary, r.Source)
	}
	assert.Equal(t, 1, metrics.routed["summary"])
}
