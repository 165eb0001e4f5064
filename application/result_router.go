package application

import (
	"context"
	"errors"

	"wordler/models"

	log "github.com/sirupsen/logrus"
)

// ResultRouter decides which extraction path applies to a message.
// Channel scoping happens before a message reaches the router.
type ResultRouter struct {
	parser    *GridParser
	extractor *ImageGridExtractor
	resolver  UserResolver
	metrics   MetricsRecorder
}

// NewResultRouter creates a new ResultRouter. extractor and resolver may be
// nil, which disables the image and summary paths.
func NewResultRouter(parser *GridParser, extractor *ImageGridExtractor, resolver UserResolver, metrics MetricsRecorder) *ResultRouter {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ResultRouter{
		parser:    parser,
		extractor: extractor,
		resolver:  resolver,
		metrics:   metrics,
	}
}

// Route returns the puzzle result carried by the message, trying the text
// first and then each attached image. Images are only downloaded once the
// text has failed. Non-puzzle chatter yields false.
func (r *ResultRouter) Route(ctx context.Context, msg models.InboundMessage) (models.PuzzleResult, bool) {
	if msg.Text != "" {
		result, err := r.parser.Parse(msg.Text, msg.Meta(models.SourceText))
		if err == nil {
			r.metrics.RecordMessageRouted(string(models.SourceText))
			return result, true
		}
		r.logFailure(msg, err)
	}

	if r.extractor != nil {
		for i := range msg.Images {
			if ctx.Err() != nil {
				return models.PuzzleResult{}, false
			}
			data, err := msg.Images[i].Load(ctx)
			if err != nil {
				r.logFailure(msg, &ExtractionFailure{Reason: ReasonDownload, Err: err})
				continue
			}
			result, err := r.extractor.Extract(ctx, data, msg.Meta(models.SourceImage))
			if err == nil {
				r.metrics.RecordMessageRouted(string(models.SourceImage))
				return result, true
			}
			r.logFailure(msg, err)
		}
	}

	return models.PuzzleResult{}, false
}

// RouteAll returns every result carried by the message: the author's own
// share, or the player entries of an official group summary
func (r *ResultRouter) RouteAll(ctx context.Context, msg models.InboundMessage) []models.PuzzleResult {
	if result, ok := r.Route(ctx, msg); ok {
		return []models.PuzzleResult{result}
	}

	results := summaryResults(ctx, msg, r.resolver)
	if len(results) > 0 {
		r.metrics.RecordMessageRouted(string(models.SourceSummary))
		log.WithFields(log.Fields{
			"message_id":    msg.MessageID,
			"total_results": len(results),
		}).Info("Wordle summary parsing complete")
	}
	return results
}

func (r *ResultRouter) logFailure(msg models.InboundMessage, err error) {
	var parseFailure *ParseFailure
	var extractionFailure *ExtractionFailure
	switch {
	case errors.As(err, &extractionFailure):
		r.metrics.RecordExtractionFailure(string(extractionFailure.Reason))
	case errors.As(err, &parseFailure):
		// Most channel chatter lands here
		if parseFailure.Reason != ReasonNoHeader {
			r.metrics.RecordParseFailure(string(parseFailure.Reason))
		}
	}

	log.WithError(err).WithFields(log.Fields{
		"message_id": msg.MessageID,
		"author_id":  msg.AuthorID,
	}).Debug("Message is not a Wordle result")
}
