package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/resume-ingest/constants"
)

// TextExtractor converts an uploaded document into normalized plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mediaType constants.MediaType) (Result, error)
}

// Decoder turns one document format into raw, un-normalized text.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (string, error)
}

// DecoderFunc adapts a plain function to Decoder.
type DecoderFunc func(ctx context.Context, data []byte) (string, error)

func (f DecoderFunc) Decode(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

type Result struct {
	Text      string
	MediaType constants.MediaType
	Pages     int // 0 when the format has no page notion
	Duration  time.Duration
}
