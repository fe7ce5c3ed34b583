package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/resume-ingest/constants"
	"github.com/joseph-ayodele/resume-ingest/internal/common"
)

// Extractor dispatches on the declared media type and normalizes the output.
type Extractor struct {
	decoders map[constants.MediaType]Decoder
	logger   *slog.Logger
}

type Option func(*Extractor)

// WithDecoder overrides the decoder for one media type.
func WithDecoder(mt constants.MediaType, d Decoder) Option {
	return func(e *Extractor) { e.decoders[mt] = d }
}

func NewExtractor(logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Extractor{
		decoders: map[constants.MediaType]Decoder{
			constants.MediaTypePDF:  DecoderFunc(DecodePDF),
			constants.MediaTypeDOCX: DecoderFunc(DecodeDOCX),
		},
		logger: logger,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract fails with ErrUnsupportedMediaType for anything but PDF and DOCX and
// with ErrExtractionFailed (cause attached) when the document cannot be decoded.
func (e *Extractor) Extract(ctx context.Context, data []byte, mediaType constants.MediaType) (Result, error) {
	start := time.Now()
	d, ok := e.decoders[mediaType]
	if !ok {
		e.logger.Error("extract.unsupported", "media_type", mediaType)
		return Result{}, common.NewAppError(common.CodeUnsupportedMedia,
			"unsupported media type: "+string(mediaType), nil)
	}

	e.logger.Debug("extract.start", "media_type", mediaType, "bytes", len(data))
	raw, err := d.Decode(ctx, data)
	if err != nil {
		e.logger.Error("extract.failed", "media_type", mediaType, "error", err)
		return Result{MediaType: mediaType}, common.NewAppError(common.CodeExtractionFailed,
			"failed to extract text from file", err)
	}

	res := Result{
		Text:      Normalize(raw),
		MediaType: mediaType,
		Duration:  time.Since(start),
	}
	if mediaType == constants.MediaTypePDF {
		res.Pages = pdfPageCount(data)
	}
	e.logger.Info("extract.ok",
		"media_type", mediaType,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds())
	return res, nil
}
