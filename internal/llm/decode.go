package llm

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/resume-ingest/internal/entity"
)

// DecodeResponse parses model text into an untyped JSON value. Only the
// sanitizer looks inside it.
func DecodeResponse(text string) (*structpb.Value, error) {
	v := &structpb.Value{}
	if err := protojson.Unmarshal([]byte(text), v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// ToValue converts typed data back into the untyped form Sanitize accepts.
func ToValue(p entity.ParsedData) (*structpb.Value, error) {
	b, err := json.Marshal(p.Normalized())
	if err != nil {
		return nil, fmt.Errorf("encode parsed data: %w", err)
	}
	return DecodeResponse(string(b))
}
