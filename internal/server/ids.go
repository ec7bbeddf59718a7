package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dandibbert/pixvel/internal/shared"
)

// parseNovelID reads a novel identifier from a JSON value that may be either
// a number or a string, the two shapes clients send (the client-facing schema
// uses string IDs, the upstream numeric ones).
func parseNovelID(raw json.RawMessage) (int64, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, fmt.Errorf("%w: novelId", shared.ErrMissingArgument)
	}

	trimmed := bytes.Trim(raw, `"`)
	id, err := strconv.ParseInt(string(trimmed), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: novelId %s", shared.ErrInvalidInput, raw)
	}
	return id, nil
}
