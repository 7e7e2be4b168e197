package core

import "context"

// TextExtractor converts uploaded file bytes into plain text.
// The file name's extension selects the parsing strategy.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, fileName string) (string, error)
}
