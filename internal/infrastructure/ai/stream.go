package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
)

// readSSE yields content deltas from an OpenAI-style event stream.
// Malformed chunks are skipped.
func readSSE(ctx context.Context, body io.Reader) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		reader := bufio.NewReader(body)
		for {
			if err := ctx.Err(); err != nil {
				yield("", err)
				return
			}

			line, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				yield("", domain.NewNetworkError(0, "read stream", err))
				return
			}
			eof := err != nil

			line = strings.TrimSpace(line)
			if data, ok := strings.CutPrefix(line, "data:"); ok {
				data = strings.TrimSpace(data)
				if data == "[DONE]" {
					return
				}
				var chunk streamChunk
				if json.Unmarshal([]byte(data), &chunk) == nil && len(chunk.Choices) > 0 {
					if content := chunk.Choices[0].Delta.Content; content != "" {
						if !yield(content, nil) {
							return
						}
					}
				}
			}
			if eof {
				return
			}
		}
	}
}
