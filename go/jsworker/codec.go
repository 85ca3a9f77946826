package jsworker

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// maxChunkBytes is the maximum number of payload-or-result text bytes
// carried by a single PAYLOAD_CHUNK:/RESULT_CHUNK: line.
const maxChunkBytes = 1000

const resultChunkPrefix = "RESULT_CHUNK: "

// sentinel is a whole-line literal that drives the protocol state machine.
type sentinel string

const (
	sentinelReady     sentinel = "READY"
	sentinelPayloadOK sentinel = "PAYLOAD_OK"
	sentinelOK        sentinel = "OK"
)

// splitChunk splits s at the nearest byte boundary at or before
// maxChunkBytes that does not land inside a multi-byte UTF-8 rune,
// returning the chunk and the unconsumed remainder.
func splitChunk(s string) (chunk string, rest string) {
	if len(s) <= maxChunkBytes {
		return s, ""
	}
	n := maxChunkBytes
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n], s[n:]
}

// writePayloadChunks streams text to w as one or more PAYLOAD_CHUNK: lines
// bounded to maxChunkBytes of text each, followed by a PAYLOAD_END trailer.
func writePayloadChunks(w io.Writer, text string) error {
	for len(text) > 0 {
		var chunk string
		chunk, text = splitChunk(text)
		if _, err := fmt.Fprintf(w, "PAYLOAD_CHUNK: %s\n", chunk); err != nil {
			return fmt.Errorf("writing payload chunk: %w", err)
		}
	}
	if _, err := io.WriteString(w, "PAYLOAD_END\n"); err != nil {
		return fmt.Errorf("writing payload trailer: %w", err)
	}
	return nil
}

// awaitSentinel reads lines from r until a line exactly equal to want
// arrives, returning the concatenated text of any RESULT_CHUNK: lines seen
// along the way. alive is polled before every blocking read so a dead
// child fails fast rather than blocking forever on a closed pipe. Lines
// that are blank are ignored; any other non-matching line is passed to
// trace (which may be nil).
func awaitSentinel(r *bufio.Reader, want sentinel, alive func() bool, trace func(line string)) (string, error) {
	var buf strings.Builder
	for {
		if !alive() {
			return "", &ProtocolError{Awaited: string(want), ProcessDead: true}
		}

		line, err := r.ReadString('\n')
		trimmed := strings.TrimRight(line, "\n")

		switch {
		case trimmed == string(want):
			return buf.String(), nil
		case strings.HasPrefix(trimmed, resultChunkPrefix):
			buf.WriteString(strings.TrimSpace(strings.TrimPrefix(trimmed, resultChunkPrefix)))
		case trimmed == "":
			// blank line: ignored
		default:
			if trace != nil {
				trace(trimmed)
			}
		}

		if err != nil {
			return "", &ProtocolError{Awaited: string(want), Cause: err}
		}
	}
}
