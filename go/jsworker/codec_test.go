package jsworker

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSplitChunkNeverExceedsMaxAndNeverSplitsARune(t *testing.T) {
	// A string whose 1000-byte boundary lands in the middle of a 3-byte
	// UTF-8 rune ("€" is 3 bytes): repeat it enough to cross the boundary.
	var s strings.Builder
	for s.Len() < maxChunkBytes+50 {
		s.WriteString("€")
	}
	text := s.String()

	var total int
	remaining := text
	for len(remaining) > 0 {
		var chunk string
		chunk, remaining = splitChunk(remaining)
		require.LessOrEqual(t, len(chunk), maxChunkBytes)
		require.True(t, utf8.ValidString(chunk), "chunk must not split a rune")
		total += len(chunk)
	}
	require.Equal(t, len(text), total)
}

func TestWritePayloadChunksRoundTrips(t *testing.T) {
	var s strings.Builder
	for s.Len() < 2500 {
		s.WriteString("abcdefghij")
	}
	text := s.String()

	var buf bytes.Buffer
	require.NoError(t, writePayloadChunks(&buf, text))

	r := bufio.NewReader(&buf)
	var reassembled strings.Builder
	var chunkCount int
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\n")
		if line == "PAYLOAD_END" {
			break
		}
		require.True(t, strings.HasPrefix(line, "PAYLOAD_CHUNK: "))
		chunk := strings.TrimPrefix(line, "PAYLOAD_CHUNK: ")
		require.LessOrEqual(t, len(chunk), maxChunkBytes)
		reassembled.WriteString(chunk)
		chunkCount++
		if err != nil {
			break
		}
	}

	require.Equal(t, text, reassembled.String())
	require.Greater(t, chunkCount, 1, "a >1000-byte payload must split across multiple chunks")
}

func TestWritePayloadChunksEmptyStillEmitsTrailer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writePayloadChunks(&buf, ""))
	require.Equal(t, "PAYLOAD_END\n", buf.String())
}

func TestAwaitSentinelReassemblesResultChunks(t *testing.T) {
	input := "RESULT_CHUNK: hello \n" +
		"\n" +
		"RESULT_CHUNK: world\n" +
		"some informational trace line\n" +
		"OK\n"

	r := bufio.NewReader(strings.NewReader(input))
	var traced []string
	result, err := awaitSentinel(r, sentinelOK, func() bool { return true }, func(line string) {
		traced = append(traced, line)
	})
	require.NoError(t, err)
	require.Equal(t, "helloworld", result)
	require.Equal(t, []string{"some informational trace line"}, traced)
}

func TestAwaitSentinelFailsFastWhenProcessDead(t *testing.T) {
	r := bufio.NewReader(strings.NewReader(""))
	_, err := awaitSentinel(r, sentinelOK, func() bool { return false }, nil)
	require.Error(t, err)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.True(t, protoErr.ProcessDead)
}

func TestAwaitSentinelFailsOnEOFBeforeSentinel(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("RESULT_CHUNK: partial\n"))
	_, err := awaitSentinel(r, sentinelOK, func() bool { return true }, nil)
	require.Error(t, err)

	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	require.False(t, protoErr.ProcessDead)
}
