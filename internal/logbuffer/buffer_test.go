package logbuffer

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferWrapsOldestFirst(t *testing.T) {
	b := New(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		b.Add(Entry{Message: msg})
	}

	all := b.All()
	require.Len(t, all, 3)
	assert.Equal(t, "b", all[0].Message)
	assert.Equal(t, "d", all[2].Message)
	assert.Equal(t, 3, b.Len())
}

func TestFind(t *testing.T) {
	b := New(10)
	b.Add(Entry{Level: "debug", Component: "timeline", Message: "timeline advanced"})
	b.Add(Entry{Level: "info", Component: "server", Message: "HTTP request"})
	b.Add(Entry{Level: "debug", Component: "timeline", Message: "step selected"})
	b.Add(Entry{Level: "debug", Component: "timeline", Message: "Timeline advanced"})

	assert.Len(t, b.Find(Query{Component: "timeline"}), 3)
	assert.Len(t, b.Find(Query{Level: "info"}), 1)
	assert.Len(t, b.Find(Query{Search: "ADVANCED"}), 2)

	newest := b.Find(Query{Component: "timeline", Limit: 1})
	require.Len(t, newest, 1)
	assert.Equal(t, "Timeline advanced", newest[0].Message)
}

func TestWriterCapturesZerolog(t *testing.T) {
	b := New(10)
	var fallback bytes.Buffer
	logger := zerolog.New(NewWriter(b, &fallback)).With().Timestamp().Logger()

	logger.Info().Str("component", "timeline").Int("index", 2).Msg("timeline advanced")

	all := b.All()
	require.Len(t, all, 1)
	assert.Equal(t, "info", all[0].Level)
	assert.Equal(t, "timeline", all[0].Component)
	assert.Equal(t, "timeline advanced", all[0].Message)
	assert.Equal(t, float64(2), all[0].Fields["index"])
	assert.False(t, all[0].Timestamp.IsZero())
	assert.Contains(t, fallback.String(), "timeline advanced")
}

func TestWriterSkipsNonJSON(t *testing.T) {
	b := New(10)
	n, err := NewWriter(b, nil).Write([]byte("plain text\n"))
	require.NoError(t, err)
	assert.Equal(t, 11, n)
	assert.Equal(t, 0, b.Len())
}
