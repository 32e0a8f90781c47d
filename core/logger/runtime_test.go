package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextMetadata(t *testing.T) {
	ctx := WithUpdateMeta(WithRID(context.Background(), "rid-1"), 12, 42, -100)
	ctx = WithHandler(ctx, "afk.auto_reply")

	assert.Equal(t, "rid-1", RIDFrom(ctx))
	assert.Equal(t, 12, UpdateIDFrom(ctx))
	assert.Equal(t, int64(42), UserIDFrom(ctx))
	assert.Equal(t, int64(-100), ChatIDFrom(ctx))
	assert.Equal(t, "afk.auto_reply", HandlerFrom(ctx))

	empty := context.Background()
	assert.Empty(t, RIDFrom(empty))
	assert.Zero(t, UserIDFrom(empty))
	assert.Same(t, L, FromContext(nil))
}

func TestSanitizeDropsControlRunes(t *testing.T) {
	assert.Equal(t, "back\tsoon\n", Sanitize("back\x00\tsoon\u200b\n\x7f"))
	assert.Equal(t, "пере", SanitizeLimit("переговоры", 4))
	assert.Empty(t, SanitizeLimit("x", 0))
}

func TestCompactRID(t *testing.T) {
	assert.Equal(t, "z.10.1", CompactRID("35:36:1"))
	assert.Equal(t, "0.-2s.1", CompactRID("0:-100:1"))
	assert.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	assert.Equal(t, "1:x:2", CompactRID("1:x:2"))
}
