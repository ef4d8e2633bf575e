package logging

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var linePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z \[INFO\] tick complete`)

func TestEncodeEntry_MatchesDocumentedFormat(t *testing.T) {
	enc := newPlainLineEncoder()
	ent := zapcore.Entry{Level: zapcore.InfoLevel, Message: "tick complete"}

	buf, err := enc.EncodeEntry(ent, []zapcore.Field{zap.String("domain", "example.com")})
	require.NoError(t, err)

	line := buf.String()
	assert.Regexp(t, linePattern, line)
	assert.Contains(t, line, "domain=example.com")
	assert.Equal(t, byte('\n'), line[len(line)-1])
}

func TestClone_DoesNotShareContextFieldsWithParent(t *testing.T) {
	enc := newPlainLineEncoder().(*plainLineEncoder)
	enc.MapObjectEncoder.Fields["component"] = "dns"

	clone := enc.Clone().(*plainLineEncoder)
	clone.MapObjectEncoder.Fields["component"] = "probe"

	assert.Equal(t, "dns", enc.MapObjectEncoder.Fields["component"])
	assert.Equal(t, "probe", clone.MapObjectEncoder.Fields["component"])
}
