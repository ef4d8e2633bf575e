package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate_SubstitutesBothPlaceholders(t *testing.T) {
	tmpl := `{"inbound":{"port":{{PORT}}},"outbound":{{OUTBOUND}}}`
	out, err := renderTemplate(tmpl, 31337, `{"type":"vless"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"inbound":{"port":31337},"outbound":{"type":"vless"}}`, out)
}

func TestRenderTemplate_MissingPortPlaceholderIsError(t *testing.T) {
	_, err := renderTemplate(`{"outbound":{{OUTBOUND}}}`, 1, "{}")
	assert.Error(t, err)
}

func TestRenderTemplate_MissingOutboundPlaceholderIsError(t *testing.T) {
	_, err := renderTemplate(`{"port":{{PORT}}}`, 1, "{}")
	assert.Error(t, err)
}
