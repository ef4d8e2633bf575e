package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// placeholderPort and placeholderOutbound are the documented extension
// points of the operator-supplied probe-proxy template (§4.3, §6).
const (
	placeholderPort     = "{{PORT}}"
	placeholderOutbound = "{{OUTBOUND}}"
)

// renderTemplate substitutes {{PORT}} and {{OUTBOUND}} into template,
// textually -- the template is operator-authored JSON and the placeholders
// are plain tokens, so a string replace is cheap and sufficient (Design
// Notes, §9: "either is acceptable").
func renderTemplate(template string, port int, outboundJSON string) (string, error) {
	if !strings.Contains(template, placeholderPort) {
		return "", fmt.Errorf("probe: template missing %s", placeholderPort)
	}
	if !strings.Contains(template, placeholderOutbound) {
		return "", fmt.Errorf("probe: template missing %s", placeholderOutbound)
	}

	r := strings.NewReplacer(
		placeholderPort, strconv.Itoa(port),
		placeholderOutbound, outboundJSON,
	)
	return r.Replace(template), nil
}
