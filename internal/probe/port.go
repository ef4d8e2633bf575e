package probe

import (
	"fmt"
	"math/rand/v2"
	"net"
)

// minPort and maxPort bound the ephemeral local port window documented
// for probe-proxy inbounds (§4.3 step 1).
const (
	minPort = 20000
	maxPort = 60000
)

// pickPort chooses an ephemeral local port uniformly at random from the
// documented window, retrying a handful of times if the chosen port turns
// out to be in use (rare, but the window is shared with every other
// concurrently-probed candidate).
func pickPort() (int, error) {
	const attempts = 20
	for i := 0; i < attempts; i++ {
		p := minPort + rand.IntN(maxPort-minPort+1)
		if isAvailable(p) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("probe: no available port in %d-%d after %d attempts", minPort, maxPort, attempts)
}

func isAvailable(port int) bool {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
