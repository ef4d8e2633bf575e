package orchestrator

import (
	"os"

	"github.com/radin-mg/dnslb/internal/store"
)

// Status is the snapshot reported by the `status` command (§4.9).
type Status struct {
	Mode       store.Mode
	CurrentIP  string
	Domains    map[string]store.DomainEntry
	Candidates []store.CandidateConfig
	Health     map[string]store.HealthRecord
}

// Status gathers the full operator-facing snapshot.
func (o *Orchestrator) Status() (Status, error) {
	mode, err := o.Store.LoadMode()
	if err != nil {
		return Status{}, err
	}
	currentIP, err := o.Store.LoadCurrentIP()
	if err != nil {
		return Status{}, err
	}
	domains, err := o.Store.LoadDomains()
	if err != nil {
		return Status{}, err
	}
	candidates, err := o.Store.ListCandidates()
	if err != nil {
		return Status{}, err
	}
	h, err := o.Store.LoadHealth()
	if err != nil {
		return Status{}, err
	}

	return Status{
		Mode:       mode,
		CurrentIP:  currentIP,
		Domains:    domains,
		Candidates: candidates,
		Health:     h,
	}, nil
}

// SelfCheckResult reports the outcome of each self-check probe (§4.9).
type SelfCheckResult struct {
	ProbeBinaryOK   bool
	ProbeBinaryPath string
	TemplateOK      bool
	TemplatePath    string
	HetznerTokenSet bool
}

// SelfCheck verifies external binary availability and required
// environment presence, without touching the network.
func (o *Orchestrator) SelfCheck(hetznerTokenSet bool) SelfCheckResult {
	res := SelfCheckResult{
		ProbeBinaryPath: o.Runner.Binary(),
		TemplatePath:    o.Runner.TemplatePath(),
		HetznerTokenSet: hetznerTokenSet,
	}
	if _, err := os.Stat(res.ProbeBinaryPath); err == nil {
		res.ProbeBinaryOK = true
	}
	if _, err := os.Stat(res.TemplatePath); err == nil {
		res.TemplateOK = true
	}
	return res
}
