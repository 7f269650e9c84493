package capability

import (
	"fmt"
	"strings"
)

// RiskLevel represents the privacy risk level of a capability grant.
type RiskLevel int

const (
	RiskNone RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "none"
	}
}

// RiskReport contains the overall risk assessment for a set of capabilities.
type RiskReport struct {
	RiskFactors []RiskFactor
	Level       RiskLevel
}

// RiskFactor describes a single risk element in a capability grant.
type RiskFactor struct {
	Description string
	Capability  Capability
	Level       RiskLevel
}

// IsBroad reports whether a capability name covers more than one concrete
// access right, such as wildcards or background variants.
func IsBroad(c Capability) bool {
	s := strings.ToLower(string(c))
	return strings.Contains(s, "*") ||
		strings.HasSuffix(s, "_always") ||
		strings.Contains(s, "background")
}

// AnalyzeRisk evaluates the risk level of a capability list.
// Capabilities missing from the catalog are rated medium.
func AnalyzeRisk(caps []Capability, catalog *Catalog) RiskReport {
	report := RiskReport{
		Level: RiskNone,
	}

	addFactor := func(level RiskLevel, desc string, c Capability) {
		if level > RiskNone {
			report.RiskFactors = append(report.RiskFactors, RiskFactor{
				Level:       level,
				Description: desc,
				Capability:  c,
			})
			if level > report.Level {
				report.Level = level
			}
		}
	}

	for _, c := range caps {
		info, ok := catalog.Get(c)
		if !ok {
			info = Info{Description: string(c), Risk: RiskMedium}
		}

		if IsBroad(c) {
			addFactor(RiskCritical, fmt.Sprintf("Broad access: %s", info.Description), c)
			continue
		}
		addFactor(info.Risk, info.Description, c)
	}

	return report
}
