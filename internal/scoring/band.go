package scoring

import "github.com/vanshika/creditbridge/backend/internal/domain"

const (
	lowRiskFloor    = 70
	mediumRiskFloor = 40
)

// Band maps a score to its risk band: 70 and above is Low, 40 to 69 Medium,
// anything lower High.
func Band(score int) domain.RiskBand {
	switch {
	case score >= lowRiskFloor:
		return domain.RiskLow
	case score >= mediumRiskFloor:
		return domain.RiskMedium
	default:
		return domain.RiskHigh
	}
}
