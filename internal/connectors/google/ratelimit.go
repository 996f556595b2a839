package google

import "github.com/custodia-labs/sercha-intake/internal/connectors/throttle"

// Service names a Google API with its own per-user quota.
type Service string

const (
	ServiceGmail Service = "gmail"
	ServiceDrive Service = "drive"
)

// quotas are conservative per-user rates. Gmail message gets cost several
// quota units each, so it runs slower than Drive's 10 requests per second.
var quotas = map[Service]struct {
	perSecond float64
	burst     int
}{
	ServiceGmail: {2, 5},
	ServiceDrive: {8, 10},
}

// NewRateLimiter returns a limiter paced for service. Unknown services get
// five requests per second.
func NewRateLimiter(service Service) *throttle.Limiter {
	q, ok := quotas[service]
	if !ok {
		return throttle.New(5, 10)
	}
	return throttle.New(q.perSecond, q.burst)
}
