package probe

// HTTP status code constants.
const (
	StatusOK              = 200
	StatusNotFound        = 404
	StatusTooManyRequests = 429
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	RateLimitMaxRetries  = 5
	HammerBurstSize      = 30
)
