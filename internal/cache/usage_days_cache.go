package cache

import (
	"time"

	usagedomain "github.com/smallbiznis/copilot-insights/internal/usage/domain"
)

// UsageDaysCache keeps decoded usage windows between dashboard requests.
type UsageDaysCache interface {
	Get(filter usagedomain.ListFilter) ([]usagedomain.Day, bool)
	Set(filter usagedomain.ListFilter, days []usagedomain.Day, ttl time.Duration)
	Purge()
}

type usageDaysCache struct {
	days Cache[usagedomain.ListFilter, []usagedomain.Day]
}

func NewUsageDaysCache() UsageDaysCache {
	return &usageDaysCache{days: NewTTLCache[usagedomain.ListFilter, []usagedomain.Day]()}
}

func (c *usageDaysCache) Get(filter usagedomain.ListFilter) ([]usagedomain.Day, bool) {
	return c.days.Get(filter)
}

func (c *usageDaysCache) Set(filter usagedomain.ListFilter, days []usagedomain.Day, ttl time.Duration) {
	c.days.Set(filter, days, ttl)
}

func (c *usageDaysCache) Purge() {
	c.days.Purge()
}
