package services

import (
	"math/rand"
	"time"
)

// Pacer decides how long the worker sleeps between fetches. The target
// site's request budget is the shared resource here: jittered delays and
// the periodic cooldown keep the run's footprint under scraping-detection
// thresholds.
type Pacer struct {
	BaseWait       time.Duration
	CooldownEvery  int
	CooldownFactor int

	PageDelayMin time.Duration
	PageDelayMax time.Duration

	ConnBackoffMin time.Duration
	ConnBackoffMax time.Duration

	StartupDelayMax time.Duration

	rng *rand.Rand
}

// NewPacer returns a Pacer with the standard politeness bounds.
func NewPacer(baseWait time.Duration, cooldownEvery, cooldownFactor int) *Pacer {
	return &Pacer{
		BaseWait:        baseWait,
		CooldownEvery:   cooldownEvery,
		CooldownFactor:  cooldownFactor,
		PageDelayMin:    2 * time.Second,
		PageDelayMax:    8 * time.Second,
		ConnBackoffMin:  60 * time.Second,
		ConnBackoffMax:  120 * time.Second,
		StartupDelayMax: 30 * time.Minute,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListingDelay draws the sleep before fetching listing number index.
// The draw is uniform in [0.5·base, 1.5·base]; every CooldownEvery-th
// listing (index a nonzero multiple) it is stretched by CooldownFactor
// for a longer cooldown.
func (p *Pacer) ListingDelay(index int) time.Duration {
	d := p.uniform(p.BaseWait/2, p.BaseWait*3/2)
	if p.CooldownEvery > 0 && index != 0 && index%p.CooldownEvery == 0 {
		d *= time.Duration(p.CooldownFactor)
	}
	return d
}

// PageDelay draws the politeness sleep between search-result page fetches.
func (p *Pacer) PageDelay() time.Duration {
	return p.uniform(p.PageDelayMin, p.PageDelayMax)
}

// ConnectionBackoff draws the long 60–120 s wait used once after a
// listing fetch fails at the connection level.
func (p *Pacer) ConnectionBackoff() time.Duration {
	return p.uniform(p.ConnBackoffMin, p.ConnBackoffMax)
}

// StartupDelay draws the pre-run sleep that desynchronizes scheduled
// full runs. Test runs skip it.
func (p *Pacer) StartupDelay() time.Duration {
	return p.uniform(0, p.StartupDelayMax)
}

func (p *Pacer) uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(p.rng.Int63n(int64(max-min)))
}
