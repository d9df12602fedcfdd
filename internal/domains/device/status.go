package device

import (
	"math"
	"time"

	"github.com/xpanvictor/humidhub/internal/domains/user"
)

// BatteryLifeDays is the assumed lifetime of a sensor battery.
const BatteryLifeDays = 28

// Status is a device with display fields derived from its age
// @Description Device with estimated age and battery level
type Status struct {
	user.Device
	AgeDays        int     `json:"ageDays" example:"3"`
	BatteryPercent float64 `json:"batteryPercent" example:"89.29"`
}

// StatusOf derives the display fields for d at now. These are heuristics
// and are never stored.
func StatusOf(d user.Device, now time.Time) Status {
	if d.CreatedAt.IsZero() {
		return Status{Device: d, AgeDays: 0, BatteryPercent: 100}
	}
	days := AgeDays(d.CreatedAt, now)
	return Status{
		Device:         d,
		AgeDays:        days,
		BatteryPercent: BatteryPercent(days),
	}
}

// AgeDays is the number of whole days between createdAt and now.
func AgeDays(createdAt, now time.Time) int {
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / (24 * time.Hour))
}

// BatteryPercent estimates remaining battery for a device of the given age,
// rounded to two decimals and never below zero.
func BatteryPercent(ageDays int) float64 {
	pct := float64(BatteryLifeDays-ageDays) / BatteryLifeDays * 100
	if pct < 0 {
		return 0
	}
	return math.Round(pct*100) / 100
}
