package solar

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	meeussolar "github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"
)

// Ephemeris is the astronomical primitive the calculator delegates to.
//
// SunTimes returns zero times when the sun does not rise or set on the date.
// SunPosition returns azimuth measured westward from south and altitude, both
// in radians.
type Ephemeris interface {
	SunTimes(date time.Time, lat, lon float64) (sunrise, sunset time.Time, err error)
	SunPosition(t time.Time, lat, lon float64) (azimuth, altitude float64)
}

// Astronomical is the production Ephemeris: rise/set from go-sunrise, sun
// position from the Meeus algorithms.
type Astronomical struct{}

var _ Ephemeris = Astronomical{}

// SunTimes computes sunrise and sunset for the UTC calendar date of date.
func (Astronomical) SunTimes(date time.Time, lat, lon float64) (time.Time, time.Time, error) {
	y, m, d := date.UTC().Date()
	rise, set := sunrise.SunriseSunset(lat, lon, y, m, d)
	return rise, set, nil
}

// SunPosition computes the apparent horizontal position of the sun at t.
// ΔT (about a minute) is ignored.
func (Astronomical) SunPosition(t time.Time, lat, lon float64) (float64, float64) {
	jd := julian.TimeToJD(t.UTC())
	ra, dec := meeussolar.ApparentEquatorial(jd)
	st := sidereal.Apparent(jd)

	// Meeus counts longitude positive westward.
	az, alt := coord.EqToHz(ra, dec, unit.AngleFromDeg(lat), unit.AngleFromDeg(-lon), st)
	return az.Rad(), alt.Rad()
}
