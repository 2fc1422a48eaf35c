// Package clock implementaciones de document.Clock.
package clock

import "time"

// SystemClock reloj de pared en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
