package presenter

import (
	"errors"
	"fmt"
	"sync"
)

var errNoSurface = errors.New("no surface to observe")

// Observation keeps a height callback attached to a surface until Release.
type Observation struct {
	unsubscribe func()
	once        sync.Once
	released    bool
}

// Observe subscribes fn to surface height changes and delivers the current
// height immediately. If setup fails the partial subscription is released
// before returning.
func Observe(surface *Surface, fn func(height int)) (obs *Observation, err error) {
	if surface == nil {
		return nil, errNoSurface
	}

	unsubscribe, err := surface.OnHeightChange(fn)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	obs = &Observation{unsubscribe: unsubscribe}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("initial measurement: %v", p)
		}
		if err != nil {
			obs.Release()
			obs = nil
		}
	}()

	fn(surface.ContentHeight())
	return obs, nil
}

// Release detaches the observation. Safe to call more than once and on nil.
func (o *Observation) Release() {
	if o == nil {
		return
	}
	o.once.Do(func() {
		o.unsubscribe()
		o.released = true
	})
}

// Released reports whether Release has run.
func (o *Observation) Released() bool {
	return o == nil || o.released
}
