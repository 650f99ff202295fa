package live

import (
	"context"
	"fmt"
)

const (
	addrParamNames = "/live/device/get/parameters/name"
	addrParamVals  = "/live/device/get/parameters/value"
	addrParamMins  = "/live/device/get/parameters/min"
	addrParamMaxes = "/live/device/get/parameters/max"
	addrSetParam   = "/live/device/set/parameter/value"
)

// Parameter is one automatable device parameter.
type Parameter struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// DeviceParameters returns every parameter of a device with its current
// value and range.
func (s *Session) DeviceParameters(ctx context.Context, track, device int) ([]Parameter, error) {
	if err := checkIndex("track", track); err != nil {
		return nil, err
	}
	if err := checkIndex("device", device); err != nil {
		return nil, err
	}

	names, err := s.queryIndexed(ctx, addrParamNames, track, device)
	if err != nil {
		return nil, err
	}
	params := make([]Parameter, len(names))
	for i := range names {
		params[i].Index = i
		if params[i].Name, err = stringAt(addrParamNames, names, i); err != nil {
			return nil, err
		}
	}

	for _, f := range []struct {
		address string
		set     func(p *Parameter, v float64)
	}{
		{addrParamVals, func(p *Parameter, v float64) { p.Value = v }},
		{addrParamMins, func(p *Parameter, v float64) { p.Min = v }},
		{addrParamMaxes, func(p *Parameter, v float64) { p.Max = v }},
	} {
		vals, err := s.queryIndexed(ctx, f.address, track, device)
		if err != nil {
			return nil, err
		}
		if len(vals) != len(params) {
			return nil, fmt.Errorf("%w: %s: %d values for %d parameters", ErrUnexpectedReply, f.address, len(vals), len(params))
		}
		for i := range vals {
			v, err := floatAt(f.address, vals, i)
			if err != nil {
				return nil, err
			}
			f.set(&params[i], v)
		}
	}
	return params, nil
}

// SetDeviceParameter sets a parameter to value, in the parameter's own
// range.
func (s *Session) SetDeviceParameter(track, device, param int, value float64) error {
	for _, idx := range []struct {
		name string
		v    int
	}{{"track", track}, {"device", device}, {"parameter", param}} {
		if err := checkIndex(idx.name, idx.v); err != nil {
			return err
		}
	}
	s.c.Send(addrSetParam, track, device, param, value)
	return nil
}
