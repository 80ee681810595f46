package main

import (
	"strconv"
	"time"
)

// interval parses either a Go duration ("3s", "1m") or a bare number of
// seconds ("3", "0.5").
type interval time.Duration

func (i *interval) UnmarshalText(text []byte) error {
	if secs, err := strconv.ParseFloat(string(text), 64); err == nil {
		*i = interval(time.Duration(secs * float64(time.Second)))

		return nil
	}

	d, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*i = interval(d)

	return nil
}
