package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// env reads typed values from a lookup function and collects the first
// parse error so Load can report it once.
type env struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *env) raw(k string) string {
	v, _ := e.lookup(k)
	return strings.TrimSpace(v)
}

func (e *env) fail(k, kind, v string) {
	if e.err == nil {
		e.err = fmt.Errorf("config: %s must be %s, got %q", k, kind, v)
	}
}

// String returns the value of k or d when unset.
func (e *env) String(k, d string) string {
	if v := e.raw(k); v != "" {
		return v
	}
	return d
}

// Int returns the integer value of k or d when unset.
func (e *env) Int(k string, d int) int {
	v := e.raw(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(k, "an integer", v)
		return d
	}
	return n
}

// Float returns the float value of k or d when unset.
func (e *env) Float(k string, d float64) float64 {
	v := e.raw(k)
	if v == "" {
		return d
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(k, "a number", v)
		return d
	}
	return f
}

// Bool accepts 1/t/true/y/yes and 0/f/false/n/no.
func (e *env) Bool(k string, d bool) bool {
	v := e.raw(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "t", "true", "y", "yes":
		return true
	case "0", "f", "false", "n", "no":
		return false
	default:
		e.fail(k, "a boolean", v)
		return d
	}
}

// Duration parses Go duration syntax ("1h", "90s").
func (e *env) Duration(k string, d time.Duration) time.Duration {
	v := e.raw(k)
	if v == "" {
		return d
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		e.fail(k, "a duration", v)
		return d
	}
	return dur
}

// List splits a comma-separated value, dropping empty items.
func (e *env) List(k string, d []string) []string {
	v := e.raw(k)
	if v == "" {
		return d
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func osLookup(k string) (string, bool) {
	return os.LookupEnv(k)
}
