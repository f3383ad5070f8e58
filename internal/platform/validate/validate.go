// Package validate provides request field validation collected into a single
// error value, so handlers can return every problem at once instead of
// failing on the first one.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// FieldErrors maps field names to human-readable problems. It implements
// error so it can travel through normal error returns.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Checker accumulates field errors across a sequence of checks.
type Checker struct {
	errs FieldErrors
}

// New creates an empty Checker.
func New() *Checker {
	return &Checker{errs: FieldErrors{}}
}

func (c *Checker) add(field, msg string) {
	if _, exists := c.errs[field]; !exists {
		c.errs[field] = msg
	}
}

// Required records an error when value is empty or whitespace.
func (c *Checker) Required(field, value string) *Checker {
	if strings.TrimSpace(value) == "" {
		c.add(field, "is required")
	}
	return c
}

// Email records an error when value is non-empty and not a plausible email
// address.
func (c *Checker) Email(field, value string) *Checker {
	if value != "" && !emailPattern.MatchString(value) {
		c.add(field, "must be a valid email address")
	}
	return c
}

// Phone records an error when value is non-empty and not an E.164-style
// phone number.
func (c *Checker) Phone(field, value string) *Checker {
	if value != "" && !phonePattern.MatchString(value) {
		c.add(field, "must be a valid phone number")
	}
	return c
}

// OneOf records an error when value is non-empty and not in allowed.
func (c *Checker) OneOf(field, value string, allowed ...string) *Checker {
	if value == "" {
		return c
	}
	for _, a := range allowed {
		if value == a {
			return c
		}
	}
	c.add(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return c
}

// MinLen records an error when value is non-empty and shorter than n.
func (c *Checker) MinLen(field, value string, n int) *Checker {
	if value != "" && len(value) < n {
		c.add(field, fmt.Sprintf("must be at least %d characters", n))
	}
	return c
}

// MaxLen records an error when value is longer than n.
func (c *Checker) MaxLen(field, value string, n int) *Checker {
	if len(value) > n {
		c.add(field, fmt.Sprintf("must be at most %d characters", n))
	}
	return c
}

// Date records an error when value is non-empty and does not parse with the
// given layout.
func (c *Checker) Date(field, value, layout string) *Checker {
	if value == "" {
		return c
	}
	if _, err := time.Parse(layout, value); err != nil {
		c.add(field, fmt.Sprintf("must be a date in %s format", layout))
	}
	return c
}

// True records an error when the flag is false. Used for consent checkboxes
// that must be accepted.
func (c *Checker) True(field string, value bool, msg string) *Checker {
	if !value {
		c.add(field, msg)
	}
	return c
}

// Err returns the accumulated FieldErrors, or nil when every check passed.
func (c *Checker) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return c.errs
}

// Fields returns the accumulated errors map regardless of emptiness. Useful
// for building response payloads.
func (c *Checker) Fields() FieldErrors {
	return c.errs
}
