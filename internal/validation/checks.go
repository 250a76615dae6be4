package validation

import (
	"errors"
	"fmt"
	"time"

	"tsflow/pkg/contracts/domain"
)

func joinDefects(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.Join(errs...)
}

// All runs every check and reports all of their defects.
func All(checks ...CheckFunc) CheckFunc {
	return func(a *domain.Atom) error {
		var errs []error
		for _, check := range checks {
			if err := check(a); err != nil {
				errs = append(errs, err)
			}
		}
		return joinDefects(errs)
	}
}

// RequireNonNull reports keys that are absent or null.
func RequireNonNull(keys ...string) CheckFunc {
	return func(a *domain.Atom) error {
		var missing []string
		for _, k := range keys {
			if v, ok := a.Get(k); !ok || v == nil {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return NewNullError(missing...)
		}
		return nil
	}
}

// RequirePositive reports present values that are not strictly positive.
// Absent and null values are left to RequireNonNull.
func RequirePositive(keys ...string) CheckFunc {
	return func(a *domain.Atom) error {
		var errs []error
		for _, k := range keys {
			v, ok := a.Get(k)
			if !ok || v == nil {
				continue
			}
			f, ok := domain.ToFloat(v)
			switch {
			case !ok:
				errs = append(errs, NewValueError(k, v))
			case !(f > 0):
				errs = append(errs, NewRangeError(k, v, "(0, +inf)"))
			}
		}
		return joinDefects(errs)
	}
}

// RequireRange reports values of key outside [lo, hi].
func RequireRange(key string, lo, hi float64) CheckFunc {
	return func(a *domain.Atom) error {
		v, ok := a.Get(key)
		if !ok || v == nil {
			return nil
		}
		f, ok := domain.ToFloat(v)
		if !ok {
			return NewValueError(key, v)
		}
		if f < lo || f > hi {
			return NewRangeError(key, v, fmt.Sprintf("[%g, %g]", lo, hi))
		}
		return nil
	}
}

// RequireOneOf reports values of key outside the allowed set.
func RequireOneOf(key string, allowed ...any) CheckFunc {
	return func(a *domain.Atom) error {
		v, ok := a.Get(key)
		if !ok || v == nil {
			return nil
		}
		for _, want := range allowed {
			if domain.EqualValues(v, want) {
				return nil
			}
		}
		return NewValueError(key, v, allowed...)
	}
}

// RequireDateBetween reports timestamps of key outside the interval spanned by
// from and to, in either order. Unparseable timestamps are value errors.
func RequireDateBetween(key string, from, to time.Time, inclusive bool) CheckFunc {
	start, end := from, to
	if end.Before(start) {
		start, end = end, start
	}
	return func(a *domain.Atom) error {
		v, ok := a.Get(key)
		if !ok || v == nil {
			return nil
		}
		t, err := a.Time(key)
		if err != nil {
			return NewValueError(key, v)
		}
		in := t.After(start) && t.Before(end)
		if inclusive {
			in = !t.Before(start) && !t.After(end)
		}
		if !in {
			return NewRangeError(key, v, fmt.Sprintf("%s .. %s", domain.FormatTime(start), domain.FormatTime(end)))
		}
		return nil
	}
}
