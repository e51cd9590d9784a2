package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSubPaisaPrecision indicates an amount with more than two fractional digits.
var ErrSubPaisaPrecision = errors.New("amount has sub-paisa precision")

// Amount is a decimal monetary value carried verbatim as the server sent it.
// It is never converted through a float; gateway submissions use the exact
// server-provided digits.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*a = Amount(strings.TrimSpace(str))
		return nil
	}
	// Bare JSON number: keep the raw token to avoid a float round trip.
	*a = Amount(s)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

func (a Amount) String() string {
	return string(a)
}

func (a Amount) IsZero() bool {
	p, err := a.Paisa()
	return err == nil && p == 0
}

// Paisa converts the amount to the gateway minor unit (1 rupee = 100 paisa)
// using exact integer arithmetic.
func (a Amount) Paisa() (int64, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return 0, nil
	}
	// Catch the sign before splitting: "-0.50" parses to a zero whole part.
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount %q", s)
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	frac = strings.TrimRight(frac, "0")
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrSubPaisaPrecision, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return w*100 + f, nil
}

// Display trims trailing fractional zeros for presentation only:
// "500.00" -> "500", "10.50" -> "10.5". Submitted values are never trimmed.
func (a Amount) Display() string {
	s := strings.TrimSpace(string(a))
	if !strings.ContainsRune(s, '.') {
		return s
	}
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
