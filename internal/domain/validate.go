package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Limits applied to persisted build orders.
const (
	MaxBuildOrderIDLen = 64
	MaxSteps           = 200
)

var buildOrderIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateBuildOrderID checks that an ID is safe to use as a file name.
func ValidateBuildOrderID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: build order id is required", ErrValidation)
	}
	if len(id) > MaxBuildOrderIDLen {
		return fmt.Errorf("%w: build order id exceeds max length of %d characters", ErrValidation, MaxBuildOrderIDLen)
	}
	if !buildOrderIDPattern.MatchString(id) {
		return fmt.Errorf("%w: build order id may only contain letters, numbers, '-' or '_'", ErrValidation)
	}
	return nil
}

// ValidateBuildOrder checks the whole order. A failing order is rejected as
// a whole; nothing is partially accepted.
func ValidateBuildOrder(o *BuildOrder) error {
	if o == nil {
		return fmt.Errorf("%w: build order is nil", ErrValidation)
	}
	if err := ValidateBuildOrderID(o.ID); err != nil {
		return err
	}
	if len(o.Steps) == 0 {
		return fmt.Errorf("%w: build order must contain at least one step", ErrValidation)
	}
	if err := validateSteps("", o.Steps); err != nil {
		return err
	}

	seen := make(map[string]bool, len(o.Branches))
	for _, br := range o.Branches {
		if strings.TrimSpace(br.ID) == "" {
			return fmt.Errorf("%w: branch %q is missing an id", ErrValidation, br.Name)
		}
		if seen[br.ID] {
			return fmt.Errorf("%w: duplicate branch id %q", ErrValidation, br.ID)
		}
		seen[br.ID] = true

		label := fmt.Sprintf("branch %s ", br.ID)
		if len(br.Steps) == 0 {
			return fmt.Errorf("%w: %shas no steps", ErrValidation, label)
		}
		if err := validateSteps(label, br.Steps); err != nil {
			return err
		}
		if br.StartStepIndex < 0 || br.StartStepIndex >= len(br.Steps) {
			return fmt.Errorf("%w: %sstart step index %d out of range [0, %d)",
				ErrValidation, label, br.StartStepIndex, len(br.Steps))
		}
	}
	return nil
}

func validateSteps(label string, steps []Step) error {
	if len(steps) > MaxSteps {
		return fmt.Errorf("%w: %sexceeds maximum of %d steps (has %d)", ErrValidation, label, MaxSteps, len(steps))
	}
	ids := make(map[string]bool, len(steps))
	for i, s := range steps {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("%w: %sstep %d is missing an id", ErrValidation, label, i+1)
		}
		if ids[s.ID] {
			return fmt.Errorf("%w: %sstep %d reuses id %q", ErrValidation, label, i+1, s.ID)
		}
		ids[s.ID] = true
		if strings.TrimSpace(s.Description) == "" {
			return fmt.Errorf("%w: %sstep %d is missing a description", ErrValidation, label, i+1)
		}
		if r := s.Resources; r != nil {
			if r.Food < 0 || r.Wood < 0 || r.Gold < 0 || r.Stone < 0 || r.Villagers < 0 || r.Builders < 0 {
				return fmt.Errorf("%w: %sstep %d has negative resource counts", ErrValidation, label, i+1)
			}
		}
	}
	return nil
}
