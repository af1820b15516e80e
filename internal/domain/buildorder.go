// Package domain defines the core types and interfaces for the build order
// coach. All other packages depend on domain; domain depends on nothing.
package domain

// BuildOrder is an authored opening script: an ordered list of steps with
// expected timings, optionally with alternative continuations.
type BuildOrder struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Civilization string   `json:"civilization" yaml:"civilization"`
	Description  string   `json:"description" yaml:"description"`
	Difficulty   string   `json:"difficulty" yaml:"difficulty"`
	Steps        []Step   `json:"steps" yaml:"steps"`
	Enabled      bool     `json:"enabled" yaml:"enabled"`
	Pinned       bool     `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	Favorite     bool     `json:"favorite,omitempty" yaml:"favorite,omitempty"`
	Branches     []Branch `json:"branches,omitempty" yaml:"branches,omitempty"`
}

// Step is one checkpoint in a build order.
type Step struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Timing      string     `json:"timing,omitempty" yaml:"timing,omitempty"` // e.g. "4:30"
	Resources   *Resources `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// Branch is an alternative continuation selectable mid-session, e.g.
// "opponent went fast castle".
type Branch struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Trigger        string `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	StartStepIndex int    `json:"startStepIndex" yaml:"startStepIndex"`
	Steps          []Step `json:"steps" yaml:"steps"`
}

// Resources is the villager allocation snapshot attached to a step.
type Resources struct {
	Food      int `json:"food,omitempty" yaml:"food,omitempty"`
	Wood      int `json:"wood,omitempty" yaml:"wood,omitempty"`
	Gold      int `json:"gold,omitempty" yaml:"gold,omitempty"`
	Stone     int `json:"stone,omitempty" yaml:"stone,omitempty"`
	Villagers int `json:"villagers,omitempty" yaml:"villagers,omitempty"`
	Builders  int `json:"builders,omitempty" yaml:"builders,omitempty"`
}

// DisplayName returns the name, falling back to the ID for unnamed orders.
func (b *BuildOrder) DisplayName() string {
	if b.Name != "" {
		return b.Name
	}
	return b.ID
}

// Branch returns the branch with the given ID.
func (b *BuildOrder) Branch(id string) (*Branch, bool) {
	for i := range b.Branches {
		if b.Branches[i].ID == id {
			return &b.Branches[i], true
		}
	}
	return nil, false
}

// Sequence returns the steps of the main sequence, or of the given branch
// when branchID is non-empty and exists.
func (b *BuildOrder) Sequence(branchID string) []Step {
	if branchID == "" {
		return b.Steps
	}
	if br, ok := b.Branch(branchID); ok {
		return br.Steps
	}
	return b.Steps
}

// Clone returns a deep copy. Build orders handed between the loop and its
// consumers are always copies so nobody mutates a shared snapshot.
func (b *BuildOrder) Clone() *BuildOrder {
	out := *b
	out.Steps = cloneSteps(b.Steps)
	if b.Branches != nil {
		out.Branches = make([]Branch, len(b.Branches))
		for i, br := range b.Branches {
			br.Steps = cloneSteps(br.Steps)
			out.Branches[i] = br
		}
	}
	return &out
}

func cloneSteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	out := make([]Step, len(steps))
	for i, s := range steps {
		if s.Resources != nil {
			r := *s.Resources
			s.Resources = &r
		}
		out[i] = s
	}
	return out
}

// CloneOrders deep-copies a list of build orders.
func CloneOrders(orders []BuildOrder) []BuildOrder {
	if orders == nil {
		return nil
	}
	out := make([]BuildOrder, len(orders))
	for i := range orders {
		out[i] = *orders[i].Clone()
	}
	return out
}
