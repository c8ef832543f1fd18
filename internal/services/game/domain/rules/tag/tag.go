// Package tag implements hierarchical, stackable tags ("status.burn") with
// optional durations.
package tag

import (
	"sort"
	"strings"
)

const separator = "."

// Entry is one tag's state. A nil Duration means permanent.
type Entry struct {
	Stacks    int    `json:"stacks"`
	Duration  *int   `json:"duration,omitempty"`
	Source    string `json:"source,omitempty"`
	Removable *bool  `json:"removable,omitempty"`
}

// IsRemovable reports whether cleanse-style effects may remove the tag.
func (e Entry) IsRemovable() bool {
	return e.Removable == nil || *e.Removable
}

// Container maps tag ids to entries. Operations never modify their input.
type Container map[string]Entry

// StackMode controls how stacks combine when a tag already exists.
type StackMode string

// DurationMode controls how durations combine when a tag already exists.
type DurationMode string

const (
	StackAdd     StackMode = "add"
	StackReplace StackMode = "replace"
	StackMax     StackMode = "max"

	DurationReplace DurationMode = "replace"
	DurationAdd     DurationMode = "add"
	DurationMax     DurationMode = "max"
)

// AddOptions configures Add. Zero Stacks means 1.
type AddOptions struct {
	Stacks       int
	Duration     *int
	Source       string
	Removable    *bool
	StackMode    StackMode
	DurationMode DurationMode
}

// IsMatch reports whether id equals pattern or is nested under it.
func IsMatch(id, pattern string) bool {
	if id == pattern {
		return true
	}
	return strings.HasPrefix(id, pattern+separator)
}

// Parent returns the parent tag id, if any.
func Parent(id string) (string, bool) {
	i := strings.LastIndex(id, separator)
	if i <= 0 {
		return "", false
	}
	return id[:i], true
}

// Depth returns the number of segments in id.
func Depth(id string) int {
	return len(strings.Split(id, separator))
}

func (c Container) clone() Container {
	out := make(Container, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Add adds or merges a tag.
func (c Container) Add(id string, opts AddOptions) Container {
	stacks := opts.Stacks
	if stacks == 0 {
		stacks = 1
	}
	out := c.clone()
	existing, ok := c[id]
	if !ok {
		out[id] = Entry{Stacks: stacks, Duration: copyInt(opts.Duration), Source: opts.Source, Removable: copyBool(opts.Removable)}
		return out
	}

	switch opts.StackMode {
	case StackReplace:
	case StackMax:
		stacks = max(existing.Stacks, stacks)
	default:
		stacks = existing.Stacks + stacks
	}

	var duration *int
	if opts.Duration != nil && existing.Duration != nil {
		d := *opts.Duration
		switch opts.DurationMode {
		case DurationAdd:
			d = *existing.Duration + d
		case DurationMax:
			d = max(*existing.Duration, d)
		}
		duration = &d
	}

	entry := Entry{Stacks: stacks, Duration: duration, Source: existing.Source, Removable: existing.Removable}
	if opts.Source != "" {
		entry.Source = opts.Source
	}
	if opts.Removable != nil {
		entry.Removable = copyBool(opts.Removable)
	}
	out[id] = entry
	return out
}

// Remove removes n stacks, or the whole tag when n <= 0 or n covers every stack.
func (c Container) Remove(id string, n int) Container {
	existing, ok := c[id]
	if !ok {
		return c
	}
	out := c.clone()
	if n <= 0 || existing.Stacks <= n {
		delete(out, id)
		return out
	}
	existing.Stacks -= n
	out[id] = existing
	return out
}

// RemoveByPattern removes every tag matching pattern.
func (c Container) RemoveByPattern(pattern string) Container {
	out := make(Container, len(c))
	for id, entry := range c {
		if !IsMatch(id, pattern) {
			out[id] = entry
		}
	}
	return out
}

// Has reports whether any tag matches pattern.
func (c Container) Has(pattern string) bool {
	if _, ok := c[pattern]; ok {
		return true
	}
	for id := range c {
		if IsMatch(id, pattern) {
			return true
		}
	}
	return false
}

// Stacks returns the stacks of an exact tag id.
func (c Container) Stacks(id string) int {
	return c[id].Stacks
}

// Match returns the ids matching pattern, sorted.
func (c Container) Match(pattern string) []string {
	var out []string
	for id := range c {
		if IsMatch(id, pattern) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// IDs returns every tag id, sorted.
func (c Container) IDs() []string {
	out := make([]string, 0, len(c))
	for id := range c {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Removable returns the ids of removable tags, sorted.
func (c Container) Removable() []string {
	var out []string
	for id, entry := range c {
		if entry.IsRemovable() {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// TickResult is the outcome of TickDurations.
type TickResult struct {
	Updated Container
	Expired []string
}

// TickDurations decrements every timed tag and drops those reaching zero.
func (c Container) TickDurations() TickResult {
	res := TickResult{Updated: make(Container, len(c))}
	for _, id := range c.IDs() {
		entry := c[id]
		if entry.Duration == nil {
			res.Updated[id] = entry
			continue
		}
		d := *entry.Duration - 1
		if d <= 0 {
			res.Expired = append(res.Expired, id)
			continue
		}
		entry.Duration = &d
		res.Updated[id] = entry
	}
	return res
}

// Int returns a pointer to v, for durations.
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for removability.
func Bool(v bool) *bool { return &v }

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	return Int(*v)
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	return Bool(*v)
}
