// Package curriculum holds the fixed list of daily tasks a learner can pick from.
//
// The list lives in curriculum.yaml, embedded into the binary at build time,
// so the server never needs the file on disk. Parse happens once; callers get
// a read-only *Curriculum they can share across goroutines.
package curriculum

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxDay is the last day of the curriculum. Days are numbered 1..MaxDay.
const MaxDay = 21

//go:embed curriculum.yaml
var defaultYAML []byte

// Entry is one day of the curriculum.
type Entry struct {
	Day         int    `yaml:"day" json:"dayNumber"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	GitHubURL   string `yaml:"-" json:"githubUrl"`
}

type file struct {
	Days []Entry `yaml:"days"`
}

// Curriculum is an immutable, day-indexed set of entries.
type Curriculum struct {
	entries []Entry
	byDay   map[int]Entry
}

// Default parses the embedded curriculum and fills in reference links
// under repoURL (e.g. ".../tree/main"). An empty repoURL leaves links blank.
func Default(repoURL string) (*Curriculum, error) {
	return Parse(defaultYAML, repoURL)
}

// Parse builds a Curriculum from YAML. Every entry needs a unique day in
// 1..MaxDay and a title.
func Parse(data []byte, repoURL string) (*Curriculum, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("curriculum: parsing yaml: %w", err)
	}
	if len(f.Days) == 0 {
		return nil, fmt.Errorf("curriculum: no days defined")
	}

	c := &Curriculum{byDay: make(map[int]Entry, len(f.Days))}
	for _, e := range f.Days {
		if e.Day < 1 || e.Day > MaxDay {
			return nil, fmt.Errorf("curriculum: day %d out of range 1..%d", e.Day, MaxDay)
		}
		if strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("curriculum: day %d has no title", e.Day)
		}
		if _, dup := c.byDay[e.Day]; dup {
			return nil, fmt.Errorf("curriculum: day %d defined twice", e.Day)
		}
		e.GitHubURL = ReferenceURL(repoURL, e.Day)
		c.byDay[e.Day] = e
		c.entries = append(c.entries, e)
	}
	sort.Slice(c.entries, func(i, j int) bool { return c.entries[i].Day < c.entries[j].Day })
	return c, nil
}

// All returns the entries in day order. The slice is a copy.
func (c *Curriculum) All() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Lookup returns the entry for day, if the curriculum defines it.
func (c *Curriculum) Lookup(day int) (Entry, bool) {
	e, ok := c.byDay[day]
	return e, ok
}

// Len reports how many days are defined.
func (c *Curriculum) Len() int { return len(c.entries) }

// ReferenceURL builds the per-day link, e.g. base + "/Day-04".
func ReferenceURL(base string, day int) string {
	base = strings.TrimRight(base, "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/Day-%02d", base, day)
}
