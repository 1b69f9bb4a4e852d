package classification

import (
	"sort"
	"strings"
)

// Scale is a governing body's ordered class list (best first) and the disciplines it governs.
type Scale struct {
	Body        string   `json:"body"`
	Disciplines []string `json:"disciplines"`
	Classes     []string `json:"classes"`
}

// Lowest returns the entry class of the scale.
func (s Scale) Lowest() string {
	return s.Classes[len(s.Classes)-1]
}

var scales = map[string]Scale{
	"NSCA": {Body: "NSCA", Disciplines: []string{"sporting", "fivestand"}, Classes: []string{"Master", "AA", "A", "B", "C", "D", "E"}},
	"ATA":  {Body: "ATA", Disciplines: []string{"trap"}, Classes: []string{"AA", "A", "B", "C", "D"}},
	"NSSA": {Body: "NSSA", Disciplines: []string{"skeet"}, Classes: []string{"AAA", "AA", "A", "B", "C", "D", "E"}},
}

// Lookup finds a scale by governing body code, ignoring case.
func Lookup(body string) (Scale, bool) {
	s, ok := scales[strings.ToUpper(strings.TrimSpace(body))]
	return s, ok
}

func Scales() []Scale {
	out := make([]Scale, 0, len(scales))
	for _, s := range scales {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Body < out[j].Body })
	return out
}
