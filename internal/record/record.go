// Package record keeps every received line in arrival order and decides
// which of them reach the display.
package record

import (
	"strings"
	"time"
)

// Separator splits the live filter keyword text.
const Separator = ";"

type Record struct {
	Seq  uint64    `json:"seq"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Store is an append-only log of records. It is owned by the update loop and
// not safe for concurrent use.
type Store struct {
	records []Record
	seq     uint64
}

func (s *Store) Append(text string) Record {
	s.seq++
	r := Record{Seq: s.seq, Time: time.Now(), Text: text}
	s.records = append(s.records, r)
	return r
}

// Clear drops all records. Sequence numbers keep counting.
func (s *Store) Clear() {
	s.records = nil
}

func (s *Store) Len() int {
	return len(s.records)
}

// Render returns the records containing substr in arrival order. An empty
// substr returns the whole store. The result never aliases the store.
func (s *Store) Render(substr string) []Record {
	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if substr == "" || strings.Contains(r.Text, substr) {
			out = append(out, r)
		}
	}
	return out
}

// Filter is the live include/exclude keyword filter.
type Filter struct {
	Include []string
	Exclude []string
}

// ParseFilter splits include and exclude text on Separator, trims every
// keyword and drops empty ones.
func ParseFilter(include, exclude string) Filter {
	return Filter{
		Include: splitKeywords(include),
		Exclude: splitKeywords(exclude),
	}
}

func splitKeywords(text string) []string {
	var keywords []string
	for _, k := range strings.Split(text, Separator) {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// Match reports whether line passes the filter. Any exclude match rejects;
// otherwise a non-empty include set needs at least one match.
func (f Filter) Match(line string) bool {
	if containsAny(line, f.Exclude) {
		return false
	}
	if len(f.Include) > 0 {
		return containsAny(line, f.Include)
	}
	return true
}

func (f Filter) Empty() bool {
	return len(f.Include) == 0 && len(f.Exclude) == 0
}

// String describes the filter for the status banner.
func (f Filter) String() string {
	if f.Empty() {
		return "live filter cleared"
	}
	show := "[all]"
	if len(f.Include) > 0 {
		show = strings.Join(f.Include, ", ")
	}
	hide := "[none]"
	if len(f.Exclude) > 0 {
		hide = strings.Join(f.Exclude, ", ")
	}
	return "live filter updated | show: " + show + " | hide: " + hide
}

func containsAny(line string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(line, k) {
			return true
		}
	}
	return false
}
