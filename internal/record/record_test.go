package record

import (
	"slices"
	"testing"
)

func texts(rs []Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Text
	}
	return out
}

func TestParseFilter(t *testing.T) {
	f := ParseFilter(" error; warning ;;", "debug;  ")
	if !slices.Equal(f.Include, []string{"error", "warning"}) {
		t.Fatalf("Include = %q", f.Include)
	}
	if !slices.Equal(f.Exclude, []string{"debug"}) {
		t.Fatalf("Exclude = %q", f.Exclude)
	}
	if !ParseFilter("  ", ";").Empty() {
		t.Fatalf("blank text must give an empty filter")
	}
}

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		name             string
		include, exclude string
		line             string
		want             bool
	}{
		{"empty filter passes", "", "", "anything", true},
		{"include hit", "boot", "", "boot ok", true},
		{"include miss", "boot", "", "error", false},
		{"any include", "x;boot", "", "boot ok", true},
		{"exclude hit", "", "timeout", "error: timeout", false},
		{"exclude dominates include", "boot", "ok", "boot ok", false},
		{"any exclude", "", "a;timeout", "error: timeout", false},
		{"case sensitive", "Boot", "", "boot ok", false},
		{"exclude without include match", "boot", "timeout", "error: timeout", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ParseFilter(tt.include, tt.exclude)
			if got := f.Match(tt.line); got != tt.want {
				t.Fatalf("Match(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestFilterOrderIndependent(t *testing.T) {
	a := ParseFilter("boot;error", "timeout;debug")
	b := ParseFilter("error;boot", "debug;timeout")
	for _, line := range []string{"boot ok", "error: timeout", "debug boot", "idle", "error"} {
		if a.Match(line) != b.Match(line) {
			t.Fatalf("keyword order changed decision for %q", line)
		}
	}
}

func TestLiveFilterExample(t *testing.T) {
	f := ParseFilter("boot", "timeout")
	var s Store
	var shown []string
	for _, line := range []string{"boot ok", "error: timeout", "boot done"} {
		s.Append(line)
		if f.Match(line) {
			shown = append(shown, line)
		}
	}
	if !slices.Equal(shown, []string{"boot ok", "boot done"}) {
		t.Fatalf("shown = %q", shown)
	}
	if s.Len() != 3 {
		t.Fatalf("excluded lines must still be stored, len = %d", s.Len())
	}
}

func TestStoreRender(t *testing.T) {
	var s Store
	for _, line := range []string{"boot ok", "error: timeout", "boot done", "boot ok"} {
		s.Append(line)
	}

	all := s.Render("")
	if !slices.Equal(texts(all), []string{"boot ok", "error: timeout", "boot done", "boot ok"}) {
		t.Fatalf("Render(\"\") = %q", texts(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Seq <= all[i-1].Seq {
			t.Fatalf("records out of arrival order: %v", all)
		}
	}

	first := s.Render("boot")
	second := s.Render("boot")
	if !slices.Equal(first, second) {
		t.Fatalf("Render is not idempotent")
	}
	if !slices.Equal(texts(first), []string{"boot ok", "boot done", "boot ok"}) {
		t.Fatalf("Render(boot) = %q", texts(first))
	}
	if s.Len() != 4 {
		t.Fatalf("Render mutated the store")
	}

	first[0].Text = "changed"
	if s.Render("")[0].Text != "boot ok" {
		t.Fatalf("Render result aliases the store")
	}

	s.Append("boot again")
	if got := len(s.Render("boot")); got != 4 {
		t.Fatalf("append between renders not reflected, got %d", got)
	}
}

func TestStoreClear(t *testing.T) {
	var s Store
	s.Append("a")
	s.Append("b")
	s.Clear()
	if s.Len() != 0 || len(s.Render("")) != 0 {
		t.Fatalf("Clear left records behind")
	}
	if r := s.Append("c"); r.Seq != 3 {
		t.Fatalf("sequence restarted after clear: %d", r.Seq)
	}
}

func TestFilterString(t *testing.T) {
	if got := ParseFilter("", "").String(); got != "live filter cleared" {
		t.Fatalf("got %q", got)
	}
	want := "live filter updated | show: [all] | hide: debug, info"
	if got := ParseFilter("", "debug;info").String(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
