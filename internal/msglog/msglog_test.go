package msglog

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"github.com/mahlburgc/serialmon/events"
	"github.com/mahlburgc/serialmon/internal/config"
	"github.com/mahlburgc/serialmon/internal/record"
)

func newModel(t *testing.T, format string) Model {
	t.Helper()
	m := New(false, false, t.TempDir(), format)
	m.SetSize(80, 20)
	return m
}

func feed(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func rx(lines ...string) []tea.Msg {
	msgs := make([]tea.Msg, len(lines))
	for i, l := range lines {
		msgs[i] = events.SerialRxMsg{Conn: 1, Line: l}
	}
	return msgs
}

func TestLiveFilterIsViewOnly(t *testing.T) {
	m := newModel(t, config.FormatText)
	m = feed(m, events.LiveFilterMsg{Include: "boot", Exclude: "timeout"})
	m = feed(m, rx("boot ok", "error: timeout", "boot done")...)

	visible := m.Visible()
	if len(visible) != 3 {
		t.Fatalf("visible = %q", visible)
	}
	// first line is the filter banner
	if !strings.Contains(visible[0], "show: boot | hide: timeout") {
		t.Fatalf("banner = %q", visible[0])
	}
	if !slices.Equal(visible[1:], []string{"boot ok", "boot done"}) {
		t.Fatalf("visible = %q", visible[1:])
	}
	if m.Store().Len() != 3 {
		t.Fatalf("store len = %d, filtered lines must still be stored", m.Store().Len())
	}
}

func TestRenderHistory(t *testing.T) {
	m := newModel(t, config.FormatText)
	m = feed(m, events.LiveFilterMsg{Exclude: "timeout"})
	m = feed(m, rx("boot ok", "error: timeout", "boot done")...)

	m = feed(m, events.HistoryFilterMsg("timeout"))
	if got := m.Visible(); !slices.Equal(got, []string{"error: timeout"}) {
		t.Fatalf("history render = %q", got)
	}
	if len(m.Filter().Exclude) != 1 {
		t.Fatalf("history render changed the live filter")
	}

	m = feed(m, events.HistoryFilterMsg("  "))
	if got := m.Visible(); !slices.Equal(got, []string{"boot ok", "error: timeout", "boot done"}) {
		t.Fatalf("empty history render = %q", got)
	}
	if m.Store().Len() != 3 {
		t.Fatalf("render mutated the store")
	}
}

func TestHistoryFilterAppliesToNewLines(t *testing.T) {
	m := newModel(t, config.FormatText)
	m = feed(m, rx("boot ok")...)
	m = feed(m, events.HistoryFilterMsg("boot"))
	m = feed(m, rx("idle", "boot done")...)

	if got := m.Visible(); !slices.Equal(got, []string{"boot ok", "boot done"}) {
		t.Fatalf("visible = %q", got)
	}
}

func TestBannersAreNotRecords(t *testing.T) {
	m := newModel(t, config.FormatText)
	m = feed(m, events.InfoMsg("port mock is back, reconnecting"), events.ErrMsg{Err: os.ErrClosed})
	if m.Store().Len() != 0 {
		t.Fatalf("banners stored as records")
	}
	visible := m.Visible()
	if len(visible) != 2 || !strings.HasPrefix(visible[1], "--- [error] ") {
		t.Fatalf("visible = %q", visible)
	}
}

func TestClear(t *testing.T) {
	m := newModel(t, config.FormatText)
	m = feed(m, rx("a", "b")...)
	m.Clear()
	if m.Store().Len() != 0 || len(m.Visible()) != 0 {
		t.Fatalf("clear left data behind")
	}
}

func TestShowEscapes(t *testing.T) {
	m := New(false, true, t.TempDir(), config.FormatText)
	m = feed(m, rx("a\tb")...)
	if got := m.Visible(); got[0] != `"a\tb"` {
		t.Fatalf("visible = %q", got)
	}
}

func runSave(t *testing.T, m Model, visible bool) events.InfoMsg {
	t.Helper()
	msg := m.saveCmd(visible)()
	info, ok := msg.(events.InfoMsg)
	if !ok {
		t.Fatalf("save returned %T: %v", msg, msg)
	}
	return info
}

func savedFile(t *testing.T, dir, prefix string) []byte {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "serial_data_"+prefix+"*"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one %s export, got %v (%v)", prefix, matches, err)
	}
	raw, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestSaveText(t *testing.T) {
	m := newModel(t, config.FormatText)
	m = feed(m, events.LiveFilterMsg{Include: "boot"})
	m = feed(m, rx("boot ok", "idle")...)

	runSave(t, m, false)
	if got := string(savedFile(t, m.saveDir, "all_")); got != "boot ok\nidle\n" {
		t.Fatalf("all export = %q", got)
	}

	runSave(t, m, true)
	got := string(savedFile(t, m.saveDir, "visible_"))
	if !strings.HasSuffix(got, "boot ok\n") || strings.Contains(got, "idle") {
		t.Fatalf("visible export = %q", got)
	}
}

func TestSaveJSON(t *testing.T) {
	m := newModel(t, config.FormatJSON)
	m = feed(m, rx("boot ok", "boot done")...)

	runSave(t, m, false)
	var records []record.Record
	if err := json.Unmarshal(savedFile(t, m.saveDir, "all_"), &records); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if len(records) != 2 || records[0].Text != "boot ok" || records[1].Seq != 2 {
		t.Fatalf("records = %+v", records)
	}
}

func TestSaveEmpty(t *testing.T) {
	m := newModel(t, config.FormatText)
	if info := runSave(t, m, false); info != "no data to save" {
		t.Fatalf("info = %q", info)
	}
}

func TestScrollKeepsPositionOnNewLines(t *testing.T) {
	m := newModel(t, config.FormatText)
	for i := 0; i < 40; i++ {
		m = feed(m, rx("line")...)
	}
	m = feed(m, tea.KeyMsg{Type: tea.KeyPgUp})
	before := m.scrollIndex
	if before == 0 {
		t.Fatalf("PgUp did not scroll")
	}
	m = feed(m, rx("more")...)
	if m.scrollIndex != before+1 {
		t.Fatalf("scroll index = %d, want %d", m.scrollIndex, before+1)
	}
	m = feed(m, tea.KeyMsg{Type: tea.KeyEnd})
	if m.scrollIndex != 0 {
		t.Fatalf("end did not return to bottom")
	}
}

func TestWriteTempLines(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "edit-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := writeTempLines(f, []string{"a", "b"}); err != nil {
		t.Fatalf("writeTempLines: %v", err)
	}
	raw, err := os.ReadFile(f.Name())
	if err != nil || string(raw) != "a\nb\n" {
		t.Fatalf("content %q, err %v", raw, err)
	}
}

func TestWriteTempLinesRemovesFileOnFailure(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "edit-*.txt")
	if err != nil {
		t.Fatal(err)
	}
	// writes to a closed file fail
	f.Close()

	if err := writeTempLines(f, []string{"a"}); err == nil {
		t.Fatalf("write to closed file succeeded")
	}
	if _, err := os.Stat(f.Name()); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
