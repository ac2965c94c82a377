package persist

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agerun/agerun/internal/agency"
	"github.com/agerun/agerun/internal/agent"
	"github.com/agerun/agerun/internal/diag"
	"github.com/agerun/agerun/internal/method"
	"github.com/agerun/agerun/internal/methodology"
	"github.com/agerun/agerun/internal/value"
	"github.com/agerun/agerun/internal/valuejson"
)

// agencyLineCap bounds the serialized memory-tree line, generous
// enough for a deeply nested agent memory Map.
const agencyLineCap = 1 << 20

// SaveAgency writes every registered agent to path: next_id, an agent
// count, then per agent its id/method-name/method-version header and
// its memory tree as one compact JSON line (spec §4.I's agency file,
// extended per SPEC_FULL.md §6 Open Question 4 to round-trip memory —
// the v1 format's memory placeholder is replaced outright rather than
// kept alongside, since nothing still reads the placeholder).
func SaveAgency(path string, ag *agency.Agency) error {
	var sb strings.Builder
	ids := ag.AllIDs()
	fmt.Fprintf(&sb, "%d\n", ag.NextID())
	fmt.Fprintf(&sb, "%d\n", len(ids))
	for _, id := range ids {
		a := ag.Get(id)
		fmt.Fprintf(&sb, "%d %s %s\n", a.ID(), a.Method().Name(), a.Method().Version())
		memJSON, err := valuejson.Marshal(a.Memory())
		if err != nil {
			return fmt.Errorf("persist: marshal memory for agent %d: %w", a.ID(), err)
		}
		sb.Write(memJSON)
		sb.WriteByte('\n')
	}
	return writeAtomic(path, []byte(sb.String()))
}

// LoadAgency implements the same two-pass validate-then-load shape as
// LoadMethodology. reg resolves each agent's method reference; an
// agent whose method is no longer registered fails validation (rather
// than silently losing its method), which salvages the whole file.
func LoadAgency(path string, ag *agency.Agency, reg *methodology.Methodology) error {
	content, existed, err := readDecoded(path)
	if err != nil {
		return err
	}
	if !existed {
		return nil
	}

	lines := splitLines(content)
	parsed, verr := validateAgencyLines(lines, reg)
	if verr != nil {
		return backupAndRemove(path)
	}

	ag.Reset()
	maxID := int64(0)
	for _, entry := range parsed {
		restored := agent.Restore(entry.id, entry.method, value.NewMap(), entry.memory)
		ag.Restore(restored)
		if entry.id > maxID {
			maxID = entry.id
		}
	}
	ag.SetNextID(maxID + 1)
	return nil
}

type agentEntry struct {
	id     int64
	method *method.Method
	memory *value.Value
}

func validateAgencyLines(lines []string, reg *methodology.Methodology) ([]agentEntry, error) {
	pos := 0
	next := func() (string, bool) {
		if pos >= len(lines) {
			return "", false
		}
		l := lines[pos]
		pos++
		return l, true
	}

	nextIDLine, ok := next()
	if !ok {
		return nil, diag.Errorf(diag.PersistenceCorruption, "missing next_id")
	}
	if _, err := strconv.ParseInt(nextIDLine, 10, 64); err != nil {
		return nil, diag.Errorf(diag.PersistenceCorruption, "invalid next_id %q", nextIDLine)
	}

	countLine, ok := next()
	if !ok {
		return nil, diag.Errorf(diag.PersistenceCorruption, "missing agent count")
	}
	count, err := strconv.Atoi(countLine)
	if err != nil || count < 0 {
		return nil, diag.Errorf(diag.PersistenceCorruption, "invalid agent count %q", countLine)
	}

	var out []agentEntry
	for i := 0; i < count; i++ {
		header, ok := next()
		if !ok {
			return nil, diag.Errorf(diag.PersistenceCorruption, "missing agent header")
		}
		fields := strings.SplitN(header, " ", 3)
		if len(fields) != 3 {
			return nil, diag.Errorf(diag.PersistenceCorruption, "malformed agent header %q", header)
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil || id <= 0 {
			return nil, diag.Errorf(diag.PersistenceCorruption, "invalid agent id %q", fields[0])
		}
		m := reg.Get(fields[1], fields[2])
		if m == nil {
			return nil, diag.Errorf(diag.PersistenceCorruption, "agent %d references unknown method %s %s", id, fields[1], fields[2])
		}

		memLine, ok := next()
		if !ok || len(memLine) > agencyLineCap {
			return nil, diag.Errorf(diag.PersistenceCorruption, "invalid memory line for agent %d", id)
		}
		mem, err := valuejson.Unmarshal([]byte(memLine))
		if err != nil || !mem.IsMap() {
			return nil, diag.Errorf(diag.PersistenceCorruption, "invalid memory JSON for agent %d", id)
		}
		out = append(out, agentEntry{id: id, method: m, memory: mem})
	}
	return out, nil
}
