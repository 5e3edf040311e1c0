// Command validate lints game data files: level documents under
// data/levels/ and authored logic events under data/events/. Run it in
// CI before shipping data changes.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/backroomlabs/backroom-engine/pkg/dice"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

var snakeCase = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

func main() {
	dataDir := "./data"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	v := &DataValidator{}
	v.validateLevels(filepath.Join(dataDir, "levels"))
	v.validateEvents(filepath.Join(dataDir, "events"))

	if len(v.errors) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed:\n%s\n", strings.Join(v.errors, "\n"))
		os.Exit(1)
	}
	fmt.Println("Data files are valid!")
}

type DataValidator struct {
	errors []string
}

func (v *DataValidator) errorf(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *DataValidator) validateLevels(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		v.errorf("failed to read %s: %v", dir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".md") {
			v.errorf("%s: level documents must have .md extension", name)
			continue
		}
		if !snakeCase.MatchString(strings.TrimSuffix(name, ".md")) {
			v.errorf("%s: level filename must be lowercase snake_case (e.g. level_0.md)", name)
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			v.errorf("%s: failed to read: %v", name, err)
			continue
		}
		if len(strings.TrimSpace(string(data))) == 0 {
			v.errorf("%s: level document is empty", name)
		}
	}
}

func (v *DataValidator) validateEvents(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		v.errorf("failed to read %s: %v", dir, err)
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := entry.Name()

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			v.errorf("%s: failed to read: %v", name, err)
			continue
		}

		decoder := json.NewDecoder(strings.NewReader(string(data)))
		decoder.DisallowUnknownFields()

		var ev game.LogicEvent
		if err := decoder.Decode(&ev); err != nil {
			v.errorf("%s: failed strict JSON unmarshaling: %v", name, err)
			continue
		}
		v.validateEvent(&ev, name)
	}
}

func (v *DataValidator) validateEvent(ev *game.LogicEvent, name string) {
	if ev.Name == "" {
		v.errorf("%s: event name is required", name)
	}

	sides, ok := dice.Sides(ev.DieType)
	if !ok {
		v.errorf("%s: unknown dice type %q", name, ev.DieType)
		sides = 20
	}

	covered := make([]bool, sides+1)
	for i, outcome := range ev.Outcomes {
		if len(outcome.Range) != 2 {
			v.errorf("%s: outcome %d range must have exactly 2 elements", name, i)
			continue
		}
		lo, hi := outcome.Range[0], outcome.Range[1]
		if lo > hi {
			v.errorf("%s: outcome %d range [%d,%d] has min greater than max", name, i, lo, hi)
			continue
		}
		if lo < 1 || hi > sides {
			v.errorf("%s: outcome %d range [%d,%d] exceeds %s bounds", name, i, lo, hi, ev.DieType)
			continue
		}
		for r := lo; r <= hi; r++ {
			if covered[r] {
				v.errorf("%s: outcome %d overlaps an earlier range at roll %d", name, i, r)
				break
			}
			covered[r] = true
		}
	}
}
