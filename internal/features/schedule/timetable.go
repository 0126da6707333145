package schedule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/msto63/robbot/pkg/core/logging"
	"gopkg.in/yaml.v3"
)

// Lesson is one timetable entry
type Lesson struct {
	Name     string    `yaml:"name"`
	Location string    `yaml:"location"`
	Begin    time.Time `yaml:"begin"`
	End      time.Time `yaml:"end"`
}

type timetableFile struct {
	Lessons []Lesson `yaml:"lessons"`
}

// Timetable loads lessons from a YAML file and reloads it when the file
// changes on disk.
type Timetable struct {
	path string

	mu      sync.Mutex
	lessons []Lesson
	modTime time.Time
	loads   int
}

// NewTimetable loads the timetable at path
func NewTimetable(path string) (*Timetable, error) {
	t := &Timetable{path: path}
	if _, err := t.Lessons(); err != nil {
		return nil, err
	}
	return t, nil
}

// ParseTimetable decodes a timetable document and sorts it by start time
func ParseTimetable(data []byte) ([]Lesson, error) {
	var f timetableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse timetable: %w", err)
	}
	for i, l := range f.Lessons {
		if l.Begin.IsZero() || l.End.IsZero() {
			return nil, fmt.Errorf("lesson %d (%s): begin and end are required", i, l.Name)
		}
		if l.End.Before(l.Begin) {
			return nil, fmt.Errorf("lesson %d (%s): ends before it begins", i, l.Name)
		}
	}
	sort.SliceStable(f.Lessons, func(a, b int) bool { return f.Lessons[a].Begin.Before(f.Lessons[b].Begin) })
	return f.Lessons, nil
}

// Lessons returns all lessons sorted by start time
func (t *Timetable) Lessons() ([]Lesson, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	info, err := os.Stat(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat timetable: %w", err)
	}
	if t.lessons != nil && info.ModTime().Equal(t.modTime) {
		return t.lessons, nil
	}

	data, err := os.ReadFile(t.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timetable: %w", err)
	}
	lessons, err := ParseTimetable(data)
	if err != nil {
		return nil, err
	}
	if lessons == nil {
		lessons = []Lesson{}
	}
	t.lessons = lessons
	t.modTime = info.ModTime()
	t.loads++
	return lessons, nil
}

// Path returns the timetable file path
func (t *Timetable) Path() string { return t.path }

// Watch reloads the timetable whenever its file is written or recreated.
// The parent directory is watched so saves through a rename are seen.
// Watch blocks until ctx is done.
func (t *Timetable) Watch(ctx context.Context, logger *logging.Logger) error {
	if logger == nil {
		logger = logging.New("timetable")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(t.path), err)
	}
	target := filepath.Clean(t.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			lessons, err := t.reload()
			if err != nil {
				logger.Warn("Timetable reload failed", "path", t.path, "error", err)
				continue
			}
			logger.Info("Timetable reloaded", "path", t.path, "lessons", len(lessons))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Timetable watcher error", "error", err)
		}
	}
}

func (t *Timetable) reload() ([]Lesson, error) {
	t.mu.Lock()
	t.modTime = time.Time{}
	t.mu.Unlock()
	return t.Lessons()
}

func (t *Timetable) loadCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loads
}
