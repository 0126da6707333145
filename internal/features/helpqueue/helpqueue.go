// Package helpqueue keeps the classroom help list: students put themselves
// in line and the teacher calls the next one.
package helpqueue

import (
	"fmt"
	"strings"
	"sync"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
)

const emptyQueue = "Hjälplistan är tom"

// Keywords that select the help queue
var Keywords = []string{"hjälp", "help", "visa"}

// Config holds help queue configuration
type Config struct {
	// TeacherRole is the role allowed to call the next student
	TeacherRole string
	Logger      *logging.Logger
}

// DefaultConfig returns default help queue configuration
func DefaultConfig() *Config {
	return &Config{TeacherRole: "teacher"}
}

// Feature is the help queue feature
type Feature struct {
	*interpreter.BaseFeature

	mu          sync.Mutex
	queue       []interpreter.Member
	teacherRole string
	logger      *logging.Logger
}

// New creates the help queue feature
func New(cfg *Config) (*Feature, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	f := &Feature{
		teacherRole: cfg.TeacherRole,
		logger:      cfg.Logger,
	}
	if f.teacherRole == "" {
		f.teacherRole = "teacher"
	}
	if f.logger == nil {
		f.logger = logging.New("helpqueue")
	}

	base, err := interpreter.NewFeature(interpreter.FeatureConfig{
		Matcher: interpreter.MatcherConfig{
			Category: interpreter.CategoryHelpQueue,
			Keywords: Keywords,
			Subcategories: map[string]interpreter.CommandSubcategory{
				"mig":   interpreter.SubcategoryEnqueue,
				"next":  interpreter.SubcategoryDequeue,
				"nästa": interpreter.SubcategoryDequeue,
				"först": interpreter.SubcategoryNextInQueue,
				"kö":    interpreter.SubcategoryListQueue,
				"kön":   interpreter.SubcategoryListQueue,
			},
		},
		Commands: map[interpreter.CommandSubcategory]interpreter.Action{
			interpreter.SubcategoryEnqueue:     interpreter.Interactive(f.Enqueue),
			interpreter.SubcategoryDequeue:     interpreter.Interactive(f.Dequeue),
			interpreter.SubcategoryNextInQueue: interpreter.Immediate(f.NextInQueue),
			interpreter.SubcategoryListQueue:   interpreter.Immediate(f.List),
		},
		MappedPronouns: []interpreter.PronounTag{interpreter.PronounInterrogative},
	})
	if err != nil {
		return nil, err
	}
	f.BaseFeature = base
	return f, nil
}

// Enqueue puts the author of msg last in line and reports the position
func (f *Feature) Enqueue(msg *interpreter.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for n, m := range f.queue {
		if m.ID == msg.Author.ID {
			return fmt.Sprintf("%s du står redan i kön på plats %d", msg.Author.Mention(), n+1), nil
		}
	}
	f.queue = append(f.queue, msg.Author)
	f.logger.Info("Member enqueued", "member", msg.Author.Name, "position", len(f.queue))
	return fmt.Sprintf("%s har plats %d", msg.Author.Mention(), len(f.queue)), nil
}

// Dequeue calls the next student. Only members with the teacher role may do
// this, and only from a channel.
func (f *Feature) Dequeue(msg *interpreter.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return emptyQueue, nil
	}
	if msg.Direct {
		return "Du kan bara utöva detta kommando i en av kanalerna, inte i PM.", nil
	}
	if !msg.Author.HasRole(f.teacherRole) {
		return fmt.Sprintf("%s, du saknar behörighet för detta", msg.Author.Mention()), nil
	}

	next := f.queue[0]
	f.queue = f.queue[1:]
	f.logger.Info("Member dequeued", "member", next.Name, "remaining", len(f.queue))
	return fmt.Sprintf("Näst på kö är %s. %s", next.Mention(), remaining(len(f.queue))), nil
}

func remaining(n int) string {
	switch {
	case n == 0:
		return emptyQueue
	case n == 1:
		return "Det finns 1 person på hjälplistan"
	default:
		return fmt.Sprintf("Det finns %d personer på hjälplistan", n)
	}
}

// NextInQueue names the next student without removing them
func (f *Feature) NextInQueue() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return emptyQueue, nil
	}
	return fmt.Sprintf("Näst på kö är %s", f.queue[0].Mention()), nil
}

// List returns every queued member with their position
func (f *Feature) List() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return emptyQueue, nil
	}
	lines := make([]string, len(f.queue))
	for i, m := range f.queue {
		lines[i] = fmt.Sprintf("Plats **%d**: %s", i+1, m.Mention())
	}
	return strings.Join(lines, "\n"), nil
}

// Summary is polled by the teacher notifier; it changes whenever the queue
// does.
func (f *Feature) Summary() (string, error) {
	return f.List()
}

// Len returns the number of queued members
func (f *Feature) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
