// Package ranking lets members rank each other up and down and keeps a
// persistent high score list.
package ranking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/msto63/robbot/internal/interpreter"
	"github.com/msto63/robbot/pkg/core/logging"
)

const (
	optedOutReply = "Denna medlem har valt att gå ur ranking funktionen"
	diamonds      = ":small_orange_diamond::small_orange_diamond::small_orange_diamond::small_orange_diamond::small_orange_diamond:" +
		":small_orange_diamond::small_orange_diamond::small_orange_diamond::small_orange_diamond::small_orange_diamond:"
)

var medals = [...]string{":first_place:", ":second_place:", ":third_place:"}

// Keywords that select ranking
var Keywords = []string{"rank", "ranks"}

// Config holds ranking configuration
type Config struct {
	Store   Store
	Timeout time.Duration
	Logger  *logging.Logger
}

// Feature is the member ranking feature
type Feature struct {
	*interpreter.BaseFeature

	store   Store
	timeout time.Duration
	logger  *logging.Logger
}

// New creates the ranking feature on top of store
func New(cfg *Config) (*Feature, error) {
	if cfg == nil || cfg.Store == nil {
		return nil, fmt.Errorf("ranking: store is required")
	}
	f := &Feature{
		store:   cfg.Store,
		timeout: cfg.Timeout,
		logger:  cfg.Logger,
	}
	if f.timeout <= 0 {
		f.timeout = 5 * time.Second
	}
	if f.logger == nil {
		f.logger = logging.New("ranking")
	}

	base, err := interpreter.NewFeature(interpreter.FeatureConfig{
		Matcher: interpreter.MatcherConfig{
			Category: interpreter.CategoryRanking,
			Keywords: Keywords,
			Subcategories: map[string]interpreter.CommandSubcategory{
				"upp":  interpreter.SubcategoryRankUp,
				"up":   interpreter.SubcategoryRankUp,
				"ner":  interpreter.SubcategoryRankDown,
				"ned":  interpreter.SubcategoryRankDown,
				"down": interpreter.SubcategoryRankDown,
				"alla": interpreter.SubcategoryRankAll,
				"all":  interpreter.SubcategoryRankAll,
				"för":  interpreter.SubcategoryRankMember,
				"for":  interpreter.SubcategoryRankMember,
				"ur":   interpreter.SubcategoryRankOptOut,
				"ut":   interpreter.SubcategoryRankOptOut,
				"out":  interpreter.SubcategoryRankOptOut,
				"in":   interpreter.SubcategoryRankOptIn,
			},
		},
		Commands: map[interpreter.CommandSubcategory]interpreter.Action{
			interpreter.SubcategoryRankUp:     interpreter.Interactive(f.RankUp),
			interpreter.SubcategoryRankDown:   interpreter.Interactive(f.RankDown),
			interpreter.SubcategoryRankAll:    interpreter.Immediate(f.HighScore),
			interpreter.SubcategoryRankMember: interpreter.Interactive(f.RankFor),
			interpreter.SubcategoryRankOptOut: interpreter.Interactive(f.OptOut),
			interpreter.SubcategoryRankOptIn:  interpreter.Interactive(f.OptIn),
		},
	})
	if err != nil {
		return nil, err
	}
	f.BaseFeature = base
	return f, nil
}

func (f *Feature) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), f.timeout)
}

// RankUp adds one point to every mentioned member
func (f *Feature) RankUp(msg *interpreter.Message) (string, error) {
	return f.adjust(msg, 1, "ökade till")
}

// RankDown removes one point from every mentioned member
func (f *Feature) RankDown(msg *interpreter.Message) (string, error) {
	return f.adjust(msg, -1, "minskade till")
}

// adjust skips the author and stops at the first opted out member
func (f *Feature) adjust(msg *interpreter.Message, delta int, verb string) (string, error) {
	ctx, cancel := f.context()
	defer cancel()

	var lines []string
	for _, m := range msg.Mentions {
		if m.ID == msg.Author.ID {
			continue
		}
		out, err := f.store.OptedOut(ctx, m.ID)
		if err != nil {
			return "", err
		}
		if out {
			return optedOutReply, nil
		}
		score, err := f.store.Adjust(ctx, m.ID, m.Name, delta)
		if err != nil {
			return "", err
		}
		f.logger.Debug("Score adjusted", "member", m.Name, "delta", delta, "score", score)
		lines = append(lines, fmt.Sprintf("%s %s %d", m.Mention(), verb, score))
	}
	return strings.Join(lines, "\n"), nil
}

// RankFor reports the score of every mentioned member
func (f *Feature) RankFor(msg *interpreter.Message) (string, error) {
	ctx, cancel := f.context()
	defer cancel()

	var lines []string
	for _, m := range msg.Mentions {
		score, ok, err := f.store.Score(ctx, m.ID)
		if err != nil {
			return "", err
		}
		if !ok {
			lines = append(lines, m.Mention()+" har inte rankats")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s rankar %d", m.Mention(), score))
	}
	return strings.Join(lines, "\n"), nil
}

// HighScore lists every ranked member, the top three with medals
func (f *Feature) HighScore() (string, error) {
	ctx, cancel := f.context()
	defer cancel()

	scores, err := f.store.All(ctx)
	if err != nil {
		return "", err
	}
	if len(scores) == 0 {
		return "", nil
	}

	lines := []string{diamonds, "** H  I  G  H    S  C  O  R  E **"}
	for place, sc := range scores {
		emoji := ":star:"
		if place < len(medals) {
			emoji = medals[place]
		} else if place == len(medals) {
			lines = append(lines, diamonds, "")
		}
		lines = append(lines, fmt.Sprintf("%s **%s**: **%d**", emoji, sc.Name, sc.Score))
	}
	return strings.Join(lines, "\n"), nil
}

// OptOut removes the author from ranking
func (f *Feature) OptOut(msg *interpreter.Message) (string, error) {
	ctx, cancel := f.context()
	defer cancel()

	if err := f.store.OptOut(ctx, msg.Author.ID); err != nil {
		return "", err
	}
	f.logger.Info("Member opted out of ranking", "member", msg.Author.Name)
	return fmt.Sprintf("Ranking för %s har spärrats", msg.Author.Mention()), nil
}

// OptIn lets the author be ranked again
func (f *Feature) OptIn(msg *interpreter.Message) (string, error) {
	ctx, cancel := f.context()
	defer cancel()

	if err := f.store.OptIn(ctx, msg.Author.ID); err != nil {
		return "", err
	}
	f.logger.Info("Member opted in to ranking", "member", msg.Author.Name)
	return fmt.Sprintf("Ranking för %s har återaktiverats", msg.Author.Mention()), nil
}
