package interpreter

import (
	"sort"
	"strings"
)

// PronounTag is a grammatical pronoun class found in a message
type PronounTag int

const (
	PronounUnidentified PronounTag = iota
	PronounInterrogative
	PronounPersonal
	PronounPossessive
)

// String returns the string representation of the tag
func (p PronounTag) String() string {
	switch p {
	case PronounInterrogative:
		return "INTERROGATIVE"
	case PronounPersonal:
		return "PERSONAL"
	case PronounPossessive:
		return "POSSESSIVE"
	case PronounUnidentified:
		return "UNIDENTIFIED"
	default:
		return "UNKNOWN"
	}
}

// PronounSet is a deduplicated, sorted set of pronoun tags
type PronounSet []PronounTag

// NewPronounSet builds a sorted set from the given tags
func NewPronounSet(tags ...PronounTag) PronounSet {
	seen := make(map[PronounTag]struct{}, len(tags))
	set := make(PronounSet, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		set = append(set, t)
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set
}

// Contains reports whether tag is a member of the set
func (s PronounSet) Contains(tag PronounTag) bool {
	for _, t := range s {
		if t == tag {
			return true
		}
	}
	return false
}

// Intersects reports whether the two sets share at least one tag
func (s PronounSet) Intersects(other PronounSet) bool {
	for _, t := range other {
		if s.Contains(t) {
			return true
		}
	}
	return false
}

// Strings returns the tag names, useful for logs and JSON
func (s PronounSet) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.String()
	}
	return out
}

func (s PronounSet) String() string {
	return "(" + strings.Join(s.Strings(), ", ") + ")"
}

// CommandCategory identifies which feature owns a message
type CommandCategory int

const (
	CategoryUnidentified CommandCategory = iota
	CategoryHelpQueue
	CategoryLunchMenu
	CategorySchedule
	CategoryRedditJoke
	CategoryRanking

	categoryEnd
)

var categoryNames = map[CommandCategory]string{
	CategoryUnidentified: "UNIDENTIFIED",
	CategoryHelpQueue:    "HELP_QUEUE",
	CategoryLunchMenu:    "LUNCH_MENU",
	CategorySchedule:     "SCHEDULE",
	CategoryRedditJoke:   "REDDIT_JOKE",
	CategoryRanking:      "RANKING",
}

// String returns the string representation of the category
func (c CommandCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether c is a member of the closed category set
func (c CommandCategory) Valid() bool {
	return c >= CategoryUnidentified && c < categoryEnd
}

// CommandSubcategory identifies which action inside a feature owns a message
type CommandSubcategory int

const (
	SubcategoryUnidentified CommandSubcategory = iota

	// Help queue
	SubcategoryEnqueue
	SubcategoryDequeue
	SubcategoryListQueue
	SubcategoryNextInQueue

	// Lunch menu
	SubcategoryMenuYesterday
	SubcategoryMenuToday
	SubcategoryMenuTomorrow
	SubcategoryMenuDayAfterTomorrow
	SubcategoryMenuWeek

	// Reddit joke
	SubcategoryRandomJoke

	// Schedule
	SubcategoryNextLesson
	SubcategoryTodaysLessons
	SubcategoryCurriculum

	// Ranking
	SubcategoryRankUp
	SubcategoryRankDown
	SubcategoryRankAll
	SubcategoryRankMember
	SubcategoryRankOptOut
	SubcategoryRankOptIn

	subcategoryEnd
)

var subcategoryNames = map[CommandSubcategory]string{
	SubcategoryUnidentified:         "UNIDENTIFIED",
	SubcategoryEnqueue:              "ENQUEUE",
	SubcategoryDequeue:              "DEQUEUE",
	SubcategoryListQueue:            "LIST_QUEUE",
	SubcategoryNextInQueue:          "NEXT_IN_QUEUE",
	SubcategoryMenuYesterday:        "MENU_YESTERDAY",
	SubcategoryMenuToday:            "MENU_TODAY",
	SubcategoryMenuTomorrow:         "MENU_TOMORROW",
	SubcategoryMenuDayAfterTomorrow: "MENU_DAY_AFTER_TOMORROW",
	SubcategoryMenuWeek:             "MENU_WEEK",
	SubcategoryRandomJoke:           "RANDOM_JOKE",
	SubcategoryNextLesson:           "NEXT_LESSON",
	SubcategoryTodaysLessons:        "TODAYS_LESSONS",
	SubcategoryCurriculum:           "CURRICULUM",
	SubcategoryRankUp:               "RANK_UP",
	SubcategoryRankDown:             "RANK_DOWN",
	SubcategoryRankAll:              "RANK_ALL",
	SubcategoryRankMember:           "RANK_MEMBER",
	SubcategoryRankOptOut:           "RANK_OPT_OUT",
	SubcategoryRankOptIn:            "RANK_OPT_IN",
}

// String returns the string representation of the subcategory
func (s CommandSubcategory) String() string {
	if name, ok := subcategoryNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether s is a member of the closed subcategory set
func (s CommandSubcategory) Valid() bool {
	return s >= SubcategoryUnidentified && s < subcategoryEnd
}
