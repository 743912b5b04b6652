// Package catalog holds the fixed question catalog and achievement display metadata.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/cppla/winterarc/models"
)

const (
	// TotalDays is the length of the programme.
	TotalDays = 90
	// QuestionsPerDay is the number of catalog questions scheduled per day.
	QuestionsPerDay = 2
	// TotalQuestions is the catalog size.
	TotalQuestions = TotalDays * QuestionsPerDay
)

//go:embed questions.yaml
var questionsYAML []byte

type questionEntry struct {
	ID                   string `yaml:"id"`
	Title                string `yaml:"title"`
	URL                  string `yaml:"url"`
	Difficulty           string `yaml:"difficulty"`
	Coins                int    `yaml:"coins"`
	Topic                string `yaml:"topic"`
	Day                  int    `yaml:"day"`
	Order                int    `yaml:"order"`
	ConceptualDifficulty string `yaml:"conceptual_difficulty"`
}

type document struct {
	Questions []questionEntry `yaml:"questions"`
}

// Catalog is an immutable, validated set of questions.
type Catalog struct {
	ordered []models.Question
	byID    map[string]models.Question
	topics  []string
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the embedded catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(questionsYAML)
	})
	return defaultCat, defaultErr
}

// Parse decodes and validates a catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(doc.Questions) != TotalQuestions {
		return nil, fmt.Errorf("catalog has %d questions, want %d", len(doc.Questions), TotalQuestions)
	}

	c := &Catalog{byID: make(map[string]models.Question, len(doc.Questions))}
	slots := make(map[[2]int]string, len(doc.Questions))
	seenTopic := map[string]bool{}
	for _, e := range doc.Questions {
		if err := validate(e); err != nil {
			return nil, err
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", e.ID)
		}
		slot := [2]int{e.Day, e.Order}
		if other, taken := slots[slot]; taken {
			return nil, fmt.Errorf("day %d order %d used by both %q and %q", e.Day, e.Order, other, e.ID)
		}
		slots[slot] = e.ID

		q := models.Question{
			ID:                   e.ID,
			Title:                e.Title,
			QuestionURL:          e.URL,
			Difficulty:           e.Difficulty,
			Coins:                e.Coins,
			Topic:                e.Topic,
			DayNumber:            e.Day,
			QuestionOrder:        e.Order,
			ConceptualDifficulty: e.ConceptualDifficulty,
		}
		c.byID[q.ID] = q
		c.ordered = append(c.ordered, q)
		if !seenTopic[q.Topic] {
			seenTopic[q.Topic] = true
			c.topics = append(c.topics, q.Topic)
		}
	}

	sort.SliceStable(c.ordered, func(i, j int) bool {
		if c.ordered[i].DayNumber != c.ordered[j].DayNumber {
			return c.ordered[i].DayNumber < c.ordered[j].DayNumber
		}
		return c.ordered[i].QuestionOrder < c.ordered[j].QuestionOrder
	})
	return c, nil
}

func validate(e questionEntry) error {
	if e.ID == "" {
		return errors.New("question without id")
	}
	if e.Title == "" || e.URL == "" || e.Topic == "" {
		return fmt.Errorf("question %q: title, url and topic are required", e.ID)
	}
	switch e.Difficulty {
	case "easy", "medium", "hard":
	default:
		return fmt.Errorf("question %q: unknown difficulty %q", e.ID, e.Difficulty)
	}
	switch e.ConceptualDifficulty {
	case "beginner", "intermediate", "advanced":
	default:
		return fmt.Errorf("question %q: unknown conceptual difficulty %q", e.ID, e.ConceptualDifficulty)
	}
	if e.Coins <= 0 {
		return fmt.Errorf("question %q: coins must be positive", e.ID)
	}
	if e.Day < 1 || e.Day > TotalDays {
		return fmt.Errorf("question %q: day %d out of range", e.ID, e.Day)
	}
	if e.Order < 1 || e.Order > QuestionsPerDay {
		return fmt.Errorf("question %q: order %d out of range", e.ID, e.Order)
	}
	return nil
}

// Lookup returns the question with the given id.
func (c *Catalog) Lookup(id string) (models.Question, bool) {
	q, ok := c.byID[id]
	return q, ok
}

// Questions returns all questions ordered by day then order. The slice is a copy.
func (c *Catalog) Questions() []models.Question {
	out := make([]models.Question, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// ByTopic returns the ordered questions of a topic; "all" or "" returns everything.
func (c *Catalog) ByTopic(topic string) []models.Question {
	if topic == "" || topic == "all" {
		return c.Questions()
	}
	var out []models.Question
	for _, q := range c.ordered {
		if q.Topic == topic {
			out = append(out, q)
		}
	}
	return out
}

// Topics lists topics in first-appearance order.
func (c *Catalog) Topics() []string {
	return append([]string(nil), c.topics...)
}

// Len reports the number of questions.
func (c *Catalog) Len() int { return len(c.ordered) }
