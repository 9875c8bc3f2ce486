// Package knowledge holds the restaurant knowledge base: the facts the
// assistant persona is grounded in and the canned answers for common
// questions. The base is loaded from YAML so restaurant staff can edit it
// without touching code.
package knowledge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"gopkg.in/yaml.v3"
)

// topicMatchThreshold is the minimum Jaro-Winkler similarity for a fuzzy
// topic lookup to count as a match.
const topicMatchThreshold = 0.85

// Restaurant describes the venue itself.
type Restaurant struct {
	Name        string   `yaml:"name"`
	Location    string   `yaml:"location"`
	Cuisine     string   `yaml:"cuisine"`
	Specialties []string `yaml:"specialties"`
	Proteins    []string `yaml:"proteins"`
}

// ScheduleEntry is one line of the opening schedule.
type ScheduleEntry struct {
	Days string `yaml:"days"`
	Open string `yaml:"open"`
}

// Hours is the opening schedule plus a free-form note.
type Hours struct {
	Schedule []ScheduleEntry `yaml:"schedule"`
	Note     string          `yaml:"note"`
}

// Contact holds customer-facing contact details.
type Contact struct {
	Phone string `yaml:"phone"`
	Email string `yaml:"email"`
}

// Base is the full knowledge base.
type Base struct {
	Assistant      string            `yaml:"assistant"`
	Restaurant     Restaurant        `yaml:"restaurant"`
	Hours          Hours             `yaml:"hours"`
	Contact        Contact           `yaml:"contact"`
	Services       []string          `yaml:"services"`
	Philosophy     []string          `yaml:"philosophy"`
	MenuCategories []string          `yaml:"menu_categories"`
	Responses      map[string]string `yaml:"responses"`
}

// Load reads a knowledge base from a YAML file.
func Load(path string) (*Base, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: open %s: %w", path, err)
	}
	defer f.Close()

	b, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("knowledge: load %s: %w", path, err)
	}
	return b, nil
}

// LoadFromReader reads a knowledge base from YAML. Unknown fields are
// rejected so typos in hand-edited files surface immediately.
func LoadFromReader(r io.Reader) (*Base, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Base
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate checks the base for the fields the prompt builder relies on.
func (b *Base) Validate() error {
	var errs []error
	if b.Assistant == "" {
		errs = append(errs, errors.New("assistant name must not be empty"))
	}
	if b.Restaurant.Name == "" {
		errs = append(errs, errors.New("restaurant.name must not be empty"))
	}
	return errors.Join(errs...)
}

// Topics returns the known response topics in sorted order.
func (b *Base) Topics() []string {
	topics := make([]string, 0, len(b.Responses))
	for topic := range b.Responses {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Answer looks up a canned response by topic. Lookup is forgiving: an exact
// match wins, otherwise the closest topic by Jaro-Winkler similarity is used
// as long as it clears the match threshold ("Hours" and "opening_hours" both
// find "hours").
func (b *Base) Answer(topic string) (string, bool) {
	topic = strings.ToLower(strings.TrimSpace(topic))
	if topic == "" {
		return "", false
	}
	if resp, ok := b.Responses[topic]; ok {
		return resp, true
	}

	bestScore := 0.0
	bestTopic := ""
	for candidate := range b.Responses {
		score := matchr.JaroWinkler(topic, strings.ToLower(candidate), false)
		if score > bestScore {
			bestScore = score
			bestTopic = candidate
		}
	}
	if bestScore < topicMatchThreshold {
		return "", false
	}
	return b.Responses[bestTopic], true
}

// SystemPrompt renders the base into the system prompt for the language
// model. The prompt is rebuilt on demand so edits to the base apply to the
// next exchange.
func (b *Base) SystemPrompt() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s, the friendly virtual assistant of %s.\n",
		b.Assistant, b.Restaurant.Name)
	if b.Restaurant.Location != "" {
		fmt.Fprintf(&sb, "The restaurant is located at %s.\n", b.Restaurant.Location)
	}
	if b.Restaurant.Cuisine != "" {
		fmt.Fprintf(&sb, "It serves %s.\n", b.Restaurant.Cuisine)
	}
	if len(b.Restaurant.Specialties) > 0 {
		fmt.Fprintf(&sb, "Specialties: %s.\n", strings.Join(b.Restaurant.Specialties, ", "))
	}
	if len(b.Restaurant.Proteins) > 0 {
		fmt.Fprintf(&sb, "Available proteins: %s.\n", strings.Join(b.Restaurant.Proteins, ", "))
	}

	if len(b.Hours.Schedule) > 0 {
		sb.WriteString("Opening hours:\n")
		for _, e := range b.Hours.Schedule {
			fmt.Fprintf(&sb, "  %s: %s\n", e.Days, e.Open)
		}
		if b.Hours.Note != "" {
			fmt.Fprintf(&sb, "  Note: %s\n", b.Hours.Note)
		}
	}

	if b.Contact.Phone != "" || b.Contact.Email != "" {
		fmt.Fprintf(&sb, "Contact: phone %s, email %s.\n", b.Contact.Phone, b.Contact.Email)
	}
	if len(b.Services) > 0 {
		fmt.Fprintf(&sb, "Services: %s.\n", strings.Join(b.Services, ", "))
	}
	if len(b.Philosophy) > 0 {
		fmt.Fprintf(&sb, "Philosophy: %s.\n", strings.Join(b.Philosophy, "; "))
	}
	if len(b.MenuCategories) > 0 {
		fmt.Fprintf(&sb, "Menu categories: %s.\n", strings.Join(b.MenuCategories, ", "))
	}

	sb.WriteString("Answer guests warmly and concisely. ")
	sb.WriteString("Only state facts from the information above; if you do not know something, say so and offer the contact details.")
	return sb.String()
}

// Default returns the built-in knowledge base used when no YAML file is
// configured.
func Default() *Base {
	return &Base{
		Assistant: "Hana",
		Restaurant: Restaurant{
			Name:        "AitoFresh",
			Location:    "Helsinki City Center, CityCenter mall, 2nd floor",
			Cuisine:     "Poke Bowls and fresh, healthy meals",
			Specialties: []string{"Poke Bowls", "Fresh ingredients", "Healthy options"},
			Proteins:    []string{"Fish", "Chicken", "Vegan options"},
		},
		Hours: Hours{
			Schedule: []ScheduleEntry{
				{Days: "Monday-Friday", Open: "11:00 - 21:00 (Lunch: 11:00 - 15:00)"},
				{Days: "Saturday", Open: "11:00 - 21:00"},
				{Days: "Sunday", Open: "12:00 - 19:00"},
			},
			Note: "Kitchen closes 30 minutes before restaurant closing",
		},
		Contact: Contact{
			Phone: "+358 50 5494185",
			Email: "customer@aitofresh.fi",
		},
		Services: []string{
			"dine-in", "takeout", "lunch buffet", "pre-ordering", "online payment",
		},
		Philosophy: []string{
			"Fresh ingredients and interactive service",
			"Bringing people together",
			"Caring for our planet",
		},
		MenuCategories: []string{
			"Poke Bowls", "Lunch Buffet", "À la carte", "Drinks",
		},
		Responses: map[string]string{
			"greeting":    "Welcome to AitoFresh! I'm Hana, your friendly assistant. We specialize in fresh poke bowls and healthy meals. How can I help you today?",
			"location":    "We're located in Helsinki City Center on the 2nd floor of CityCenter mall. Perfect for a quick healthy lunch or dinner!",
			"hours":       "We're open Monday-Friday 11:00-21:00 (lunch buffet until 15:00), Saturday 11:00-21:00, and Sunday 12:00-19:00. Our kitchen closes 30 minutes before closing time.",
			"specialties": "Our specialty is fresh poke bowls with various proteins including fish, chicken, and delicious vegan options. We also have a popular lunch buffet!",
			"healthy":     "Everything at AitoFresh is focused on fresh, healthy ingredients. Our poke bowls are perfect for a nutritious meal with high-quality proteins and fresh vegetables.",
			"booking":     "You can call us at +358 50 5494185 to make a reservation, or email customer@aitofresh.fi. We also offer pre-ordering for faster service!",
			"payment":     "We accept various payment methods including online payment for pre-orders. Very convenient for busy Helsinki residents!",
		},
	}
}
