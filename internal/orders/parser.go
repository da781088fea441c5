// Package orders defines the boundary to the order-parsing
// collaborator that turns transcript text into structured items.
//
// The real NLP step lives outside this core; KeywordParser is a small
// reference implementation so the pipeline has a working default.
package orders

import "strings"

// Item is one structured line of a voice order.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Parser converts transcript text into structured order items.
type Parser interface {
	Parse(transcript string) ([]Item, error)
}

// KeywordParser matches a fixed menu vocabulary against transcript
// words, pairing each match with the quantity word immediately before
// it when present.
type KeywordParser struct {
	menu map[string]string // spoken word -> canonical item name
}

// NewKeywordParser builds a parser over the default menu vocabulary.
func NewKeywordParser() *KeywordParser {
	return &KeywordParser{menu: map[string]string{
		"burger":    "burger",
		"burgers":   "burger",
		"fries":     "fries",
		"coffee":    "coffee",
		"coffees":   "coffee",
		"lemonade":  "lemonade",
		"lemonades": "lemonade",
		"salad":     "salad",
		"salads":    "salad",
		"wrap":      "wrap",
		"wraps":     "wrap",
		"soup":      "soup",
		"soups":     "soup",
		"water":     "water",
		"waters":    "water",
	}}
}

var quantityWords = map[string]int{
	"a": 1, "an": 1, "one": 1,
	"two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// Parse scans the transcript for menu items. Unknown transcripts yield
// an empty item list, never an error; deciding what to do with an
// unparseable order belongs to the caller.
func (p *KeywordParser) Parse(transcript string) ([]Item, error) {
	words := strings.Fields(strings.ToLower(transcript))
	var items []Item

	for i, word := range words {
		word = strings.Trim(word, ".,!?")
		name, ok := p.menu[word]
		if !ok {
			continue
		}

		quantity := 1
		if i > 0 {
			prev := strings.Trim(words[i-1], ".,!?")
			if n, ok := quantityWords[prev]; ok {
				quantity = n
			} else if n := parseDigits(prev); n > 0 {
				quantity = n
			}
		}
		items = append(items, Item{Name: name, Quantity: quantity})
	}
	return items, nil
}

func parseDigits(word string) int {
	n := 0
	for _, r := range word {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1000 {
			return 0
		}
	}
	return n
}
