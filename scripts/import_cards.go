package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/skirmishgg/skirmish-server-go/internal/catalog"
	"gopkg.in/yaml.v3"
)

// CardImport represents a card row from the CSV export. Columns:
//
//	id,name,kind,power,rarity,color,unit_type,description,target,ability,value,token
//
// kind is "unit" or "action". Units ignore target/ability/value; actions
// ignore power/unit_type/token.
type CardImport struct {
	ID          string
	Name        string
	Kind        string
	Power       int
	Rarity      string
	Color       string
	UnitType    string
	Description string
	Target      string
	Ability     string
	Value       int
	Token       bool
}

const csvColumns = 12

type document struct {
	Units   []catalog.UnitDefinition   `yaml:"units"`
	Actions []catalog.ActionDefinition `yaml:"actions"`
	Leaders []catalog.LeaderDefinition `yaml:"leaders"`
	Decks   []catalog.DeckDefinition   `yaml:"decks"`
}

func main() {
	basePath := flag.String("base", "internal/catalog/cards.yaml", "catalog whose leaders, decks and traits are kept; empty starts from scratch")
	outPath := flag.String("out", "cards.yaml", "output catalog path")
	flag.Parse()

	csvPath := "data/cards.csv"
	if flag.NArg() > 0 {
		csvPath = flag.Arg(0)
	}

	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Skirmish Card Import ===")
	fmt.Printf("CSV file: %s\n", absPath)

	file, err := os.Open(absPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	cards, err := readCards(file)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	fmt.Printf("Parsed %d valid cards\n", len(cards))

	var doc document
	if *basePath != "" {
		if doc, err = readBase(*basePath); err != nil {
			log.Fatalf("Failed to read base catalog: %v", err)
		}
		fmt.Printf("Base catalog: %d units, %d actions, %d leaders, %d decks\n",
			len(doc.Units), len(doc.Actions), len(doc.Leaders), len(doc.Decks))
	}

	added, updated := merge(&doc, cards)

	// Validate cross references before writing anything.
	if _, err := catalog.New(doc.Units, doc.Actions, doc.Leaders, doc.Decks); err != nil {
		log.Fatalf("Merged catalog is invalid: %v", err)
	}

	out, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("Failed to create output: %v", err)
	}
	defer out.Close()

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		log.Fatalf("Failed to write catalog: %v", err)
	}
	if err := enc.Close(); err != nil {
		log.Fatalf("Failed to write catalog: %v", err)
	}

	fmt.Println("\n=== Import Complete ===")
	fmt.Printf("Added: %d cards\n", added)
	fmt.Printf("Updated: %d cards\n", updated)
	fmt.Printf("Written to %s\n", *outPath)
}

func readCards(r io.Reader) ([]CardImport, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or has no data rows")
	}

	cards := make([]CardImport, 0, len(records)-1)
	for i, record := range records[1:] { // Skip header
		if len(record) < csvColumns {
			log.Printf("Warning: Skipping row %d - insufficient columns", i+2)
			continue
		}
		card := CardImport{
			ID:          strings.TrimSpace(record[0]),
			Name:        record[1],
			Kind:        strings.ToLower(record[2]),
			Rarity:      record[4],
			Color:       record[5],
			UnitType:    record[6],
			Description: record[7],
			Target:      record[8],
			Ability:     record[9],
			Token:       parseBool(record[11]),
		}
		if card.ID == "" {
			log.Printf("Warning: Skipping row %d - missing id", i+2)
			continue
		}
		if card.Power, err = parseInt(record[3]); err != nil {
			log.Printf("Warning: Skipping row %d - bad power: %v", i+2, err)
			continue
		}
		if card.Value, err = parseInt(record[10]); err != nil {
			log.Printf("Warning: Skipping row %d - bad value: %v", i+2, err)
			continue
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func readBase(path string) (document, error) {
	var doc document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	err = yaml.Unmarshal(data, &doc)
	return doc, err
}

// merge adds or replaces cards by id. Replaced units keep their traits,
// which the CSV cannot express.
func merge(doc *document, cards []CardImport) (added, updated int) {
	units := make(map[string]int, len(doc.Units))
	for i, u := range doc.Units {
		units[u.ID] = i
	}
	actions := make(map[string]int, len(doc.Actions))
	for i, a := range doc.Actions {
		actions[a.ID] = i
	}

	for _, card := range cards {
		switch card.Kind {
		case "unit":
			def := catalog.UnitDefinition{
				ID:          card.ID,
				Name:        card.Name,
				Description: card.Description,
				Power:       card.Power,
				Rarity:      catalog.Rarity(card.Rarity),
				Color:       card.Color,
				UnitType:    card.UnitType,
				Token:       card.Token,
			}
			if i, ok := units[card.ID]; ok {
				def.Traits = doc.Units[i].Traits
				doc.Units[i] = def
				updated++
				continue
			}
			units[card.ID] = len(doc.Units)
			doc.Units = append(doc.Units, def)
			added++
		case "action":
			def := catalog.ActionDefinition{
				ID:          card.ID,
				Name:        card.Name,
				Description: card.Description,
				Rarity:      catalog.Rarity(card.Rarity),
				Color:       card.Color,
				Target:      card.Target,
				Ability:     card.Ability,
				Value:       card.Value,
			}
			if i, ok := actions[card.ID]; ok {
				doc.Actions[i] = def
				updated++
				continue
			}
			actions[card.ID] = len(doc.Actions)
			doc.Actions = append(doc.Actions, def)
			added++
		default:
			log.Printf("Warning: Skipping %s - unknown kind %q", card.ID, card.Kind)
		}
	}
	return added, updated
}

func parseBool(s string) bool {
	return strings.ToLower(s) == "true" || s == "1"
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
