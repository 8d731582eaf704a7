package tui

import (
	"fmt"
	"strings"

	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/prompts"
)

const previewLength = 300

func (m model) renderWizard() string {
	d := m.doc
	var b strings.Builder

	switch d.View {
	case models.ViewWelcome:
		b.WriteString(titleStyle.Render("Welcome to Saga") + "\n\n")
		b.WriteString("An interactive story written as you play.\n\n")
		b.WriteString(helpStyle.Render("Press enter to begin."))
		return b.String()

	case models.ViewConnection:
		b.WriteString(titleStyle.Render("CONNECTION") + "\n\n")
		fmt.Fprintf(&b, "API URL: %s\nModel:   %s\n\n", d.APIURL, valueOr(d.Model, "(server default)"))
		b.WriteString(helpStyle.Render("Settings come from the configuration file and SAGA_* variables.") + "\n")
		b.WriteString(helpStyle.Render("Enter checks that the backend supports structured output."))

	case models.ViewGenre:
		b.WriteString(titleStyle.Render("GENRE") + "\n\n")
		for i, g := range models.Genres {
			b.WriteString(choice(i == m.cursor, string(g)) + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("Up and down to choose, enter to continue."))

	case models.ViewCharacter:
		b.WriteString(titleStyle.Render("CHARACTER") + "\n\n")
		fmt.Fprintf(&b, "World: %s\n\n", valueOr(d.World.Name, "(generated on enter)"))
		b.WriteString(choice(m.field == 0, "Gender: "+string(d.Protagonist.Gender)) + "\n")
		b.WriteString(choice(m.field == 1, "Race:   "+string(d.Protagonist.Race)) + "\n\n")
		b.WriteString(m.textInput.View() + "\n\n")
		b.WriteString(helpStyle.Render(truncate(prompts.ProtagonistPromptText(d), previewLength)) + "\n\n")
		b.WriteString(helpStyle.Render("Up and down pick a field, left and right change it, enter generates. /back returns."))

	case models.ViewScenario:
		b.WriteString(titleStyle.Render("SCENARIO") + "\n\n")
		fmt.Fprintf(&b, "World: %s\n%s\n\n", d.World.Name, d.World.Description)
		fmt.Fprintf(&b, "You are %s. %s\n\n", d.Protagonist.Name, d.Protagonist.Biography)
		b.WriteString(m.textInput.View() + "\n\n")
		b.WriteString(helpStyle.Render("Enter generates the starting location and characters. /back or /newcharacter to change."))

	default:
		fmt.Fprintf(&b, "Unknown view %q. Try /reset.", d.View)
	}
	return b.String()
}

func (m model) renderActions() string {
	if len(m.doc.Actions) == 0 {
		return helpStyle.Render("Press enter to begin the story.") + "\n"
	}
	var b strings.Builder
	for i, a := range m.doc.Actions {
		b.WriteString(choice(i == m.cursor, a) + "\n")
	}
	return b.String()
}

// renderState is the side panel next to the chat log.
func (m model) renderState() string {
	d := m.doc

	location := titleStyle.Render("LOCATION") + "\n"
	if loc, ok := d.CurrentLocation(); ok {
		location += loc.Name + "\n"
	}
	location += "\n"

	protagonist := titleStyle.Render("PROTAGONIST") + "\n" +
		fmt.Sprintf("%s\n%s %s\n\n", d.Protagonist.Name, d.Protagonist.Race, d.Protagonist.Gender)

	inventory := titleStyle.Render("INVENTORY") + "\n"
	if len(d.Inventory) == 0 {
		inventory += "(empty)\n"
	}
	for _, item := range d.Inventory {
		inventory += "- " + item.Name + "\n"
	}
	inventory += "\n"

	present := titleStyle.Render("HERE") + "\n"
	for _, c := range d.Characters {
		if c.LocationIndex == d.Protagonist.LocationIndex {
			present += "- " + c.Name + "\n"
		}
	}

	content := location + protagonist + inventory + present

	stateWidth := int(float64(m.width) * 0.23)
	return stateStyle.Width(stateWidth).Height(m.viewport.Height).Render(content)
}

// renderEvents formats the event log for the chat viewport.
func renderEvents(d *models.State, width int) string {
	var blocks []string
	for _, e := range d.Events {
		switch e := e.(type) {
		case *models.ActionEvent:
			blocks = append(blocks, userStyle.Width(width).Render("> "+e.Action))
		case *models.NarrationEvent:
			blocks = append(blocks, gameStyle.Width(width).Render(e.Text))
		case *models.LocationChangeEvent:
			if e.LocationIndex >= 0 && e.LocationIndex < len(d.Locations) {
				loc := d.Locations[e.LocationIndex]
				blocks = append(blocks, titleStyle.Render(loc.Name)+"\n"+helpStyle.Width(width).Render(loc.Description))
			}
		case *models.CharacterIntroductionEvent:
			if e.CharacterIndex >= 0 && e.CharacterIndex < len(d.Characters) {
				blocks = append(blocks, helpStyle.Render("You meet "+d.Characters[e.CharacterIndex].Name+"."))
			}
		case *models.InventoryChangeEvent:
			if len(e.Gained) > 0 {
				blocks = append(blocks, helpStyle.Render("Gained: "+itemNames(e.Gained)))
			}
			if len(e.Lost) > 0 {
				blocks = append(blocks, helpStyle.Render("Lost: "+itemNames(e.Lost)))
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}

func itemNames(items []models.Item) string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return strings.Join(names, ", ")
}

func choice(selected bool, label string) string {
	if selected {
		return selectedStyle.Render("> " + label)
	}
	return "  " + label
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
