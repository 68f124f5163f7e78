package ui

import (
	"errors"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrCancelled is returned by the prompts when the user backs out with ctrl-c or ctrl-d.
var ErrCancelled = errors.New("cancelled")

// PromptYesNo asks a yes/no question. Enter alone picks the default.
func PromptYesNo(question string, defaultYes bool) (bool, error) {
	label := question + " [y/N]"
	if defaultYes {
		label = question + " [Y/n]"
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	answer, err := prompt.Run()
	switch {
	case errors.Is(err, promptui.ErrInterrupt), errors.Is(err, promptui.ErrEOF):
		return false, ErrCancelled
	case errors.Is(err, promptui.ErrAbort):
		// promptui reports anything but "y" as an abort, including a bare Enter.
		if strings.TrimSpace(answer) == "" {
			return defaultYes, nil
		}
		return false, nil
	case err != nil:
		return false, err
	}
	return parseYes(answer, defaultYes), nil
}

func parseYes(answer string, defaultYes bool) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

// SelectItem is one choice in a selection list.
type SelectItem struct {
	Name        string
	Description string
}

// PromptSelectDetailed shows a filterable list and returns the chosen index.
// Typing narrows the list by name or description.
func PromptSelectDetailed(label string, items []SelectItem) (int, error) {
	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Description | faint }}",
		Inactive: "  {{ .Name }} {{ .Description | faint }}",
		Selected: "{{ .Name | green }}",
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Templates: templates,
		Size:      10,
		Searcher:  itemSearcher(items),
	}

	idx, _, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return -1, ErrCancelled
	}
	return idx, err
}

func itemSearcher(items []SelectItem) func(string, int) bool {
	return func(input string, index int) bool {
		input = strings.ToLower(strings.TrimSpace(input))
		item := items[index]
		return strings.Contains(strings.ToLower(item.Name), input) ||
			strings.Contains(strings.ToLower(item.Description), input)
	}
}
