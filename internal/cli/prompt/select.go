package prompt

import (
	"errors"

	"github.com/manifoldco/promptui"
)

// SelectOption represents an item in a selection list.
type SelectOption struct {
	Label       string
	Value       string
	Description string
}

// selectTemplates returns the standard templates for selection prompts.
func selectTemplates(withDetails bool) *promptui.SelectTemplates {
	t := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label | white }}",
		Selected: "* {{ .Label | green }}",
	}
	if withDetails {
		t.Details = `
{{ "Device ID:" | faint }}	{{ .Description }}`
	}
	return t
}

// Select prompts the user to select from a list of options and returns the
// chosen option's value. A single option is returned without prompting.
func Select(label string, options []SelectOption) (string, error) {
	switch {
	case len(options) == 0:
		return "", errors.New("nothing to select")
	case len(options) == 1:
		return options[0].Value, nil
	case !interactive():
		return "", ErrNotInteractive
	}

	p := promptui.Select{
		Label:     label,
		Items:     options,
		Templates: selectTemplates(options[0].Description != ""),
		Size:      10,
	}

	i, _, err := p.Run()
	if err != nil {
		return "", wrapError(err)
	}
	return options[i].Value, nil
}
