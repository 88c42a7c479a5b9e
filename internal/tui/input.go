package tui

import (
	"strings"
	"unicode/utf8"
)

// maxInputLen is the maximum number of runes allowed in form inputs.
const maxInputLen = 200

// editRune processes a keystroke for inline text editing.
// Handles backspace (rune-aware) and single printable characters.
// Returns the text unchanged for non-printable keys (enter, esc, etc.).
func editRune(text string, key string) string {
	switch key {
	case "backspace":
		if len(text) > 0 {
			runes := []rune(text)
			return string(runes[:len(runes)-1])
		}
		return text
	default:
		if utf8.RuneCountInString(key) == 1 {
			if utf8.RuneCountInString(text) >= maxInputLen {
				return text
			}
			return text + key
		}
		return text
	}
}

// truncateToHeight limits output to maxLines newline-delimited lines.
// Returns the original string if it fits or maxLines is <= 0.
func truncateToHeight(s string, maxLines int) string {
	if maxLines <= 0 {
		return s
	}
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			n++
			if n >= maxLines {
				return s[:i+1]
			}
		}
	}
	return s
}

type fieldKind int

const (
	kindText fieldKind = iota
	kindID
	kindQty
)

// field is one labelled text input of a form.
type field struct {
	label    string
	value    string
	hint     string
	required bool
	masked   bool
	kind     fieldKind
}

func textField(label string, required bool) field {
	return field{label: label, required: required}
}

func idField(label string) field {
	return field{label: label, required: true, kind: kindID}
}

func qtyField(label, hint string) field {
	return field{label: label, required: true, kind: kindQty, hint: hint}
}

// edit applies a key to the field. ID fields take digits only; quantity
// fields also take one decimal separator and a leading minus.
func (f field) edit(key string) field {
	if f.kind != kindText && key != "backspace" {
		if !f.acceptsKey(key) {
			return f
		}
		if key == "," {
			key = "."
		}
	}
	f.value = editRune(f.value, key)
	return f
}

func (f field) acceptsKey(key string) bool {
	switch {
	case len(key) == 1 && key[0] >= '0' && key[0] <= '9':
		return true
	case f.kind == kindID:
		return false
	case key == "." || key == ",":
		return !strings.Contains(f.value, ".")
	case key == "-":
		return f.value == ""
	}
	return false
}

// renderField renders a field on one line with a cursor when focused.
func renderField(f field, focused bool, labelWidth int) string {
	label := padCell(f.label, labelWidth)
	if f.required {
		label = padCell(f.label+" *", labelWidth)
	}

	value := f.value
	if f.masked {
		value = strings.Repeat("•", utf8.RuneCountInString(f.value))
	}

	prefix := "   "
	labelStyled := dimStyle.Render(label)
	if focused {
		prefix = " " + inputPromptStyle.Render(">") + " "
		labelStyled = selectedStyle.Render(label)
	}

	var body string
	switch {
	case value == "" && !focused && f.hint != "":
		body = inputPlaceholderStyle.Render(f.hint)
	case focused:
		body = normalStyle.Render(value) + accentStyle.Render("█")
	default:
		body = normalStyle.Render(value)
	}
	return prefix + labelStyled + "  " + body
}
