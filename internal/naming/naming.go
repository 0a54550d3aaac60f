// Package naming derives human readable names and dates from content file names.
package naming

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the Go layout for the YYYY-MM-DD date prefix and the `date`
// front matter value.
const DateLayout = "2006-01-02"

var (
	datePrefixPattern     = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}`)
	datePrefixDashPattern = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}-`)
)

// DatePrefix returns the YYYY-MM-DD prefix of a base name, if it has one.
// The prefix only has to match the pattern; it may still be an impossible date.
func DatePrefix(name string) (string, bool) {
	m := datePrefixPattern.FindString(name)
	return m, m != ""
}

// StripDatePrefix removes a leading "YYYY-MM-DD-".
func StripDatePrefix(name string) string {
	return datePrefixDashPattern.ReplaceAllString(name, "")
}

// Stem is the base name up to the first dot: "post.md.tmpl" -> "post".
func Stem(name string) string {
	stem, _, _ := strings.Cut(name, ".")
	return stem
}

// Format is the extension segment after the first dot: "post.md" -> "md",
// "page.html.tmpl" -> "html". Names without a dot have no format.
func Format(name string) string {
	_, rest, found := strings.Cut(name, ".")
	if !found {
		return ""
	}
	format, _, _ := strings.Cut(rest, ".")
	return format
}

// Titleize turns a dash-joined phrase into a title: "my-first-post" -> "My First Post".
// Each word is lower-cased before its first letter is upper-cased.
func Titleize(phrase string) string {
	words := strings.Fields(strings.ReplaceAll(phrase, "-", " "))
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// TitleFromFileName derives a page title from a base file name by dropping
// the date prefix and extension: "2021-03-05-my-first-post.md" -> "My First Post".
func TitleFromFileName(name string) string {
	return Titleize(StripDatePrefix(Stem(name)))
}
