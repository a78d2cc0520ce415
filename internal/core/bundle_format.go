package core

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

var bundleNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,49}$`)

type bundleHeader struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// ValidateBundle checks that body is a front-matter header followed by
// content. Strict mode also requires a description and a well-formed name.
func ValidateBundle(bundle string, body []byte, strict bool) error {
	text := string(bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n")))
	text = strings.TrimPrefix(text, "\ufeff")
	if strings.TrimSpace(text) == "" {
		return invalidBundle(bundle, "body is empty")
	}
	header, content, ok := splitFrontMatter(text)
	if !ok {
		return invalidBundle(bundle, "missing front matter block")
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal([]byte(header), &raw); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bundle " + bundle + ": front matter is not valid yaml").
			WithCause(err)
	}
	if raw == nil {
		return invalidBundle(bundle, "front matter is empty")
	}
	var parsed bundleHeader
	if err := yaml.Unmarshal([]byte(header), &parsed); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("bundle " + bundle + ": front matter fields have wrong types").
			WithCause(err)
	}
	if strings.TrimSpace(parsed.Name) == "" {
		return invalidBundle(bundle, "front matter has no name")
	}
	if strings.TrimSpace(content) == "" {
		return invalidBundle(bundle, "no content after front matter")
	}
	if !strict {
		return nil
	}
	if strings.TrimSpace(parsed.Description) == "" {
		return invalidBundle(bundle, "front matter has no description")
	}
	if !bundleNamePattern.MatchString(parsed.Name) {
		return invalidBundle(bundle, "name '"+parsed.Name+"' must be lowercase letters, digits and hyphens")
	}
	return nil
}

func splitFrontMatter(text string) (string, string, bool) {
	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimSpace(first) != frontMatterDelimiter {
		return "", "", false
	}
	var header []string
	for {
		line, remaining, more := strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == frontMatterDelimiter {
			return strings.Join(header, "\n"), remaining, true
		}
		if !more {
			return "", "", false
		}
		header = append(header, line)
		rest = remaining
	}
}

func invalidBundle(bundle string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("bundle " + bundle + ": " + reason)
}
