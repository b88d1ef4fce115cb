package rules

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/klyr/dotpath/internal/config"
)

func BuildEngine(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	rules := make([]Rule, 0, len(cfg.Rules))
	for _, raw := range cfg.Rules {
		compiled, err := compileRule(raw, cfg.ResolvePath)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
		}
		rules = append(rules, compiled)
	}

	return &Engine{Rules: rules}, nil
}

func compileRule(raw config.Rule, resolve func(string) string) (Rule, error) {
	phase := Phase(raw.Phase)
	switch phase {
	case PhaseInput, PhaseResult:
	default:
		return Rule{}, fmt.Errorf("unknown phase %q", raw.Phase)
	}

	form := Form(raw.Form)
	switch form {
	case "":
		form = FormRaw
	case FormRaw, FormCanonical, FormCompatible:
	default:
		return Rule{}, fmt.Errorf("unknown form %q", raw.Form)
	}

	var (
		matcher Matcher
		err     error
	)
	switch MatchType(raw.Match.Type) {
	case MatchRegex:
		if raw.Match.Pattern == "" {
			return Rule{}, fmt.Errorf("regex pattern is required")
		}
		matcher, err = NewRegexMatcher(raw.Match.Pattern)
	case MatchAho:
		if raw.Match.PatternsFile == "" {
			return Rule{}, fmt.Errorf("patternsFile is required")
		}
		patterns, readErr := readPatterns(resolve(raw.Match.PatternsFile))
		if readErr != nil {
			return Rule{}, readErr
		}
		matcher, err = NewAhoMatcher(patterns)
	case MatchPrefix:
		matcher, err = NewPrefixMatcher(raw.Match.Prefixes)
	default:
		return Rule{}, fmt.Errorf("unknown match type %q", raw.Match.Type)
	}
	if err != nil {
		return Rule{}, err
	}

	return Rule{
		ID:      raw.ID,
		Phase:   phase,
		Form:    form,
		Score:   raw.Score,
		Tags:    append([]string(nil), raw.Tags...),
		Matcher: matcher,
	}, nil
}

func readPatterns(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}
