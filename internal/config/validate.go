package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/normalize"
)

type ValidationError struct {
	Problems []string
}

func (v *ValidationError) Add(format string, args ...any) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

func (v *ValidationError) Error() string {
	return fmt.Sprintf("%d validation error(s)", len(v.Problems))
}

func (c *Config) Validate() error {
	v := &ValidationError{}

	if c.ConfigVersion != 1 {
		v.Add("configVersion must be 1")
	}

	if err := validateListen(c.Server.Listen); err != nil {
		v.Add("server.listen invalid: %v", err)
	}

	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			v.Add("server.tls.certFile required when tls.enabled is true")
		} else if err := requireFile(c.resolvePath(c.Server.TLS.CertFile)); err != nil {
			v.Add("server.tls.certFile invalid: %v", err)
		}
		if c.Server.TLS.KeyFile == "" {
			v.Add("server.tls.keyFile required when tls.enabled is true")
		} else if err := requireFile(c.resolvePath(c.Server.TLS.KeyFile)); err != nil {
			v.Add("server.tls.keyFile invalid: %v", err)
		}
	}

	if c.Metrics.Enabled {
		if err := validateListen(c.Metrics.Listen); err != nil {
			v.Add("metrics.listen invalid: %v", err)
		}
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		v.Add("logging.level invalid: %v", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON, logging.FormatLogfmt:
	default:
		v.Add("logging.format must be text|json|logfmt")
	}

	if c.Batch.Workers < 0 {
		v.Add("batch.workers must be >= 0")
	}

	for name, policy := range c.Policies {
		if name == "" {
			v.Add("policies has an empty name")
			continue
		}

		switch policy.Mode {
		case ModeEnforce, ModeShadow:
		default:
			v.Add("policies.%s.mode must be enforce|shadow", name)
		}

		if policy.AnomalyThreshold < 0 {
			v.Add("policies.%s.anomalyThreshold must be >= 0", name)
		}
		if policy.Limits.MaxBodyBytes <= 0 {
			v.Add("policies.%s.limits.maxBodyBytes must be > 0", name)
		}
		if policy.Limits.MaxPathBytes < 0 {
			v.Add("policies.%s.limits.maxPathBytes must be >= 0", name)
		}

		if policy.RateLimit.Enabled {
			if policy.RateLimit.RPS <= 0 {
				v.Add("policies.%s.rateLimit.rps must be > 0", name)
			}
			if policy.RateLimit.Burst <= 0 {
				v.Add("policies.%s.rateLimit.burst must be > 0", name)
			}
			switch policy.RateLimit.Key {
			case "", "ip", "ip_op":
			default:
				v.Add("policies.%s.rateLimit.key must be ip|ip_op", name)
			}
		}
	}

	if len(c.Routes) == 0 {
		v.Add("routes must not be empty")
	}
	for i, route := range c.Routes {
		prefix := route.Match.PathPrefix
		if prefix == "" {
			v.Add("routes[%d].match.pathPrefix is required", i)
		} else if canonical, ok := normalize.AbsolutePath("/", prefix); !ok || canonical != prefix {
			v.Add("routes[%d].match.pathPrefix must be a canonical absolute path", i)
		}
		if route.Policy == "" {
			v.Add("routes[%d].policy is required", i)
		} else if _, exists := c.Policies[route.Policy]; !exists {
			v.Add("routes[%d].policy %q does not exist", i, route.Policy)
		}
	}

	ruleIDs := map[string]struct{}{}
	for i, rule := range c.Rules {
		if rule.ID == "" {
			v.Add("rules[%d].id is required", i)
		} else if _, exists := ruleIDs[rule.ID]; exists {
			v.Add("rules[%d].id %q is duplicated", i, rule.ID)
		} else {
			ruleIDs[rule.ID] = struct{}{}
		}

		switch rule.Phase {
		case "input", "result":
		default:
			v.Add("rules[%d].phase must be input|result", i)
		}
		switch rule.Form {
		case "", "raw", "canonical", "compatible":
		default:
			v.Add("rules[%d].form must be raw|canonical|compatible", i)
		}

		switch rule.Match.Type {
		case "aho":
			if rule.Match.PatternsFile == "" {
				v.Add("rules[%d].match.patternsFile is required for aho", i)
			} else if err := requireFile(c.resolvePath(rule.Match.PatternsFile)); err != nil {
				v.Add("rules[%d].match.patternsFile invalid: %v", i, err)
			}
		case "regex":
			if rule.Match.Pattern == "" {
				v.Add("rules[%d].match.pattern is required for regex", i)
			} else if _, err := regexp.Compile(rule.Match.Pattern); err != nil {
				v.Add("rules[%d].match.pattern invalid: %v", i, err)
			}
		case "prefix":
			if len(rule.Match.Prefixes) == 0 {
				v.Add("rules[%d].match.prefixes is required for prefix", i)
			}
		case "":
			v.Add("rules[%d].match.type is required", i)
		default:
			v.Add("rules[%d].match.type must be aho|regex|prefix", i)
		}
	}

	if len(v.Problems) > 0 {
		sort.Strings(v.Problems)
		return v
	}
	return nil
}

func validateListen(addr string) error {
	if strings.TrimSpace(addr) == "" {
		return errors.New("address is required")
	}
	if _, err := net.ResolveTCPAddr("tcp", addr); err != nil {
		return err
	}
	return nil
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
