package httpx

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Access is the requirement a route places on the caller.
type Access int

const (
	AccessAuthenticated Access = iota
	AccessPublic
	AccessDenied
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessDenied:
		return "denied"
	default:
		return "authenticated"
	}
}

// ParseAccess accepts the names produced by String.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public", "permit", "permitall":
		return AccessPublic, nil
	case "authenticated", "":
		return AccessAuthenticated, nil
	case "denied", "deny", "denyall":
		return AccessDenied, nil
	default:
		return 0, fmt.Errorf("httpx: unknown access %q", s)
	}
}

func (a *Access) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := ParseAccess(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func (a Access) MarshalYAML() (any, error) { return a.String(), nil }

// PolicyRule binds a path pattern to an Access. A "*" segment matches one
// path segment and a "**" segment matches any number, including none.
type PolicyRule struct {
	Pattern string `yaml:"pattern"`
	Access  Access `yaml:"access"`
}

// RoutePolicy decides what a path requires.
type RoutePolicy interface {
	Classify(path string) Access
}

// PolicyTable is an ordered list of rules; the first match wins and
// Fallback applies when nothing matches.
type PolicyTable struct {
	Rules    []PolicyRule `yaml:"rules"`
	Fallback Access       `yaml:"fallback"`
}

// DefaultPolicy is the built-in route table.
func DefaultPolicy() *PolicyTable {
	return &PolicyTable{
		Rules: []PolicyRule{
			{Pattern: "/auth/signin", Access: AccessPublic},
			{Pattern: "/auth/refresh/**", Access: AccessPublic},
			{Pattern: "/livez", Access: AccessPublic},
			{Pattern: "/readyz", Access: AccessPublic},
			{Pattern: "/metrics", Access: AccessPublic},
			{Pattern: "/api/**", Access: AccessAuthenticated},
			{Pattern: "/users", Access: AccessDenied},
		},
		Fallback: AccessAuthenticated,
	}
}

var ErrInvalidPolicy = errors.New("httpx: invalid policy")

// ParsePolicy decodes a YAML route table.
func ParsePolicy(data []byte) (*PolicyTable, error) {
	var t PolicyTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}
	for i, rule := range t.Rules {
		if !strings.HasPrefix(rule.Pattern, "/") {
			return nil, fmt.Errorf("%w: rule %d: pattern %q must start with /", ErrInvalidPolicy, i, rule.Pattern)
		}
	}
	return &t, nil
}

// LoadPolicyFile reads a YAML route table from path.
func LoadPolicyFile(path string) (*PolicyTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("httpx: read policy: %w", err)
	}
	return ParsePolicy(data)
}

func (t *PolicyTable) Classify(path string) Access {
	for _, rule := range t.Rules {
		if MatchPattern(rule.Pattern, path) {
			return rule.Access
		}
	}
	return t.Fallback
}

// MatchPattern reports whether path matches pattern.
func MatchPattern(pattern, path string) bool {
	return matchSegments(splitPath(pattern), splitPath(path))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		switch pat[0] {
		case "**":
			rest := pat[1:]
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(segs) == 0 {
				return false
			}
		default:
			if len(segs) == 0 || segs[0] != pat[0] {
				return false
			}
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
