package reconcile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

/* Policy maps each discrepancy kind to the action the sweep takes and the
 * severity its finding carries. Loaded from policy.yaml with safe built-in
 * defaults, so the sweeper runs usefully with no file at all.
 */

// policyAction is the yaml-facing action vocabulary
const (
	actionCorrect = "correct"
	actionAlert   = "alert"
)

// Rule is the configured handling for one discrepancy kind
type Rule struct {
	Correct  bool
	Severity Severity
}

// Policy holds one rule per discrepancy kind
type Policy struct {
	rules map[Kind]Rule
}

// fileConfig represents the structure of policy.yaml
type fileConfig struct {
	Rules []ruleConfig `yaml:"rules"`
}

// ruleConfig represents a single rule in the YAML file
type ruleConfig struct {
	Kind     string `yaml:"kind"`
	Action   string `yaml:"action"`
	Severity string `yaml:"severity"`
}

// DefaultPolicy returns the built-in handling: corrective writes only where
// the correction is idempotent and low-risk, alerts for anything requiring
// judgment. Amount divergences always alert; money is never corrective-
// written.
func DefaultPolicy() Policy {
	return Policy{rules: map[Kind]Rule{
		MissingLocally:   {Correct: true, Severity: Warning},
		StatusDivergence: {Correct: true, Severity: Warning},
		AmountDivergence: {Correct: false, Severity: Critical},
		MissingUpstream:  {Correct: false, Severity: Warning},
	}}
}

// LoadPolicy reads and parses a policy.yaml file, starting from the defaults
// so unlisted kinds keep their built-in handling.
func LoadPolicy(filePath string) (Policy, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return Policy{}, fmt.Errorf("reading policy file: %w", err)
	}

	var config fileConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Policy{}, fmt.Errorf("parsing policy YAML: %w", err)
	}

	policy := DefaultPolicy()
	for _, rc := range config.Rules {
		kind := NewKind(rc.Kind)
		if err := kind.Validate(); err != nil {
			return Policy{}, fmt.Errorf("validating policy rule: %w", err)
		}

		var correct bool
		switch rc.Action {
		case actionCorrect:
			correct = true
		case actionAlert:
			correct = false
		default:
			return Policy{}, fmt.Errorf("validating policy rule: invalid action %q for %s", rc.Action, kind)
		}

		severity := NewSeverity(rc.Severity)
		if severity == 0 {
			severity = policy.rules[kind].Severity
		}

		policy.rules[kind] = Rule{Correct: correct, Severity: severity}
	}

	return policy, nil
}

// Rule returns the handling for a discrepancy kind. Corrective writes are
// clamped off for amount divergences and upstream-missing records regardless
// of configuration: the former needs judgment, the latter must never trigger
// a write toward the provider.
func (p Policy) Rule(kind Kind) Rule {
	rule := p.rules[kind]
	if kind == AmountDivergence || kind == MissingUpstream {
		rule.Correct = false
	}
	return rule
}
