package main

import (
	"fmt"
	"os"

	"github.com/lancerhub/webhook-guard/reconcile"
)

/* validate-policy - Standalone CLI tool to validate policy.yaml
 * Usage: go run cmd/validate-policy/main.go [policy.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	// Get policy file path from args or use default
	policyFile := "policy.yaml"
	if len(os.Args) > 1 {
		policyFile = os.Args[1]
	}

	fmt.Printf("Validating policy file: %s\n", policyFile)

	policy, err := reconcile.LoadPolicy(policyFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ VALIDATION PASSED\n\n")

	kinds := []reconcile.Kind{
		reconcile.MissingLocally,
		reconcile.MissingUpstream,
		reconcile.StatusDivergence,
		reconcile.AmountDivergence,
	}
	for i, kind := range kinds {
		rule := policy.Rule(kind)
		action := "alert"
		if rule.Correct {
			action = "correct"
		}
		fmt.Printf("%d. %s\n", i+1, kind)
		fmt.Printf("   Action:   %s\n", action)
		fmt.Printf("   Severity: %s\n", rule.Severity)
	}

	fmt.Printf("\n✓ Policy is valid!\n")
	os.Exit(0)
}
