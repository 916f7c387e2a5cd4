package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/driftworld/turncore/pkg/schema"
)

// validate checks a captured model response file against a named
// schema. Useful for triaging rejected payloads from worker logs.
func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <schema> <response.json>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Schemas: %s\n", strings.Join(schemaNames(), ", "))
		os.Exit(1)
	}

	id := schema.ID(os.Args[1])
	filename := os.Args[2]

	data, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file %s: %v\n", filename, err)
		os.Exit(1)
	}

	fmt.Printf("Validating %s against %s...\n", filename, id)

	result := schema.Validate(data, id)

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w)
	}

	if !result.OK {
		fmt.Fprintf(os.Stderr, "Validation failed:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
		os.Exit(1)
	}

	fmt.Println("Response is valid!")
}

func schemaNames() []string {
	ids := []schema.ID{
		schema.GridUpdate,
		schema.HeavyContext,
		schema.NarrativeThreads,
		schema.PacingAnalysis,
		schema.ActionOptions,
		schema.CustomAction,
		schema.TextClassification,
		schema.Onboarding,
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}
