package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anchorkit/anchorkit/cmd/eidprobe/internal/clihost"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eid"
	"github.com/anchorkit/anchorkit/pkg/resolver"
	"github.com/anchorkit/anchorkit/pkg/seql"
)

func init() {
	clihost.RegisterCommand(&clihost.Command{
		Name:  "resolve",
		Short: "Resolve a SEQL string or EID JSON file against an HTML fixture",
		Long: `Replay a previously generated EID — given either as a SEQL string
or a path to a JSON file produced by "eidprobe generate --json" — against
an HTML fixture, and print the resulting status, confidence, and
matched element tag(s).`,
		Usage: "eidprobe resolve <file.html> <seql-string-or-json-path> [--config eidprobe.yaml] [--base-url URL]",
		Run:   runResolve,
	})
}

func runResolve(args []string) error {
	positional, flags, err := splitFlags(args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("resolve: expected <file.html> <seql-or-json>, got %d argument(s)", len(positional))
	}
	file, spec := positional[0], positional[1]

	opts, err := loadOptions(flags)
	if err != nil {
		return err
	}

	id, err := loadEID(spec)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("resolve: reading %s: %w", file, err)
	}
	doc, err := domtree.ParseString(string(data), flags["base-url"])
	if err != nil {
		return fmt.Errorf("resolve: parsing %s: %w", file, err)
	}

	result := resolver.Resolve(id, doc, opts.ToResolverOptions())

	fmt.Printf("status:     %s\n", result.Status)
	fmt.Printf("confidence: %.2f\n", result.Confidence)
	if len(result.Elements) == 0 {
		fmt.Println("elements:   (none)")
	} else {
		fmt.Printf("elements:   %d matched\n", len(result.Elements))
		for i, el := range result.Elements {
			fmt.Printf("  [%d] <%s>\n", i, el.TagName())
		}
	}
	for _, w := range result.Warnings {
		fmt.Printf("warning:    %s\n", w)
	}
	return nil
}

// loadEID accepts either a raw SEQL string or a path to a JSON file
// written by "eidprobe generate --json".
func loadEID(spec string) (eid.EID, error) {
	if strings.HasSuffix(spec, ".json") {
		data, err := os.ReadFile(spec)
		if err != nil {
			return eid.EID{}, fmt.Errorf("resolve: reading %s: %w", spec, err)
		}
		var id eid.EID
		if err := json.Unmarshal(data, &id); err != nil {
			return eid.EID{}, fmt.Errorf("resolve: parsing %s: %w", spec, err)
		}
		return id, nil
	}
	id, err := seql.Parse(spec)
	if err != nil {
		return eid.EID{}, fmt.Errorf("resolve: parsing SEQL: %w", err)
	}
	return id, nil
}
