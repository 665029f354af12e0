package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anchorkit/anchorkit/cmd/eidprobe/internal/clihost"
	"github.com/anchorkit/anchorkit/pkg/domtree"
	"github.com/anchorkit/anchorkit/pkg/eidconfig"
	"github.com/anchorkit/anchorkit/pkg/resolver"
	"github.com/anchorkit/anchorkit/pkg/seql"
)

func init() {
	clihost.RegisterCommand(&clihost.Command{
		Name:  "generate",
		Short: "Generate an EID for the first element matching a CSS selector",
		Long: `Generate an Element Identity Descriptor for the element a CSS
selector first matches inside an HTML fixture.

Prints the EID's SEQL string form and, with --json, its full JSON
representation.`,
		Usage: "eidprobe generate <file.html> <css-selector> [--config eidprobe.yaml] [--base-url URL] [--json]",
		Run:   runGenerate,
	})
}

func runGenerate(args []string) error {
	positional, flags, err := splitFlags(args)
	if err != nil {
		return err
	}
	if len(positional) != 2 {
		return fmt.Errorf("generate: expected <file.html> <css-selector>, got %d argument(s)", len(positional))
	}
	file, selector := positional[0], positional[1]

	opts, err := loadOptions(flags)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("generate: reading %s: %w", file, err)
	}

	doc, err := domtree.ParseString(string(data), flags["base-url"])
	if err != nil {
		return fmt.Errorf("generate: parsing %s: %w", file, err)
	}

	matches, err := doc.QuerySelectorAll(selector)
	if err != nil {
		return fmt.Errorf("generate: selector %q: %w", selector, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("generate: selector %q matched no element in %s", selector, file)
	}

	id := resolver.GenerateEID(matches[0], opts.ToResolverOptions())
	if id == nil {
		return fmt.Errorf("generate: no EID produced (element detached or below confidence threshold)")
	}

	fmt.Println(seql.Stringify(*id))

	if _, wantJSON := flags["json"]; wantJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(id); err != nil {
			return fmt.Errorf("generate: encoding EID: %w", err)
		}
	}
	return nil
}

// loadOptions resolves eidconfig.Options from an optional --config
// file, falling back to the documented defaults.
func loadOptions(flags map[string]string) (eidconfig.Options, error) {
	if path, ok := flags["config"]; ok && path != "" {
		return eidconfig.Load(path)
	}
	return eidconfig.Default(), nil
}

// splitFlags pulls --name=value / --name value pairs out of args,
// leaving the remaining positional arguments in order. A bare --name
// (no value) is recorded with an empty string, for boolean switches
// like --json.
func splitFlags(args []string) (positional []string, flags map[string]string, err error) {
	flags = map[string]string{}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !isFlag(a) {
			positional = append(positional, a)
			continue
		}
		name := a[2:]
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			flags[name[:eq]] = name[eq+1:]
			continue
		}
		if i+1 < len(args) && !isFlag(args[i+1]) {
			flags[name] = args[i+1]
			i++
			continue
		}
		flags[name] = ""
	}
	return positional, flags, nil
}

func isFlag(s string) bool {
	return strings.HasPrefix(s, "--")
}
