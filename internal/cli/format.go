package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// printYAML renders v as YAML on stdout, used by --format yaml on
// secure/bench (the supplemental structured-output mode).
func printYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		fail(err)
	}
	fmt.Fprint(os.Stdout, string(data))
}
