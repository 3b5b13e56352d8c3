// Package flagx holds helpers for components that parse only their own
// subset of the process command line.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the allowedFlags (and their values) from args.
//
// Both "-e .env" and "-e=.env" forms are recognized. A value is attached to a
// flag only when the next token does not itself start with "-".
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// EnvFileFlag returns the dotenv file path given with -e or -env-file, or an
// empty string when neither is present. Other arguments are ignored so the
// caller can still run its own flag set over os.Args.
func EnvFileFlag() string {
	var path string

	args := FilterArgs(os.Args[1:], []string{"-e", "-env-file"})

	fs := flag.NewFlagSet("envfile", flag.ContinueOnError)
	fs.StringVar(&path, "env-file", "", "Path to dotenv file")
	fs.StringVar(&path, "e", "", "Path to dotenv file (short)")
	_ = fs.Parse(args)

	return path
}
