// Package flagx lets several parsers share os.Args: the JSON config loader
// and each binary's own flag set pick out only the flags they know.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs keeps the arguments naming one of allowedFlags, together with
// their values. Both "-c conf.json" and "--config=conf.json" forms are kept.
// A separate value is only taken when it does not itself start with "-".
// Flags listed in boolFlags never take a separate value.
func FilterArgs(args []string, allowedFlags []string, boolFlags ...string) []string {
	allowed := make(map[string]bool, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = false
	}
	for _, f := range boolFlags {
		if _, ok := allowed[f]; ok {
			allowed[f] = true
		}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		isBool, ok := allowed[arg]
		if !ok {
			continue
		}
		filtered = append(filtered, arg)
		if !isBool && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

type boolFlag interface {
	IsBoolFlag() bool
}

// ParseKnown parses only the arguments that name a flag defined on fs, in
// either the "-name" or "--name" spelling. Everything else is ignored so
// other parsers can read their own flags from the same command line.
func ParseKnown(fs *flag.FlagSet, args []string) error {
	var names, bools []string
	fs.VisitAll(func(f *flag.Flag) {
		names = append(names, "-"+f.Name, "--"+f.Name)
		if b, ok := f.Value.(boolFlag); ok && b.IsBoolFlag() {
			bools = append(bools, "-"+f.Name, "--"+f.Name)
		}
	})
	return fs.Parse(FilterArgs(args, names, bools...))
}

// ConfigPath returns the JSON config file named by -c or -config, or "" if
// neither is given. When both appear the last one wins.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = ParseKnown(fs, args)

	return path
}
