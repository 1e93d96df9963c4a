package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// normalizeArgs rewrites single-dash long flags such as -length or
// -algo=test3 to their double-dash form. Shorthands, the stdin token "-"
// and everything after "--" are left alone.
func normalizeArgs(flags *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if len(arg) > 2 && arg[0] == '-' && arg[1] != '-' {
			name, _, _ := strings.Cut(arg[1:], "=")
			if len(name) > 1 && (flags.Lookup(name) != nil || name == "help") {
				arg = "-" + arg
			}
		}
		out = append(out, arg)
	}
	return out
}

// parseOptions parses key=value pairs with integer values.
func parseOptions(pairs []string) (map[string]int, error) {
	opts := make(map[string]int, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: --set %q: want key=value", ErrUsage, pair)
		}
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("%w: --set %q: value must be an integer", ErrUsage, pair)
		}
		opts[key] = v
	}
	return opts, nil
}
