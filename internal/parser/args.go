package parser

import "strings"

// Args is the part of a compiler command line the builder understands.
type Args struct {
	// Defines holds -D NAME[=VALUE] definitions with an integer value. A
	// bare -D NAME defines 1.
	Defines map[string]int64
	// Ignored lists every argument that had no effect.
	Ignored []string
}

// ParseArgs splits a compiler style argument list. Include paths and other
// flags are accepted and reported in Ignored; there is no preprocessor to
// pass them to.
func ParseArgs(args []string) Args {
	out := Args{Defines: make(map[string]int64)}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		var def string
		switch {
		case arg == "-D":
			if i+1 >= len(args) {
				out.Ignored = append(out.Ignored, arg)
				continue
			}
			i++
			def = args[i]
		case strings.HasPrefix(arg, "-D"):
			def = arg[2:]
		default:
			out.Ignored = append(out.Ignored, arg)
			continue
		}

		name, value, hasValue := strings.Cut(def, "=")
		if name == "" {
			out.Ignored = append(out.Ignored, arg)
			continue
		}
		if !hasValue {
			out.Defines[name] = 1
			continue
		}
		v, ok := parseInt(value)
		if !ok {
			out.Ignored = append(out.Ignored, "-D"+def)
			continue
		}
		out.Defines[name] = v
	}
	return out
}
