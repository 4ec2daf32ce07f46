package runner

import "strings"

// secretPrefixes are argument prefixes whose values never reach the log.
var secretPrefixes = []string{
	"--key=",
	"--proxy-password=",
}

// secretFlags are flags whose following argument is a secret.
var secretFlags = map[string]bool{
	"--register": true,
}

// Redact returns a copy of args safe for logging, with secret values
// replaced by a placeholder.
func Redact(args []string) []string {
	out := make([]string, len(args))
	maskNext := false
	for i, arg := range args {
		switch {
		case maskNext:
			out[i] = "***"
			maskNext = false
		case secretFlags[arg]:
			out[i] = arg
			maskNext = true
		case hasSecretPrefix(arg):
			out[i] = arg[:strings.Index(arg, "=")+1] + "***"
		default:
			out[i] = arg
		}
	}
	return out
}

func hasSecretPrefix(arg string) bool {
	for _, p := range secretPrefixes {
		if strings.HasPrefix(arg, p) {
			return true
		}
	}
	return false
}
