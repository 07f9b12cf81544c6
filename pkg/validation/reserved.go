// Package validation guards resource names and operations before they reach
// the API. It provides three independent checks:
//
//   - name validation (reserved words, injection patterns, RFC 1035 format)
//   - safety classification of operations by danger level
//   - namespace scope checks for system-only and shared-only operations
//
// None of the checks perform I/O; operation metadata is supplied by the caller.
package validation

import "regexp"

// ReservedActions are CLI verbs that cannot be used as resource names.
var ReservedActions = map[string]struct{}{}

// DangerousCommands are system command names rejected as resource names.
var DangerousCommands = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"create", "delete", "list", "get", "update", "apply", "patch",
		"describe", "show", "status", "logs", "events", "edit", "replace",
		"set", "unset", "start", "stop", "restart", "rollout", "scale",
		"attach", "detach", "connect", "disconnect", "register", "deregister",
		"associate", "disassociate", "put", "modify",
		"help", "quit", "exit", "clear", "history", "refresh", "context",
		"banner", "profile", "completion",
		"run", "exec", "wait", "open", "close", "inspect", "validate", "diff",
		"plan", "import", "export",
	} {
		ReservedActions[w] = struct{}{}
	}

	for _, w := range []string{
		"rm", "rm-rf", "rmdir", "del", "unlink", "shred",
		"sudo", "su", "chmod", "chown", "chattr", "setfacl",
		"wget", "curl", "nc", "netcat", "socat", "telnet", "ssh", "scp", "rsync",
		"bash", "sh", "zsh", "csh", "ksh", "fish", "pwsh", "powershell",
		"exec", "eval", "source", "nohup", "xargs",
		"kill", "pkill", "killall", "killall5",
		"dd", "mkfs", "fdisk", "parted", "format",
		"reboot", "shutdown", "halt", "poweroff", "init", "systemctl",
		"docker", "kubectl", "nsenter", "chroot",
	} {
		DangerousCommands[w] = struct{}{}
	}
}

var (
	shellMetacharacters = regexp.MustCompile("[;&|`$()<>\\\\#!{}\\[\\]*?~\\n\\r]")
	controlCharacters   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	rfc1035Label        = regexp.MustCompile(`^[a-z]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

var metacharDescriptions = map[rune]string{
	';':  "; (command separator)",
	'&':  "& (background/and operator)",
	'|':  "| (pipe)",
	'`':  "` (command substitution)",
	'$':  "$ (variable expansion)",
	'(':  "( (subshell)",
	')':  ") (subshell)",
	'<':  "< (input redirection)",
	'>':  "> (output redirection)",
	'\\': "\\ (escape character)",
	'#':  "# (comment)",
	'!':  "! (history expansion)",
	'{':  "{ (brace expansion)",
	'}':  "} (brace expansion)",
	'[':  "[ (glob pattern)",
	']':  "] (glob pattern)",
	'*':  "* (glob wildcard)",
	'?':  "? (glob wildcard)",
	'~':  "~ (home directory)",
	'\n': "newline",
	'\r': "carriage return",
}

type dangerousPattern struct {
	re      *regexp.Regexp
	message string
}

// Ordered: the double-hyphen rule is shadowed by the single hyphen rule and is
// kept for parity with the message catalogue.
var dangerousPatterns = []dangerousPattern{
	{regexp.MustCompile(`^-`), "Name cannot start with a hyphen (would be interpreted as a flag)"},
	{regexp.MustCompile(`^--`), "Name cannot start with double-hyphen (would be interpreted as a long flag)"},
	{regexp.MustCompile(`\.\.`), "Name cannot contain '..' (path traversal risk)"},
	{regexp.MustCompile(`^\.`), "Name cannot start with '.' (hidden file pattern)"},
	{regexp.MustCompile(`/`), "Name cannot contain '/' (path separator)"},
	{regexp.MustCompile(`\\$`), "Name cannot end with backslash (escape sequence risk)"},
	{regexp.MustCompile(`\s`), "Name cannot contain whitespace"},
	{regexp.MustCompile(`^_`), "Name cannot start with underscore (reserved for internal use)"},
}

// IsReservedAction reports whether word is a reserved CLI verb.
func IsReservedAction(word string) bool {
	_, ok := ReservedActions[word]
	return ok
}

// IsDangerousCommand reports whether word names a dangerous system command.
func IsDangerousCommand(word string) bool {
	_, ok := DangerousCommands[word]
	return ok
}
