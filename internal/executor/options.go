package executor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// options are the parsed arguments of one resource action.
type options struct {
	resourceType string
	name         string
	namespace    string
	file         string
	yes          bool
	filter       string
	labels       []string
}

// normalizeArgs rewrites the two-letter "-ns" shorthand, which pflag cannot
// express, to its long form.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a == "-ns":
			out = append(out, "--namespace")
		case strings.HasPrefix(a, "-ns="):
			out = append(out, "--namespace="+strings.TrimPrefix(a, "-ns="))
		default:
			out = append(out, a)
		}
	}
	return out
}

func parseOptions(action Action, args []string) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet(action.String(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.namespace, "namespace", "", "namespace")
	fs.StringP("output", "o", "", "output format")
	fs.BoolVarP(&opts.yes, "yes", "y", false, "skip confirmation")
	if action.takesBody() {
		fs.StringVarP(&opts.file, "file", "f", "", "YAML or JSON file")
	}
	if action == ActionList {
		fs.StringVar(&opts.filter, "filter", "", "filter expression")
	}
	if action == ActionAddLabels || action == ActionRemoveLabels {
		fs.StringArrayVarP(&opts.labels, "label", "l", nil, "label")
	}

	if err := fs.Parse(normalizeArgs(args)); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		opts.resourceType = rest[0]
	}
	if len(rest) > 1 {
		opts.name = rest[1]
	}
	if len(rest) > 2 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[2:], " "))
	}
	return opts, nil
}

// parseLabels turns key=value pairs into a map. Without values, as for
// remove-labels, the keys map to empty strings.
func parseLabels(pairs []string, needValue bool) (map[string]string, error) {
	labels := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, found := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("invalid label '%s'", p)
		}
		if needValue && !found {
			return nil, fmt.Errorf("label '%s' must have the form key=value", p)
		}
		labels[key] = value
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("at least one --label is required")
	}
	return labels, nil
}

// readBody loads a YAML or JSON document. "-" reads stdin.
func readBody(path string, stdin io.Reader) (map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("file '%s' is empty", path)
	}
	var body map[string]any
	if err := yaml.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("failed to parse file '%s': %w", path, err)
	}
	return body, nil
}

// metadata returns body.metadata, creating it when missing.
func metadata(body map[string]any) map[string]any {
	md, ok := body["metadata"].(map[string]any)
	if !ok {
		md = map[string]any{}
		body["metadata"] = md
	}
	return md
}

// prepareBody fills metadata.name and metadata.namespace from the command
// line and returns the effective name and namespace. A name given on the
// command line must match the document; the document namespace wins unless
// one was given with --namespace.
func prepareBody(body map[string]any, name, namespace string, explicitNamespace bool) (string, string, error) {
	md := metadata(body)
	docName, _ := md["name"].(string)
	switch {
	case name == "" && docName == "":
		return "", "", fmt.Errorf("resource name is required (argument or metadata.name)")
	case name == "":
		name = docName
	case docName != "" && docName != name:
		return "", "", fmt.Errorf("name '%s' does not match metadata.name '%s'", name, docName)
	}
	md["name"] = name
	if docNS, _ := md["namespace"].(string); docNS != "" && !explicitNamespace {
		namespace = docNS
	}
	md["namespace"] = namespace
	return name, namespace, nil
}
