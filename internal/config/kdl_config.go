package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// mergeKDL parses a .cpg.kdl document and overlays its values onto cfg.
// Recognized top-level nodes:
//
//	ignore "pattern1" "pattern2" ...
//	languages "python" "go" ...
//	ast_cache {
//	    max_entries 1000
//	    max_memory_mb 500
//	}
func mergeKDL(cfg *Config, content string) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("parse .cpg.kdl: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "ignore":
			if patterns := stringArgs(n); len(patterns) > 0 {
				cfg.Ignore = append(cfg.Ignore, patterns...)
			}
		case "languages":
			cfg.Languages = stringArgs(n)
		case "ast_cache":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_entries":
					if v, ok := firstIntArg(cn); ok {
						cfg.AstCacheMaxEntries = v
					}
				case "max_memory_mb":
					if v, ok := firstIntArg(cn); ok {
						cfg.AstCacheMaxMemoryBytes = int64(v) * 1024 * 1024
					}
				}
			}
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func stringArgs(n *document.Node) []string {
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
