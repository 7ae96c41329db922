package config

import (
	"fmt"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// decodeKDL overlays a KDL document's nodes onto cfg, which the
// caller has already seeded with defaults. Nesting mirrors the
// engine config shape: top-level blocks runtime/gc/features/module,
// each containing its field nodes as single-argument children.
func decodeKDL(content string, cfg *Config) error {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to parse engine config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "runtime":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_call_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Runtime.MaxCallDepth = v
					}
				case "strict_by_default":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Runtime.StrictByDefault = b
					}
				}
			}
		case "gc":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "heap_growth_factor":
					if v, ok := firstFloatArg(cn); ok {
						cfg.GC.HeapGrowthFactor = v
					}
				case "trigger_threshold":
					if v, ok := firstIntArg(cn); ok {
						cfg.GC.TriggerThreshold = v
					}
				}
			}
		case "features":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enable_bigint":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Features.EnableBigInt = b
					}
				case "enable_temporal_stub":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Features.EnableTemporalStub = b
					}
				case "enable_weak_ref":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Features.EnableWeakRef = b
					}
				}
			}
		case "module":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "resolution_roots":
					cfg.Module.ResolutionRoots = append(cfg.Module.ResolutionRoots, collectStringArgs(cn)...)
				case "watch_mode":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Module.WatchMode = b
					}
				case "watch_debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Module.WatchDebounceMs = v
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

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// collectStringArgs reads string children either as inline arguments
// (resolution_roots "a" "b") or as a block of bare node names
// (resolution_roots { "a" "b" }).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
