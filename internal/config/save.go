package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// SaveOverlays updates the overlays section of the config file. Comments and
// formatting in other sections survive because the document is edited as a
// yaml.Node tree rather than round-tripped through structs.
func SaveOverlays(configPath string, overlays []OverlayConfig) error {
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config: %w", err)
	}

	var doc yaml.Node
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("parsing config: %w", err)
		}
	}

	overlaysNode := buildOverlaysNode(overlays)

	if doc.Kind == 0 {
		// Empty or new file
		doc = yaml.Node{
			Kind: yaml.DocumentNode,
			Content: []*yaml.Node{
				{
					Kind: yaml.MappingNode,
					Content: []*yaml.Node{
						{Kind: yaml.ScalarNode, Value: "overlays"},
						overlaysNode,
					},
				},
			},
		}
	} else if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root := doc.Content[0]
		if root.Kind == yaml.MappingNode {
			found := false
			for i := 0; i < len(root.Content)-1; i += 2 {
				if root.Content[i].Value == "overlays" {
					root.Content[i+1] = overlaysNode
					found = true
					break
				}
			}
			if !found {
				root.Content = append(root.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: "overlays"},
					overlaysNode,
				)
			}
		}
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&doc); err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	_ = encoder.Close()

	return writeAtomic(configPath, buf.Bytes())
}

// writeAtomic writes to a temp file in the target directory and renames it
// into place.
func writeAtomic(configPath string, data []byte) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	temp, err := os.CreateTemp(dir, ".veil.yaml.tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tempPath := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tempPath, configPath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// buildOverlaysNode creates a yaml.Node representing the overlays array.
// Optional flags are only emitted when set, keeping saved files minimal.
func buildOverlaysNode(overlays []OverlayConfig) *yaml.Node {
	node := &yaml.Node{
		Kind:    yaml.SequenceNode,
		Content: make([]*yaml.Node, 0, len(overlays)),
	}

	for _, o := range overlays {
		ovNode := &yaml.Node{Kind: yaml.MappingNode}

		appendScalar(ovNode, "id", o.ID)
		if o.Portal != "" {
			appendScalar(ovNode, "portal", o.Portal)
		}
		if o.Content != "" {
			appendScalar(ovNode, "content", o.Content)
		}
		appendBoolPtr(ovNode, "backdrop", o.Backdrop)
		appendBoolPtr(ovNode, "lock_scroll", o.LockScroll)
		appendBoolPtr(ovNode, "close_on_escape", o.CloseOnEscape)
		appendBoolPtr(ovNode, "close_on_outside_click", o.CloseOnOutsideClick)
		appendBoolPtr(ovNode, "close_on_route_change", o.CloseOnRouteChange)
		if o.AnimationDelayMs > 0 {
			appendTyped(ovNode, "animation_delay_ms", "!!int", strconv.Itoa(o.AnimationDelayMs))
		}
		if o.InitiallyVisible {
			appendTyped(ovNode, "initially_visible", "!!bool", "true")
		}

		node.Content = append(node.Content, ovNode)
	}

	return node
}

func appendScalar(m *yaml.Node, key, value string) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

func appendTyped(m *yaml.Node, key, tag, value string) {
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value},
	)
}

func appendBoolPtr(m *yaml.Node, key string, value *bool) {
	if value == nil {
		return
	}
	appendTyped(m, key, "!!bool", strconv.FormatBool(*value))
}
