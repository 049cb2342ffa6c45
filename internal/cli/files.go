package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/promptflow/pkg/layout"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/serialize"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ReadSource reads a document from path, or from stdin for Stdin.
// A non-empty format overrides the guess made from the file extension;
// stdin defaults to JSON.
func ReadSource(path string, stdin io.Reader, format schema.Format) ([]byte, schema.Format, error) {
	if format == "" {
		format = schema.FormatFromPath(path)
	}
	if path == Stdin {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return data, format, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	return data, format, nil
}

// WriteOutput writes data to path, or to w when path is empty or Stdin.
func WriteOutput(path string, w io.Writer, data []byte) error {
	if path == "" || path == Stdin {
		_, err := w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LayoutDocument computes node positions with engine.
//
// Without force a document whose nodes all carry a position is returned
// unchanged; otherwise every node is placed again. Only positions change.
func LayoutDocument(ctx context.Context, doc schema.Document, engine layout.Engine, force bool) (schema.Document, error) {
	out := doc.Clone()
	if !force && out.HasAllPositions() {
		return out, nil
	}
	for i := range out.Nodes {
		out.Nodes[i].Position = nil
	}
	g, err := serialize.FromSchema(ctx, out, serialize.WithLayout(engine))
	if err != nil {
		return schema.Document{}, err
	}
	placed := serialize.ToSchema(g)
	for i := range out.Nodes {
		out.Nodes[i].Position = placed.Nodes[i].Position
	}
	return out, nil
}
