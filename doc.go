/*
Package promptflow is an editor engine for prompt flows: directed graphs whose
nodes carry an LLM prompt and whose edges carry the condition under which the
conversation moves on.

The module is split in layers that can be used on their own:

  - pkg/schema decodes JSON and YAML documents and reports every structural
    problem with a path such as nodes[2].edges[0].to_node_id.
  - pkg/analysis walks a document from its start node and reports unknown start
    nodes, disconnected nodes and self-loops.
  - pkg/store is the in-memory graph editor with undo and redo. Every change
    revalidates the graph and is published as a domain.ChangeEvent.
  - pkg/session keeps named editors open on top of a ports.DocumentStore and
    serializes access to each of them.
  - pkg/adapters exposes the sessions over HTTP (with a websocket change feed)
    and as an MCP server.

# Usage

The package level helpers cover the common file based workflow:

	result, err := promptflow.ValidateFile("support.yaml")
	if err != nil {
		log.Fatal(err) // unreadable file or broken syntax
	}
	for _, issue := range result.Issues() {
		fmt.Println(issue.Severity, issue.Message)
	}

An editor opened from a file records every edit in its history:

	editor, err := promptflow.OpenFile(ctx, "support.yaml")
	if err != nil {
		log.Fatal(err)
	}
	node := editor.AddNode()
	editor.AddEdge(domain.Connection{Source: "greet", Target: node.ID})
	editor.Undo()

	if err := promptflow.SaveFile("support.yaml", editor.Document()); err != nil {
		log.Fatal(err)
	}

# Command Line

The promptflow binary wraps the same operations: validate, fmt, layout and
graph work on files, while serve and mcp expose a store of named flows.
*/
package promptflow
