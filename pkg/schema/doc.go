// Package schema defines the persisted flow document and its structural validator.
//
// A Document is the canonical exchange form of a flow: nodes carry their outgoing
// edges inline and reference each other by id.
//
//	{
//	  "startNodeId": "greet",
//	  "nodes": [
//	    {
//	      "id": "greet",
//	      "description": "Say hello",
//	      "prompt": "Greet the user",
//	      "edges": [{"to_node_id": "ask", "condition": "always"}]
//	    },
//	    ...
//	  ]
//	}
//
// Validate works on generic decoded data (the output of encoding/json or yaml.v3),
// so that type mismatches can be reported with their exact location:
//
//	var raw any
//	_ = json.Unmarshal(data, &raw)
//	result := schema.Validate(raw)
//	for _, issue := range result.Errors {
//	    fmt.Println(issue.Field, issue.Message)
//	}
//
// Parse combines validation with decoding into a typed Document, trimming the
// required string fields on the way:
//
//	doc, err := schema.Parse(raw)
//	if err != nil {
//	    for _, msg := range schema.Messages(err) {
//	        fmt.Println(msg) // e.g. "nodes[0].prompt: Must be a non-empty string"
//	    }
//	}
//
// The package only decides validity. It never repairs input.
package schema
