/*
Package dsl provides a fluent Go builder for prompt flow documents.

It is an alternative to writing JSON or YAML by hand, useful for fixtures,
tests and generated flows. Build validates the result the same way an import
does, so a built document can always be imported into a store.

Example usage:

	doc, err := dsl.New().
		Add("greet").
		Label("Greeting").
		Describe("Say hello").
		Prompt("Greet the user warmly.").
		Go("ask", "user replied").
		Add("ask").
		Describe("Ask for the goal").
		Prompt("What would you like to do today?").
		Start("greet").
		Build()
	if err != nil {
		log.Fatal(err)
	}
*/
package dsl
