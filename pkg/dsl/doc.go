/*
Package dsl builds wizard step chains declaratively.

Each step is a form of named string fields. The builder compiles the chain
into linked FormSteps that plug straight into wizard.New. Advance and finish
conditions are expr programs evaluated against two maps: settings (the shared
wizard settings) and input (the step's pending field values).

Example usage:

	b := dsl.New("Add Header")

	b.Step("header").
		Label("Header").
		Describe("Pick the **HTTP header** to add.").
		Field("name", "Header name", dsl.Required()).
		Field("operation", "Operation", dsl.Choices("add", "replace", "remove"), dsl.Default("add"))

	b.Step("value").
		Label("Value").
		Field("value", "Header value").
		AdvanceWhen(`input.value != "" || settings.operation == "remove"`, "A value is required").
		Finishable()

	steps, err := b.Build()
	if err != nil {
		return err
	}
	engine, err := wizard.New(steps[0], wizard.WithTitle(b.Title()))

The same definition can be loaded from YAML with LoadYAML or LoadFile.
*/
package dsl
