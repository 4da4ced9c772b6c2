package tools

import "github.com/anthropics/anthropic-sdk-go"

// AnthropicTools converts descriptors to the Anthropic tool format.
func AnthropicTools(defs []Descriptor) []anthropic.ToolUnionParam {
	if len(defs) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(defs))

	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			// Type defaults to "object" when omitted
			Properties: def.InputSchema.Properties,
		}

		if len(def.InputSchema.Required) > 0 {
			inputSchema.Required = def.InputSchema.Required
		}

		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Name)

		if def.Description != "" {
			result[i].OfTool.Description = anthropic.String(def.Description)
		}
	}

	return result
}
