package mockup

import (
	"fmt"
	"strings"

	"mockupgen/config"
)

// BlendSuffix is appended to prompts for the inpainting path so the
// regenerated region reads as part of the scene.
const BlendSuffix = "logo seamlessly printed on the surface, matching lighting and perspective"

// BuildPrompt composes the final generation prompt from the configured
// product template and style. The product base template carries one %s
// substitution point that receives the style display name; the style
// suffix is appended after a comma. Unknown product or style keys degrade
// to the generic template and an empty suffix. BuildPrompt never fails.
//
// This is a pure function with no side effects.
func BuildPrompt(cfg *config.Config, product, style string) string {
	base := cfg.BasePrompt(product)
	styleName, suffix := cfg.StyleInfo(style)

	var prompt string
	if strings.Contains(base, "%s") {
		prompt = fmt.Sprintf(base, styleName)
	} else {
		// Template without a substitution point is used as-is.
		prompt = base
	}

	if suffix != "" {
		prompt = prompt + ", " + suffix
	}
	return prompt
}
