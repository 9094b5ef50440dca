package preprocess

import "strings"

// buildCleanSource reconstructs a front-end-consumable source from the
// comment-stripped text, dropping every assert-* statement. Gate
// bodies are cleaned recursively.
func buildCleanSource(stripped string) string {
	var sb strings.Builder
	for _, stmt := range splitStatements(stripped) {
		head, inner, _, _, hasBlock := extractBlock(stmt.Raw, stmt.Start)
		text := strings.TrimSpace(head)
		if strings.HasPrefix(text, "assert-") {
			continue
		}
		if hasBlock {
			sb.WriteString(text)
			sb.WriteString(" {")
			sb.WriteString(buildCleanSource(inner))
			sb.WriteString("};\n")
			continue
		}
		sb.WriteString(text)
		sb.WriteString(";\n")
	}
	return sb.String()
}
