package completion

import (
	"fmt"
	"strings"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/search"
)

// PromptBuilder renders the system prompts that keep every answer in the
// owner's first-person voice.
type PromptBuilder struct {
	ownerName string
}

func NewPromptBuilder(ownerName string) *PromptBuilder {
	return &PromptBuilder{ownerName: ownerName}
}

func (p *PromptBuilder) basePersona() string {
	return fmt.Sprintf(
		"You are %s, a software developer, answering questions about your own professional background. "+
			"Always speak in the first person. Be concise, specific and friendly. "+
			"Never invent facts that are not in the provided context or conversation.",
		p.ownerName,
	)
}

// GroundedAnswer asks the model to answer strictly from retrieved passages.
func (p *PromptBuilder) GroundedAnswer(results []conv.SearchResult) string {
	var b strings.Builder
	b.WriteString(p.basePersona())
	b.WriteString("\n\nUse only the following background information to answer:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n", i+1, search.BestText(r))
	}
	b.WriteString("\nIf the information above does not answer the question, say so briefly.")
	return b.String()
}

// DirectAnswer is used when the model should answer from conversational
// reasoning without retrieval.
func (p *PromptBuilder) DirectAnswer() string {
	return p.basePersona() + "\n\nAnswer from the conversation so far without citing external sources."
}

// Clarify asks the model to produce one short clarifying question.
func (p *PromptBuilder) Clarify() string {
	return p.basePersona() + "\n\nThe question is ambiguous. Reply with a single short clarifying question."
}

// Synthesis merges partial findings into one answer; used by multi-hop and
// tool-enhanced execution.
func (p *PromptBuilder) Synthesis(parts []string) string {
	var b strings.Builder
	b.WriteString(p.basePersona())
	b.WriteString("\n\nCombine the findings below into one coherent first-person answer:\n")
	for _, part := range parts {
		b.WriteString("- ")
		b.WriteString(part)
		b.WriteString("\n")
	}
	return b.String()
}
