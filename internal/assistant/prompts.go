package assistant

import (
	"fmt"
	"strings"
)

// Marker phrases embedded in offers. The tracker recognises pending offers
// in history that carries no explicit State by looking for these.
const (
	PortionOfferMarker = "Would you like me to retrieve the formal runbook portion"
	LegacyOfferMarker  = "Would you like me to retrieve"
)

// Fixed replies.
const (
	NoPortionDetailMessage = "I found the corresponding section, but it doesn't contain enough specific procedural detail to display as a runbook portion."
	LocalRunbookSource     = "Local Runbook System"
)

// Prompts holds every instruction text sent to the completion service.
type Prompts struct {
	CondenseSystem string
	Classifier     string
	Runbook        string
	Chat           string
	PortionExtract string
	Insufficient   string
}

// DefaultPrompts returns the prompt set for a knowledge base about domain,
// e.g. "SAP Treasury and Risk Management (TRM)".
func DefaultPrompts(domain string) Prompts {
	insufficient := fmt.Sprintf("I don't have enough information in my knowledge base to answer this. "+
		"The requested topic does not appear to be related to %s documentation.", domain)

	return Prompts{
		CondenseSystem: "You are a helpful assistant. Rephrase query to be standalone. output ONLY the question.",

		Classifier: fmt.Sprintf(`You are a Technical Intent Classifier for %s.

Analyze if the user wants a FORMAL PROCEDURE, RUNBOOK, STEP-BY-STEP GUIDE, CONFIGURATION SETUP, or TROUBLESHOOTING STEPS.
These are "procedural" queries that need detailed instructions.

If the user asks for a simple explanation, definition, or "short" clarification, it is NOT a runbook request.

If they want a formal procedure, output: INTENT: RUNBOOK_REQUEST | TOPIC: <2-3 word topic> | TYPE: <operational, incident, system_admin or general>
Examples:
- "How do I settle a deal?" -> INTENT: RUNBOOK_REQUEST | TOPIC: Deal Settlement | TYPE: operational
- "What are the steps for month end?" -> INTENT: RUNBOOK_REQUEST | TOPIC: Month-End Procedures | TYPE: operational
- "Troubleshoot OT84 errors" -> INTENT: RUNBOOK_REQUEST | TOPIC: OT84 Troubleshooting | TYPE: system_admin
- "Configure product types" -> INTENT: RUNBOOK_REQUEST | TOPIC: Product Type Setup | TYPE: system_admin

If they just want a definition, list, background information, or explanation (asking WHAT IS something or "EXPLAIN" something), output: INTENT: GENERAL_QUERY
Examples:
- "What is Portfolio Analyzer?" -> INTENT: GENERAL_QUERY
- "Explain FX risk" -> INTENT: GENERAL_QUERY
- "What is a business partner?" -> INTENT: GENERAL_QUERY
- "Explain it in short" -> INTENT: GENERAL_QUERY
- "List the types of treasury instruments" -> INTENT: GENERAL_QUERY`, domain),

		Runbook: fmt.Sprintf(`You are an expert in %s. The user wants a FORMAL PROCEDURE or RUNBOOK section.
CRITICAL: Use this distinctive formatting:
- Use "## 📋 [Procedure Name]" for main headers
- Visual separators: "---" before and after key sections
- Numbered steps: "### Step X: [Action]"
- Highlight transaction codes: `+"`TBB1`"+`
- Use blockquotes for: > ⚠️ **Important**, > 💡 **Tip**, > 🎯 **Objective**
- Always end with a "---" separator followed by a line "📚 **Source**: [Runbook Name]"

ONLY use the provided context.`, domain),

		Chat: fmt.Sprintf(`You are an expert assistant for %[1]s with access to a specialized knowledge base.

RULES:
1. Answer questions confidently when the Context below contains relevant information
2. If the question is about the knowledge base topics and you have context, provide a clear, helpful answer
3. ONLY refuse to answer if:
   - The question is clearly about unrelated topics (e.g., general programming)
   - The Context contains no relevant information at all
4. If refusing, respond with: "%[2]s"

Provide helpful, accurate responses using the Context when it's relevant.
Use markdown for readability but DO NOT use formal runbook/procedure headers.`, domain, insufficient),

		PortionExtract: fmt.Sprintf(`You are an expert in %s. Extract the SPECIFIC procedural or technical portion requested.
Formatting: Use "## 📋 [Procedure Name]", separators "---", numbered steps, and highlight T-Codes.
If multiple steps are involved, list them clearly. End with source attribution.`, domain),

		Insufficient: insufficient,
	}
}

// OfferMessage is the clarifying question returned for a first-time
// procedural request.
func OfferMessage(topic string) string {
	return fmt.Sprintf("I understand you're looking for information about **%s**. %s for this?", topic, PortionOfferMarker)
}

func condensePrompt(history []Turn, query string) string {
	var sb strings.Builder
	for _, t := range history {
		role := "User"
		if t.Role == RoleAssistant {
			role = "Assistant"
		}
		fmt.Fprintf(&sb, "%s: %s\n", role, t.Content)
	}
	return fmt.Sprintf("Given the conversation, rephrase the Follow Up Input to be a standalone question. \n"+
		"If the input is already standalone, return it unchanged.\n"+
		"Chat History:\n%s\nFollow Up Input: %s\nStandalone Question:", sb.String(), query)
}

func answerPrompt(contextBlock, question string) string {
	return fmt.Sprintf("Using the provided Context below (and our conversation history above if relevant), please answer the question.\n\n"+
		"Context:\n%s\n\nQuestion: %s", contextBlock, question)
}

func portionPrompt(contextBlock, question string) string {
	return fmt.Sprintf("Context:\n%s\n\nTask: Provide the specific portion for '%s'.\nAnswer:", contextBlock, question)
}

// FormatFullRunbook wraps a verbatim runbook file with its attribution footer.
func FormatFullRunbook(friendlyName, id, content string) string {
	return fmt.Sprintf("# 📘 %[1]s\n\n---\n\n%[3]s\n\n---\n\n**Document Source**: `runbooks/%[2]s.md`  \n**Retrieved**: %[1]s runbook from local system",
		friendlyName, id, content)
}
