package services

import (
	"fmt"
	"strings"

	"chatstream-backend/internal/models"
)

// Prompt assembly. Pure functions, deterministic given their inputs; no
// network or persistence side effects.

// formatHistory renders prior turns as role-labeled lines for embedding in a
// prompt.
func formatHistory(history []models.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role.PromptLabel(), msg.Text))
	}
	return strings.Join(lines, "\n")
}

// greetingPrompt instructs a warm reply to a social greeting without
// self-identification.
func greetingPrompt(message string) string {
	return fmt.Sprintf("The user greeted you with: %q\n\n"+
		"Respond warmly and naturally as a helpful assistant. But do not mention your name, "+
		"that you are an AI assistant, or describe what you are. "+
		"Include a friendly tone, maybe an emoji if appropriate, and invite them to ask their question.",
		message)
}

// rewritePrompt asks for a standalone web search query resolving references
// in the latest message against the conversation so far.
func rewritePrompt(history []models.Message, message string) string {
	return fmt.Sprintf("You are an AI assistant helping a user search the web.\n\n"+
		"Given the conversation so far and the user's latest message, rewrite the latest message "+
		"into a complete, standalone, and precise web search query. "+
		"Preserve the user's intent, avoid generalizations, and resolve vague references "+
		"like 'and', 'what about', or 'who'.\n\n"+
		"Chat history:\n%s\n\n"+
		"Latest message: %q\n\n"+
		"Rewritten standalone query:",
		formatHistory(history), message)
}

// webSearchPrompt embeds the evidence summary, the formatted history and the
// user message with fixed structural instructions.
func webSearchPrompt(evidenceSummary string, history []models.Message, message string) string {
	return fmt.Sprintf("# Role\n"+
		"You are a well-informed and helpful assistant continuing an ongoing conversation with a user.\n\n"+
		"# Context\n"+
		"Here is helpful information from a recent web search:\n%s\n\n"+
		"# Chat History\n%s\n\n"+
		"# User Query\n"+
		"The user now asks:\n%q\n\n"+
		"# Guidelines\n"+
		"- Respond accurately and thoroughly using the provided context and prior messages.\n"+
		"- Tailor your depth to the nature of the question (short if simple, detailed if complex).\n"+
		"- If the topic is broad, organize your response into clear, relevant sections (e.g., `Politics`, `Military`, `Economy`, `Society`, etc.).\n"+
		"# Important\n"+
		"- If the question is ambiguous, briefly address multiple interpretations.\n"+
		"- Only include a **`Summary`** section at the end **if it adds value** beyond the main content.\n"+
		"- Always end with a warm, supportive closing that invites follow-up questions.\n"+
		"# Style Tips\n"+
		"- Use a natural, conversational tone and avoid sounding robotic or overly formal.\n"+
		"- Use **emojis in bullet points** when they help make information more clear and visually accessible.\n"+
		"- Keep your language clear and reader-friendly.\n",
		evidenceSummary, formatHistory(history), message)
}

// plainPrompt embeds the user message with fixed stylistic instructions for
// the unaugmented strategy.
func plainPrompt(message string) string {
	return fmt.Sprintf("You are a well-informed and helpful assistant. A user has asked the following:\n%q\n\n"+
		"# Guidelines\n"+
		"1. Respond with thoroughness, clarity, and helpfulness, adapting to the complexity of the user's query. Respond directly without thanks or commentary about the prompt itself.\n"+
		"2. For broad or complex topics, organize the response into clearly labeled sections (e.g., Politics, Military, Economy, Diplomacy, Society, etc.).\n"+
		"3. Maintain a natural, conversational tone throughout.\n"+
		"4. Use current, credible sources if web search results are available.\n\n"+
		"# Important\n"+
		"1. Match the depth and format of your response to the query type:\n"+
		"   a. For simple or factual questions: provide a brief, direct answer.\n"+
		"   b. For complex or open-ended questions: offer a structured, detailed explanation.\n"+
		"2. If the question is ambiguous, briefly cover multiple possible interpretations.\n"+
		"3. Include a Summary section only if it adds value (i.e., when it improves clarity or reinforces key points).\n"+
		"4. Conclude with a warm, encouraging closing, inviting follow-up or deeper questions.\n\n"+
		"# Style Tips\n"+
		"1. Use bullet points with emojis when helpful for clarity and visual structure.\n"+
		"2. Focus on clarity over verbosity and avoid over-explaining unless context demands it.\n"+
		"3. Avoid robotic or overly formal tone, keep it friendly, human-like, and informed.\n"+
		"4. Maintain flexibility and don't force summaries or sections if they don't serve the user's intent.\n",
		message)
}
