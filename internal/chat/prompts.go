package chat

import (
	"fmt"
	"strings"

	"github.com/hyperjump/kotae/internal/models"
)

const answerSystemPrompt = "You are a Technical Documentation AI Assistant. Your role is to provide accurate and precise answers " +
	"based on the provided context chunks if possible. You are only allowed to discuss technical documentation " +
	"and related questions. If the requested information is not in the provided context, respond with " +
	"'I'm sorry, but I cannot answer that based on the given information.' " +
	"You must not make up answers. Here is the context and conversation history:"

const rephraseSystemPrompt = "You are a Technical Documentation AI Assistant. Your task is to rephrase user queries to make them " +
	"more explicit and clear, focusing only on technical documentation. Use the provided conversation history " +
	"to replace pronouns, vague terms, or implicit references with precise technical terms. " +
	"Do not add unrelated or fabricated information. If clarification is not possible, return the query unchanged.\n\n" +

	"Here is an example:\n\n" +

	"Conversation history:\n" +
	"user: How do I install the software?\n" +
	"assistant: You can install the software by running the `install.sh` script.\n\n" +
	"user: What does it do?\n" +
	"Query to be rephrased: How does the `install.sh` script work?\n\n" +

	"Now, use the conversation history and the provided query to rephrase the following question explicitly."

// serializeHistory renders messages as "role: content" lines.
func serializeHistory(history []models.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", msg.Role, msg.Content))
	}
	return strings.Join(lines, "\n")
}

// buildAnswerPrompt assembles the completion request: the assistant role
// framing, the retrieved chunks, the serialized history (which ends with the
// question being asked), then the actual conversation turns so the model sees
// the question as the final user message.
func buildAnswerPrompt(question string, chunkTexts []string, history []models.Message) []models.Message {
	historyWithQuestion := make([]models.Message, 0, len(history)+1)
	historyWithQuestion = append(historyWithQuestion, history...)
	historyWithQuestion = append(historyWithQuestion, models.Message{Role: models.RoleUser, Content: question})

	messages := []models.Message{
		{Role: models.RoleSystem, Content: answerSystemPrompt},
		{Role: models.RoleSystem, Content: "Context chunks:\n\n" + strings.Join(chunkTexts, "\n\n")},
		{Role: models.RoleSystem, Content: "Conversation history:\n\n" + serializeHistory(historyWithQuestion)},
	}
	messages = append(messages, history...)
	messages = append(messages, models.Message{Role: models.RoleUser, Content: question})
	return messages
}

// buildRephrasePrompt asks the model to resolve pronouns and implicit
// references in question against the session history.
func buildRephrasePrompt(question string, history []models.Message) []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: rephraseSystemPrompt},
		{Role: models.RoleUser, Content: fmt.Sprintf(
			"Conversation history:\n%s\n\nQuery to be rephrased: %s\n",
			serializeHistory(history), question)},
	}
}
