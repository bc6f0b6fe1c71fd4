package service

import (
	"fmt"
	"strings"

	"github.com/LeeSpain/vision-sync-server/internal/domain"
	"github.com/LeeSpain/vision-sync-server/internal/qualify"
)

// PromptContext carries everything the system prompt needs for one turn.
type PromptContext struct {
	Agent         *domain.Agent
	Settings      *domain.ChatSettings
	TrainingPairs []*domain.TrainingPair
	Projects      []*domain.Project

	// UserTurns is the number of visitor messages so far, including the
	// current one.
	UserTurns int
	// Contact is what the extractor found before the model call.
	Contact qualify.ContactInfo

	// ContactAskThreshold is how many visitor turns may pass before the
	// agent starts asking for contact details.
	ContactAskThreshold int
}

// BuildSystemPrompt assembles the system prompt for a chat turn: persona,
// business context, training examples, project catalogue, the gated
// contact-collection instruction, and the response-length constraint.
func BuildSystemPrompt(pc PromptContext) string {
	var b strings.Builder

	name := "Maya"
	role := "AI assistant"
	personality := ""
	if pc.Agent != nil {
		if pc.Agent.Name != "" {
			name = pc.Agent.Name
		}
		if pc.Agent.Role != "" {
			role = pc.Agent.Role
		}
		personality = pc.Agent.Personality
	}

	fmt.Fprintf(&b, "You are %s, the %s for %s.\n", name, role, pc.Settings.BusinessName)
	if personality != "" {
		b.WriteString(personality)
		b.WriteString("\n")
	}
	b.WriteString("You help website visitors learn about our projects and services, and you qualify potential customers.\n")

	if len(pc.Projects) > 0 {
		b.WriteString("\nCurrent projects you can talk about:\n")
		for _, p := range pc.Projects {
			fmt.Fprintf(&b, "- %s (%s): %s\n", p.Title, p.Category, p.Description)
		}
	}

	if len(pc.TrainingPairs) > 0 {
		b.WriteString("\nAnswer in line with these examples:\n")
		for _, tp := range pc.TrainingPairs {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", tp.Question, tp.Answer)
		}
	}

	if shouldAskForContact(pc) {
		b.WriteString("\nThe visitor has been chatting for a while without leaving contact details. Politely ask for their name and email so our team can follow up.\n")
	}

	fmt.Fprintf(&b, "\nKeep every reply under %d words. Be warm, concrete, and never invent project details.", pc.Settings.MaxReplyWords)

	return b.String()
}

// shouldAskForContact gates the contact-collection instruction: only after
// more than the threshold number of visitor turns, and only while no
// contact field has been captured yet.
func shouldAskForContact(pc PromptContext) bool {
	threshold := pc.ContactAskThreshold
	if threshold <= 0 {
		threshold = 2
	}
	if pc.UserTurns <= threshold {
		return false
	}
	return !pc.Contact.HasEmail() && !pc.Contact.HasPhone()
}
