// Package prompt builds the instruction payloads sent to the model for page
// creation, page edits and backend diagrams.
package prompt

import (
	"fmt"

	"github.com/ziadkadry99/pageforge/internal/llm"
)

const createSystemPrompt = `You are an expert web developer specializing in Tailwind CSS.
Your task is to generate a single, complete HTML file based on the user's prompt.
- The HTML MUST be a single file.
- Use Tailwind CSS for all styling. Include the CDN script: <script src="https://cdn.tailwindcss.com"></script> in the <head>.
- Use placeholder images from "https://placehold.co/" for any images needed (e.g., https://placehold.co/600x400).
- Ensure the code is clean, well-formatted, and directly usable.
- DO NOT include any explanations, comments, or markdown formatting like ` + "```html" + `. Only output the raw HTML code.`

const editSystemPrompt = `You are an expert web developer specializing in Tailwind CSS. You will be given an existing HTML file and a user request to modify it.
Your task is to return the **entire, new, and complete** HTML file with the requested change implemented.
- Return the whole document, never a diff or a fragment.
- DO NOT add explanations, apologies, or any text outside of the HTML code itself.
- Ensure the Tailwind CDN script remains in the <head>.
- The output must be only the raw HTML code, without any markdown formatting like ` + "```html" + `.`

const visualizeSystemPrompt = `You are a software architect. Based on the HTML code you are given, generate a simple ASCII art diagram representing the layout of the potential backend that will be required for this webpage.
- Use characters like +, -, |, #, and text labels to show sections.
- Keep it clean, simple, and enclosed in a single code block.
- Do not add any explanation, just the ASCII diagram inside a code block.`

const editUserTemplate = "Here is the current code:\n```html\n%s\n```\n\nNow, apply this change: \"%s\""

const visualizeUserTemplate = "HTML Code:\n```html\n%s\n```"

// Payload is one instruction for the model, split into its system and user parts.
type Payload struct {
	System string
	User   string
}

// Create formats a request for a brand-new page.
func Create(instruction string) Payload {
	return Payload{
		System: createSystemPrompt,
		User:   fmt.Sprintf("User Prompt: \"%s\"", instruction),
	}
}

// Edit formats a request to rewrite currentMarkup with the instruction applied.
// The existing document is embedded verbatim.
func Edit(instruction, currentMarkup string) Payload {
	return Payload{
		System: editSystemPrompt,
		User:   fmt.Sprintf(editUserTemplate, currentMarkup, instruction),
	}
}

// Visualize formats a request for a plain-text backend diagram of markup.
func Visualize(markup string) Payload {
	return Payload{
		System: visualizeSystemPrompt,
		User:   fmt.Sprintf(visualizeUserTemplate, markup),
	}
}

// Messages returns the payload as a system and a user message.
func (p Payload) Messages() []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: p.System},
		{Role: llm.RoleUser, Content: p.User},
	}
}

func (p Payload) String() string {
	return p.System + "\n\n" + p.User
}
