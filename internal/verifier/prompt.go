package verifier

import "fmt"

const promptTemplate = `You are verifying if an image shows evidence of completing a habit goal.

Goal: "%s"

Analyze the image and determine if it provides convincing proof that the user completed this goal.

Respond ONLY with valid JSON in this exact format:
{
  "verified": true or false,
  "confidence": 0.0 to 1.0,
  "reasoning": "Brief explanation of your decision (1-2 sentences)"
}

Be strict but fair. The image should clearly show the habit being performed or completed.`

// BuildPrompt embeds the goal title verbatim and asks for a structured decision.
func BuildPrompt(goalTitle string) string {
	return fmt.Sprintf(promptTemplate, goalTitle)
}
