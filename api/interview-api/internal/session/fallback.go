// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package internal_session

// FallbackQuestions is served whenever remote question generation fails
// or returns a malformed payload. A degraded interview beats no
// interview. The content is user-visible contract: tests assert against
// it verbatim.
var FallbackQuestions = []string{
	"Tell me about yourself and your background.",
	"What interests you about this role?",
	"Describe a challenging project you worked on and how you handled it.",
	"What are your greatest strengths and weaknesses?",
	"Where do you see yourself in five years?",
}

// PlaceholderAnswer is substituted into the transcript when an answer
// could not be uploaded or transcribed.
const PlaceholderAnswer = "Could not process answer."
