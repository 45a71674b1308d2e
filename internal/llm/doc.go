// Package llm categorizes leads with a language model. It supports OpenAI,
// Groq, Anthropic and Gemini, and wraps them in a gateway that retries,
// rate limits and caches calls and falls back to keyword rules when the model
// cannot be reached.
package llm
