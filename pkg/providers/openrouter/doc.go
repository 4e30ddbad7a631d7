// Package openrouter provides an llm.Client for the OpenRouter API.
//
// OpenRouter routes OpenAI-style chat completions to many upstream models.
// Set Extra["site_url"] and Extra["app_name"] to send the attribution
// headers OpenRouter uses for its rankings.
package openrouter
