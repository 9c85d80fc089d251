// Package config loads application configuration for aeromesh.
//
// Configuration comes from built-in defaults, an optional yaml file and
// environment variables, in ascending precedence. Environment variables use
// the AEROMESH_ prefix (AEROMESH_SERVER_ADDR, AEROMESH_STORAGE_PATH, ...);
// provider credentials additionally bind the conventional ANTHROPIC_API_KEY
// and OPENAI_API_KEY names.
package config
