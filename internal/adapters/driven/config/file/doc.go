// Package file keeps configuration and prompt templates under the docchat
// home directory (~/.docchat by default): settings in config.toml and the
// chat system prompt in prompts/.
package file
