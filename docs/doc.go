// Package docs provides generated OpenAPI documentation.
//
// Prompter API
//
//	@title			Prompter API
//	@version		1.0
//	@description	AI-illustrated storybook API for managing books, scenes, and image generation.
//
//	@contact.name	API Support
//	@contact.url	https://github.com/jackzampolin/prompter
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host		localhost:8090
//	@BasePath	/
//
//	@schemes	http
package docs

//go:generate swag init -g ../cmd/prompter/serve.go -o ./swagger --parseDependency --parseInternal
