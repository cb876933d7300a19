// Package app contains the core application logic. It resolves the layered
// configuration, owns the schema provider and exposes one method per
// command, decoupled from any specific entrypoint like the CLI.
package app
