// Package driving defines the interfaces that external actors use to
// drive the core (primary ports). The CLI commands and the interactive
// chat session consume these; core services implement them.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driving
