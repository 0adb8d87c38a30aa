// Answerstream CLI entry point
//
// Answerstream streams cleaned, relevance-scored answers from Bedrock and
// OpenAI chat models to stdout, WebSocket clients or API Gateway connections.
package main

import "github.com/jbctechsolutions/answerstream/internal/presentation/cli/commands"

func main() {
	commands.Execute()
}
