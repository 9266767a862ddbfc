package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/user/ksec-copilot/pkg/adk"
	"github.com/user/ksec-copilot/pkg/engine"
)

// runReview walks the user through the suggestion list one decision at a
// time. Every decision is reversible until the session is finished.
func runReview(session *engine.ReviewSession) {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("\n---------------------------------------------------------")
	fmt.Printf("Review session %s: %d suggestion(s) to review.\n", session.ID, session.Len())
	fmt.Println("Commands: [a]ccept, [r]eject, [u]ndo, [s]how document, [q]uit")
	fmt.Println("---------------------------------------------------------")

	for !session.Complete() {
		current, err := session.Current()
		if err != nil {
			break
		}

		fmt.Printf("\n(%d/%d) %s\n", session.Cursor()+1, session.Len(), current.ID)
		fmt.Printf("  Type:     %s\n", current.Type)
		fmt.Printf("  Path:     %s\n", current.Path)
		if current.OriginalValue != "" {
			fmt.Printf("  Original: %s\n", current.OriginalValue)
		}
		fmt.Printf("  Proposed: %s\n", indentBlock(current.ProposedValue))
		fmt.Printf("  Reason:   %s\n", current.Reason)

		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "a", "accept":
			if err := session.Accept(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "r", "reject":
			if err := session.Reject(); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		case "u", "undo":
			if err := session.Undo(); err != nil {
				if errors.Is(err, engine.ErrNothingToUndo) {
					fmt.Println("Nothing to undo yet.")
				} else {
					fmt.Printf("Error: %v\n", err)
				}
			}
		case "s", "show":
			fmt.Println("\n--- current document ---")
			fmt.Println(session.Document())
			fmt.Println("--- end ---")
		case "q", "quit":
			fmt.Println("Review aborted; keeping decisions made so far.")
			return
		default:
			fmt.Println("Unknown command. Use a / r / u / s / q.")
		}
	}

	fmt.Println("\nReview complete. Summary:")
	for _, d := range session.Summary() {
		status := "skipped"
		if d.Applied {
			status = "applied"
		}
		fmt.Printf("  [%s] %s %s (%s)\n", status, d.Suggestion.Type, d.Suggestion.Path, d.Suggestion.ID)
	}
}

// runChat lets the user ask follow-up questions about a finished analysis.
func runChat(ctx context.Context, provider adk.Provider, report string) {
	chat := adk.NewChatSession(provider, report)
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("\nFollow-up chat. Type 'quit' or 'exit' to stop.")
	for {
		fmt.Print("\n? ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			return
		}

		answer, err := chat.Ask(ctx, question)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n", answer)
	}
}

func indentBlock(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return "\n    " + strings.ReplaceAll(s, "\n", "\n    ")
}
