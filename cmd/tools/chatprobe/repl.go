package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/threat-desk/backend/internal/model/chat"
	"github.com/zhouzirui/threat-desk/backend/internal/model/threat"
	"github.com/zhouzirui/threat-desk/backend/internal/service/conversation"
)

func runREPL(cmd *cobra.Command, _ []string) error {
	alerts, err := parseThreats(threatSpecs)
	if err != nil {
		return err
	}
	delay, err := cmd.Flags().GetDuration("delay")
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	feed := threat.NewFeed(alerts)
	sessions := conversation.NewManager(feed, conversation.Options{
		Delay:   conversation.FixedDelay(delay),
		Resolve: feed.Dismiss,
		Logger:  logger,
	})
	feed.OnChange(sessions.ObserveThreats)

	ctrl, err := sessions.CreateSession(cmd.Context())
	if err != nil {
		return err
	}
	return converse(cmd.InOrStdin(), cmd.OutOrStdout(), ctrl, feed)
}

// converse runs the read/reply loop until EOF or /quit.
func converse(in io.Reader, out io.Writer, ctrl *conversation.Controller, alerts threat.Source) error {
	printed := printFrom(out, ctrl.Messages(), 0)

	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "/quit":
			return nil
		case line == "/reset":
			ctrl.Reset()
			printed = printFrom(out, ctrl.Messages(), 0)
		case line == "/suggest":
			for i, action := range ctrl.Suggestions() {
				fmt.Fprintf(out, "  %d. %s -> %q\n", i+1, action.Label, action.Prompt)
			}
		case line == "/threats":
			printThreats(out, alerts.Snapshot())
		case strings.HasPrefix(line, "/resolve "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/resolve "))
			if err := ctrl.ResolveThreat(context.Background(), id); err != nil {
				fmt.Fprintf(out, "  ! %v\n", err)
				break
			}
			fmt.Fprintf(out, "  resolved %s\n", id)
		default:
			if err := ctrl.Submit(line); err != nil {
				if !errors.Is(err, conversation.ErrEmptyInput) {
					fmt.Fprintf(out, "  ! %v\n", err)
				}
				break
			}
			ctrl.Wait()
			// The user's own line is already on screen.
			printed = printFrom(out, ctrl.Messages(), printed+1)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func printThreats(out io.Writer, alerts []threat.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(out, "  no active threats")
		return
	}
	for _, a := range alerts {
		fmt.Fprintf(out, "  %s  %s (%s)", a.ID, a.Type, a.Severity)
		if a.IP != "" {
			fmt.Fprintf(out, " from %s", a.IP)
		}
		fmt.Fprintln(out)
	}
}

func printFrom(out io.Writer, messages []chat.Message, from int) int {
	for _, msg := range messages[min(from, len(messages)):] {
		if msg.FromBot() {
			fmt.Fprintf(out, "bot [%s]: %s\n", msg.Category, msg.Content)
		} else {
			fmt.Fprintf(out, "you: %s\n", msg.Content)
		}
	}
	return len(messages)
}
