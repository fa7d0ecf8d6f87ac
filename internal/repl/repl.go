// Package repl provides an interactive console for querying a campaign.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"campaign-scribe/internal/logging"
	"campaign-scribe/internal/query"
)

// Command records one processed console input.
type Command struct {
	Input     string
	Output    string
	Err       error
	Timestamp time.Time
}

// REPL is an interactive query console bound to one campaign.
type REPL struct {
	orchestrator *query.Orchestrator
	campaignID   string
	logger       logging.Logger

	input  io.Reader
	output io.Writer

	history []Command

	promptColor *color.Color
	outputColor *color.Color
	errorColor  *color.Color
	infoColor   *color.Color
}

// NewREPL creates a console over the given orchestrator and campaign.
func NewREPL(orchestrator *query.Orchestrator, campaignID string, input io.Reader, output io.Writer, logger logging.Logger) *REPL {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &REPL{
		orchestrator: orchestrator,
		campaignID:   campaignID,
		logger:       logger.WithComponent("repl"),
		input:        input,
		output:       output,
		promptColor:  color.New(color.FgCyan, color.Bold),
		outputColor:  color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		infoColor:    color.New(color.FgYellow),
	}
}

// Start runs the console loop until EOF, ":quit" or context cancellation.
func (r *REPL) Start(ctx context.Context) error {
	r.printWelcome()

	scanner := bufio.NewScanner(r.input)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		r.showPrompt()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if done := r.processInput(ctx, input); done {
			return nil
		}
	}
}

// processInput handles one line; true means the session should end.
func (r *REPL) processInput(ctx context.Context, input string) bool {
	cmd := Command{Input: input, Timestamp: time.Now()}

	if strings.HasPrefix(input, ":") {
		done := r.handleSpecialCommand(input)
		r.history = append(r.history, cmd)
		return done
	}

	result, err := r.orchestrator.Run(ctx, r.campaignID, input)
	if err != nil {
		cmd.Err = err
		r.history = append(r.history, cmd)
		r.printError(fmt.Sprintf("Error: %v", err))
		r.logger.ErrorContext(ctx, "query failed", "error", err.Error())
		return false
	}

	cmd.Output = query.Compose(result)
	r.history = append(r.history, cmd)
	r.printOutput(cmd.Output)
	return false
}

func (r *REPL) handleSpecialCommand(input string) bool {
	switch strings.Fields(input)[0] {
	case ":quit", ":q", ":exit":
		r.printInfo("Goodbye!")
		return true
	case ":help", ":h":
		r.printHelp()
	case ":history":
		r.printHistory()
	default:
		r.printError(fmt.Sprintf("Unknown command %q. Try :help", input))
	}
	return false
}

func (r *REPL) printWelcome() {
	r.infoColor.Fprintf(r.output, "Campaign Scribe console (campaign %s)\n", r.campaignID)
	fmt.Fprintln(r.output, "Ask about characters, locations and sessions. :help for commands, :quit to leave.")
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.output, `Console commands:
  :help      show this help
  :history   show the commands of this session
  :quit      leave the console

Example queries:
  Items Elaria
  Elaria INT
  What happened at the Ruins
  Session 2 summary`)
}

func (r *REPL) printHistory() {
	if len(r.history) == 0 {
		r.printInfo("No history yet.")
		return
	}
	for i, cmd := range r.history {
		fmt.Fprintf(r.output, "%3d  %s  %s\n", i+1, cmd.Timestamp.Format("15:04:05"), cmd.Input)
	}
}

func (r *REPL) showPrompt() {
	r.promptColor.Fprint(r.output, "scribe> ")
}

func (r *REPL) printOutput(text string) {
	r.outputColor.Fprintln(r.output, text)
}

func (r *REPL) printError(message string) {
	r.errorColor.Fprintln(r.output, message)
}

func (r *REPL) printInfo(message string) {
	r.infoColor.Fprintln(r.output, message)
}
