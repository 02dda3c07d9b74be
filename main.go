// ABOUTME: Entry point for the ops console CLI
// ABOUTME: Routes to session, entity, and summary commands based on arguments
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/harperreed/opsdesk/cli"
	"github.com/harperreed/opsdesk/config"
)

const version = "0.1.0"

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	email := flag.String("email", "", "Identity email (skips the login prompt)")

	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("opsdesk version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if *email == "" {
		*email = os.Getenv("OPSDESK_EMAIL")
	}

	prompt := cli.NewPromptAuthenticator(*email)
	app, err := cli.NewApp(cfg, prompt)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer app.Close()

	command := args[0]
	commandArgs := args[1:]

	var cmdErr error
	switch command {
	case "login":
		cmdErr = cli.LoginCommand(app, prompt)
	case "status":
		cmdErr = cli.StatusCommand(app)
	case "summary":
		cmdErr = cli.SummaryCommand(app, commandArgs)
	case "calendar":
		cmdErr = cli.CalendarCommand(app, commandArgs)
	case "list-clients":
		cmdErr = cli.ListClientsCommand(app)
	case "add-client":
		cmdErr = cli.AddClientCommand(app, commandArgs)
	case "list-opportunities":
		cmdErr = cli.ListOpportunitiesCommand(app)
	case "add-opportunity":
		cmdErr = cli.AddOpportunityCommand(app, commandArgs)
	case "move-opportunity":
		cmdErr = cli.MoveOpportunityCommand(app, commandArgs)
	case "list-projects":
		cmdErr = cli.ListProjectsCommand(app)
	case "list-tasks":
		cmdErr = cli.ListTasksCommand(app, commandArgs)
	case "add-task":
		cmdErr = cli.AddTaskCommand(app, commandArgs)
	case "move-task":
		cmdErr = cli.MoveTaskCommand(app, commandArgs)
	case "add-transaction":
		cmdErr = cli.AddTransactionCommand(app, commandArgs)
	case "edit-transaction":
		cmdErr = cli.EditTransactionCommand(app, commandArgs)
	case "delete":
		cmdErr = cli.DeleteCommand(app, commandArgs)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
	if cmdErr != nil {
		log.Fatalf("Error: %v", cmdErr)
	}
}

func printUsage() {
	fmt.Println(`opsdesk - small business operations console

Usage:
  opsdesk [flags] <command> [command flags]

Session:
  login                Sign in with an allow-listed email
  status               Show access state and collection counts

Views:
  summary              Financial totals, pipeline counts, deliveries
  calendar             Month grid with transactions and deadlines
  list-clients         Clients sorted by name
  list-opportunities   Pipeline grouped by stage
  list-projects        Projects with board stage counts
  list-tasks           One project's board grouped by stage

Mutations:
  add-client           Create a client
  add-opportunity      Create an opportunity
  move-opportunity     Advance/retreat a pipeline stage
  add-task             Create a task under a project
  move-task            Advance/retreat a board stage
  add-transaction      Record an income or expense
  edit-transaction     Replace an existing transaction
  delete               Delete a record (requires --confirm)

Flags:
  -version             Show version
  -email               Identity email (or OPSDESK_EMAIL)`)
}
