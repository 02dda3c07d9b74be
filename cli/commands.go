// ABOUTME: Console CLI commands
// ABOUTME: Login, status, entity listing, mutations, and summaries
package cli

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/harperreed/opsdesk/config"
	"github.com/harperreed/opsdesk/models"
	"github.com/harperreed/opsdesk/reports"
)

// LoginCommand signs in interactively. For the rest backend with no
// stored credential it also captures the store token and saves it.
func LoginCommand(app *App, prompt *PromptAuthenticator) error {
	if app.Config.Backend == config.BackendRest && app.Config.StoreToken == "" {
		token, err := PromptSecret("Store token")
		if err != nil {
			return err
		}
		app.Config.StoreToken = token
		if err := app.Config.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	identity, err := prompt.BeginInteractiveLogin()
	if err != nil {
		return err
	}
	if err := app.RequireAccess(); err != nil {
		return fmt.Errorf("%s is not on the allow-list", identity.Email)
	}
	fmt.Printf("Signed in as %s\n", identity.Email)
	return nil
}

// StatusCommand prints the session and collection status.
func StatusCommand(app *App) error {
	fmt.Printf("Access: %s\n", app.Session.Gate().Access())
	if err := app.RequireAccess(); err != nil {
		return nil
	}
	fmt.Printf("Clients: %d\n", len(app.Adapter.Clients()))
	fmt.Printf("Opportunities: %d\n", len(app.Adapter.Opportunities()))
	fmt.Printf("Projects: %d\n", len(app.Adapter.Projects()))
	fmt.Printf("Transactions: %d\n", len(app.Adapter.Transactions()))
	fmt.Printf("Users: %d\n", len(app.Adapter.Users()))
	return nil
}

// SummaryCommand prints the dashboard rollup.
func SummaryCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	from := fs.String("from", "", "Start date for financial totals (YYYY-MM-DD)")
	to := fs.String("to", "", "End date for financial totals (YYYY-MM-DD)")
	byCategory := fs.Bool("by-category", false, "Break totals down by category")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}

	transactions := app.Adapter.Transactions()
	totals := reports.Totals(transactions, reports.DateRange{From: *from, To: *to})
	fmt.Printf("Income:  %.2f\n", totals.Income)
	fmt.Printf("Expense: %.2f\n", totals.Expense)
	fmt.Printf("Balance: %.2f\n", totals.Balance)
	if recurring := reports.RecurringExpenses(transactions); recurring > 0 {
		fmt.Printf("Recurring expenses: %.2f/month\n", recurring)
	}
	if *byCategory {
		fmt.Println("\nBy category:")
		for category, t := range reports.TotalsByCategory(transactions, reports.DateRange{From: *from, To: *to}) {
			fmt.Printf("  %-20s income %.2f  expense %.2f\n", category, t.Income, t.Expense)
		}
	}

	opportunities := app.Adapter.Opportunities()
	counts := reports.PipelineCounts(opportunities)
	fmt.Println("\nPipeline:")
	for _, stage := range models.PipelineStages {
		fmt.Printf("  %-12s %d\n", stage, counts[stage])
	}
	values := reports.PipelineValue(opportunities)
	won := reports.ClosedWon(opportunities)
	fmt.Printf("Won: %d deals worth %.2f (open pipeline %.2f)\n",
		won.Count, won.Value,
		values[models.StageLead]+values[models.StageProposal]+values[models.StageNegotiation])

	projects := app.Adapter.Projects()
	fmt.Printf("Active projects: %d\n", reports.ActiveProjects(projects))

	today := time.Now().UTC().Format("2006-01-02")
	upcoming := reports.UpcomingDeliveries(projects, today)
	if len(upcoming) > 0 {
		fmt.Println("\nUpcoming deliveries:")
		for _, p := range upcoming {
			fmt.Printf("  %s  %s\n", p.Deadline, p.Name)
		}
	}
	return nil
}

// ListClientsCommand prints the client list, sorted by name.
func ListClientsCommand(app *App) error {
	if err := app.RequireAccess(); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tCOMPANY")
	for _, c := range app.Adapter.Clients() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.Company)
	}
	return w.Flush()
}

// AddClientCommand creates a client.
func AddClientCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-client", flag.ExitOnError)
	name := fs.String("name", "", "Client name (required)")
	email := fs.String("email", "", "Email address")
	phone := fs.String("phone", "", "Phone number")
	company := fs.String("company", "", "Company name")
	taxID := fs.String("tax-id", "", "Tax identifier")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	return app.Gateway.CreateClient(models.Client{
		Name:    *name,
		Email:   *email,
		Phone:   *phone,
		Company: *company,
		TaxID:   *taxID,
	})
}

// ListOpportunitiesCommand prints the pipeline grouped by stage.
func ListOpportunitiesCommand(app *App) error {
	if err := app.RequireAccess(); err != nil {
		return err
	}
	grouped := models.GroupByStage(app.Adapter.Opportunities())
	for _, stage := range models.PipelineStages {
		fmt.Printf("%s:\n", stage)
		for _, o := range grouped[stage] {
			fmt.Printf("  %s  %-30s %10.2f  %s\n", o.ID, o.Title, o.Value, o.ClientName)
		}
	}
	return nil
}

// AddOpportunityCommand creates an opportunity.
func AddOpportunityCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-opportunity", flag.ExitOnError)
	title := fs.String("title", "", "Opportunity title (required)")
	clientID := fs.String("client", "", "Client id")
	value := fs.String("value", "", "Deal value (required)")
	description := fs.String("description", "", "Description")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	return app.Gateway.CreateOpportunity(models.Opportunity{
		Title:       *title,
		ClientID:    *clientID,
		Description: *description,
	}, *value)
}

// MoveOpportunityCommand advances or retreats one pipeline stage.
func MoveOpportunityCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("move-opportunity", flag.ExitOnError)
	id := fs.String("id", "", "Opportunity id (required)")
	back := fs.Bool("back", false, "Retreat instead of advance")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	if *back {
		return app.Gateway.RetreatOpportunity(*id)
	}
	return app.Gateway.AdvanceOpportunity(*id)
}

// ListProjectsCommand prints projects with their board counts.
func ListProjectsCommand(app *App) error {
	if err := app.RequireAccess(); err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tDEADLINE\tBACKLOG\tIN PROGRESS\tDONE\tREVIEW")
	for _, p := range app.Adapter.Projects() {
		counts := reports.BoardCounts(p)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			p.ID, p.Name, p.Status, p.Deadline,
			counts[models.BoardBacklog], counts[models.BoardInProgress],
			counts[models.BoardDone], counts[models.BoardReview])
	}
	return w.Flush()
}

// ListTasksCommand prints one project's board grouped by stage.
func ListTasksCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-tasks", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id (required)")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	project, ok := app.Adapter.ProjectByID(*projectID)
	if !ok {
		return fmt.Errorf("unknown project %q", *projectID)
	}
	grouped := models.GroupByBoardStage(project.TaskList())
	for _, stage := range models.BoardStages {
		fmt.Printf("%s:\n", stage)
		for _, task := range grouped[stage] {
			line := task.Title
			if task.Priority != "" {
				line += " [" + task.Priority + "]"
			}
			if task.DueDate != "" {
				line += " due " + task.DueDate
			}
			fmt.Printf("  %s  %s\n", task.ID, line)
		}
	}
	return nil
}

// AddTaskCommand creates a task under a project.
func AddTaskCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-task", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id (required)")
	title := fs.String("title", "", "Task title (required)")
	priority := fs.String("priority", "", "Priority: low, medium, high")
	assignee := fs.String("assignee", "", "Assignee user id")
	dueDate := fs.String("due", "", "Due date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	return app.Gateway.AddTask(*projectID, models.Task{
		Title:    *title,
		Priority: *priority,
		Assignee: *assignee,
		DueDate:  *dueDate,
	})
}

// MoveTaskCommand advances or retreats one board stage.
func MoveTaskCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("move-task", flag.ExitOnError)
	projectID := fs.String("project", "", "Project id (required)")
	taskID := fs.String("id", "", "Task id (required)")
	back := fs.Bool("back", false, "Retreat instead of advance")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	if *back {
		return app.Gateway.RetreatTask(*projectID, *taskID)
	}
	return app.Gateway.AdvanceTask(*projectID, *taskID)
}

// AddTransactionCommand records an income or expense.
func AddTransactionCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-transaction", flag.ExitOnError)
	txType := fs.String("type", "", "Transaction type: income or expense (required)")
	category := fs.String("category", "", "Category")
	amount := fs.String("amount", "", "Amount (required, non-negative)")
	date := fs.String("date", "", "Date (YYYY-MM-DD, required)")
	description := fs.String("description", "", "Description")
	recurring := fs.Bool("recurring", false, "Recurring monthly")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	return app.Gateway.CreateTransaction(models.Transaction{
		Type:        *txType,
		Category:    *category,
		Date:        *date,
		Description: *description,
		IsRecurring: *recurring,
	}, *amount)
}

// EditTransactionCommand replaces an existing transaction.
func EditTransactionCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("edit-transaction", flag.ExitOnError)
	id := fs.String("id", "", "Transaction id (required)")
	txType := fs.String("type", "", "Transaction type: income or expense (required)")
	category := fs.String("category", "", "Category (required)")
	amount := fs.String("amount", "", "Amount (required, non-negative)")
	date := fs.String("date", "", "Date (YYYY-MM-DD, required)")
	description := fs.String("description", "", "Description")
	recurring := fs.Bool("recurring", false, "Recurring monthly")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	return app.Gateway.UpdateTransaction(models.Transaction{
		ID:          *id,
		Type:        *txType,
		Category:    *category,
		Date:        *date,
		Description: *description,
		IsRecurring: *recurring,
	}, *amount)
}

// CalendarCommand prints the month grid with bucketed entries.
func CalendarCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("calendar", flag.ExitOnError)
	monthFlag := fs.String("month", "", "Month to show (YYYY-MM, default current)")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}

	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	if *monthFlag != "" {
		parsed, err := time.Parse("2006-01", *monthFlag)
		if err != nil {
			return fmt.Errorf("invalid month %q, want YYYY-MM", *monthFlag)
		}
		year, month = parsed.Year(), parsed.Month()
	}

	cells := reports.MonthGrid(year, month, app.Adapter.Transactions(), app.Adapter.Projects())
	fmt.Printf("%s %d\n", month, year)
	for _, cell := range cells {
		if !cell.InMonth || (len(cell.Transactions) == 0 && len(cell.Deadlines) == 0) {
			continue
		}
		fmt.Printf("%s\n", cell.ISODate())
		for _, tx := range cell.Transactions {
			fmt.Printf("  %s %.2f %s\n", tx.Type, tx.Amount, tx.Description)
		}
		for _, p := range cell.Deadlines {
			fmt.Printf("  deadline: %s\n", p.Name)
		}
	}
	return nil
}

// DeleteCommand removes a record of any top-level collection. --confirm
// is mandatory; without it nothing is written.
func DeleteCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	collection := fs.String("collection", "", "Collection: clients, opportunities, projects, transactions")
	id := fs.String("id", "", "Record id (required)")
	confirm := fs.Bool("confirm", false, "Confirm the deletion")
	_ = fs.Parse(args)

	if err := app.RequireAccess(); err != nil {
		return err
	}
	switch *collection {
	case "clients":
		return app.Gateway.DeleteClient(*id, *confirm)
	case "opportunities":
		return app.Gateway.DeleteOpportunity(*id, *confirm)
	case "projects":
		return app.Gateway.DeleteProject(*id, *confirm)
	case "transactions":
		return app.Gateway.DeleteTransaction(*id, *confirm)
	default:
		return fmt.Errorf("unknown collection %q", *collection)
	}
}
