// Deskagent is an autonomous customer-support agent.
//
// It drives a local reasoning model through a bounded control loop,
// with every side effect (orders, refunds, tickets, notifications)
// behind an explicit action registry. Configuration is loaded from a
// single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	deskagent chat               Interactive support session on stdin
//	deskagent ask <question>     Ask a single question (for testing)
//	deskagent initdb [-seed]     Create the database schema (optionally with demo data)
//	deskagent tickets            List open escalation tickets
//	deskagent tickets <id>       Show one ticket
//	deskagent tickets -resolve <id>  Mark a ticket resolved
//	deskagent sessions           List conversation sessions
//	deskagent version            Print version and build information
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/calyx-systems/deskagent/internal/actions"
	"github.com/calyx-systems/deskagent/internal/agent"
	"github.com/calyx-systems/deskagent/internal/buildinfo"
	"github.com/calyx-systems/deskagent/internal/config"
	"github.com/calyx-systems/deskagent/internal/escalate"
	"github.com/calyx-systems/deskagent/internal/faq"
	"github.com/calyx-systems/deskagent/internal/llm"
	"github.com/calyx-systems/deskagent/internal/notify"
	"github.com/calyx-systems/deskagent/internal/payment"
	"github.com/calyx-systems/deskagent/internal/store"
)

// main constructs the OS-level environment and delegates to run so
// the command surface can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments by hand. The flag package relies on
// package-level globals, and the argument surface here is small
// enough that manual parsing stays clearer than a CLI framework.
func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var configPath string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	switch command {
	case "chat":
		return runChat(ctx, stdout, configPath, cmdArgs)
	case "ask":
		if len(cmdArgs) == 0 {
			return fmt.Errorf("usage: deskagent ask <question>")
		}
		return runAsk(ctx, stdout, configPath, cmdArgs)
	case "initdb":
		return runInitDB(stdout, configPath, cmdArgs)
	case "tickets":
		return runTickets(stdout, configPath, cmdArgs)
	case "sessions":
		return runSessions(stdout, configPath)
	case "version":
		return runVersion(stdout)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %q (run deskagent -h for usage)", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Deskagent - Autonomous Customer Support Agent")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: deskagent [flags] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  chat [-session id]   Interactive support session on stdin")
	fmt.Fprintln(w, "  ask <question>       Ask a single question (for testing)")
	fmt.Fprintln(w, "  initdb [-seed]       Create the database schema, optionally with demo data")
	fmt.Fprintln(w, "  tickets [id]         List open escalation tickets, or show one")
	fmt.Fprintln(w, "  tickets -resolve id  Mark an escalation ticket resolved")
	fmt.Fprintln(w, "  sessions             List conversation sessions")
	fmt.Fprintln(w, "  version              Show version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -config <path>   Path to config file (default: auto-discover)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Config search order:")
	fmt.Fprintln(w, "  "+strings.Join(config.DefaultSearchPaths(), ", "))
	return nil
}

func runVersion(w io.Writer) error {
	fmt.Fprintln(w, buildinfo.String())
	info := buildinfo.Info()
	for _, k := range []string{"version", "git_commit", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// newLogger standardizes handler configuration across subcommands.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}))
}

func loadConfig(explicit string) (*config.Config, error) {
	path, err := config.FindConfig(explicit)
	if err != nil {
		// No config file anywhere: run on defaults.
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildAgent wires the full stack: store, clients, sinks, registry,
// escalation manager, control loop.
func buildAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*agent.Agent, *store.Store, func(), error) {
	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	var sinks []notify.Sink
	var mqttSink *notify.MQTTSink
	if cfg.SMTP.Host != "" {
		sinks = append(sinks, notify.NewEmailSink(cfg.SMTP))
	}
	if cfg.ChatOps.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.ChatOps.WebhookURL, cfg.ChatOps.Channel))
	}
	if cfg.MQTT.Broker != "" {
		mqttSink = notify.NewMQTTSink(cfg.MQTT, logger)
		if err := mqttSink.Connect(ctx); err != nil {
			logger.Warn("mqtt sink unavailable", "error", err)
		} else {
			sinks = append(sinks, mqttSink)
		}
	}
	dispatcher := notify.NewDispatcher(logger, sinks...)

	registry := actions.DefaultRegistry(actions.Deps{
		Store:        db,
		Processor:    payment.NewStripeClient(cfg.Payment.BaseURL, cfg.Payment.APIKey),
		FAQ:          faq.NewClient(cfg.FAQ.URL, cfg.FAQ.Collection),
		FAQResults:   cfg.FAQ.Results,
		Notifier:     dispatcher,
		RefundLimits: cfg.Payment.RefundLimits,
		Logger:       logger,
	})

	ollama := llm.NewOllamaClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout())

	a := agent.New(ollama, db, registry, escalate.NewManager(db), dispatcher, logger, agent.Config{
		MaxIterations:    cfg.Agent.MaxIterations,
		ContextExchanges: cfg.Agent.ContextExchanges,
		RecallMessages:   cfg.Agent.RecallMessages,
		FastPath:         cfg.Agent.FastPathEnabled(),
	})

	cleanup := func() {
		if mqttSink != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mqttSink.Close(shutdownCtx); err != nil {
				logger.Warn("mqtt disconnect", "error", err)
			}
		}
		db.Close()
	}
	return a, db, cleanup, nil
}

func runAsk(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	logger := newLogger(stdout, slog.LevelWarn)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	a, _, cleanup, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	response, err := a.Process(ctx, fmt.Sprintf("cli-%d", time.Now().Unix()), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}
	fmt.Fprintln(stdout, response)
	return nil
}

func runChat(ctx context.Context, stdout io.Writer, configPath string, args []string) error {
	sessionID := fmt.Sprintf("chat-%d", time.Now().Unix())
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-session" && i+1 < len(args):
			sessionID = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-session="):
			sessionID = strings.TrimPrefix(args[i], "-session=")
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.LogLevel != "" {
		if parsed, err := config.ParseLogLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	logger := newLogger(os.Stderr, level)

	a, _, cleanup, err := buildAgent(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ollama := llm.NewOllamaClient(cfg.Ollama.URL, cfg.Ollama.Model, cfg.Ollama.Timeout())
	if err := ollama.Ping(ctx); err != nil {
		logger.Warn("reasoning engine not reachable, replies will fail over to apologies", "error", err)
	}

	fmt.Fprintf(stdout, "deskagent %s - session %s (ctrl-d to exit)\n", buildinfo.String(), sessionID)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(stdout, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reply, err := a.Process(ctx, sessionID, line)
		if err != nil {
			logger.Error("process failed", "error", err)
			continue
		}
		fmt.Fprintf(stdout, "\n%s\n\n", reply)
	}
	fmt.Fprintln(stdout)
	return scanner.Err()
}

func runInitDB(stdout io.Writer, configPath string, args []string) error {
	seed := false
	for _, a := range args {
		if a == "-seed" || a == "--seed" {
			seed = true
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(stdout, "database ready at %s\n", cfg.Database.Path)

	if seed {
		if err := seedDemoData(db); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		fmt.Fprintln(stdout, "demo data loaded")
	}
	return nil
}

func runTickets(stdout io.Writer, configPath string, args []string) error {
	var resolveID, showID string
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-resolve" && i+1 < len(args):
			resolveID = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-resolve="):
			resolveID = strings.TrimPrefix(args[i], "-resolve=")
		case !strings.HasPrefix(args[i], "-") && showID == "":
			showID = args[i]
		default:
			return fmt.Errorf("usage: deskagent tickets [id | -resolve <id>]")
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	escalations := escalate.NewManager(db)

	switch {
	case resolveID != "":
		if err := escalations.Resolve(resolveID); err != nil {
			return fmt.Errorf("resolve ticket: %w", err)
		}
		fmt.Fprintf(stdout, "ticket %s resolved\n", resolveID)
		return nil

	case showID != "":
		t, err := escalations.Ticket(showID)
		if err != nil {
			return fmt.Errorf("lookup ticket: %w", err)
		}
		return printTicket(stdout, *t)
	}

	tickets, err := escalations.OpenTickets()
	if err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	if len(tickets) == 0 {
		fmt.Fprintln(stdout, "no open tickets")
		return nil
	}
	for _, t := range tickets {
		if err := printTicket(stdout, t); err != nil {
			return err
		}
	}
	return nil
}

func printTicket(w io.Writer, t store.Ticket) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	entry := map[string]any{
		"ticket_id":  t.TicketID,
		"priority":   t.Priority,
		"issue_type": t.IssueType,
		"status":     t.Status,
		"created_at": t.CreatedAt.Format(time.RFC3339),
		"session_id": t.SessionID,
	}
	if t.ResolvedAt != nil {
		entry["resolved_at"] = t.ResolvedAt.Format(time.RFC3339)
	}
	return enc.Encode(entry)
}

func runSessions(stdout io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	sessions, err := db.Sessions()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(stdout, "no sessions")
		return nil
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	for _, si := range sessions {
		if err := enc.Encode(map[string]any{
			"session_id":    si.SessionID,
			"messages":      si.MessageCount,
			"started_at":    si.StartedAt.Format(time.RFC3339),
			"last_activity": si.LastActivity.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}
	return nil
}

// seedDemoData loads a small, self-consistent set of customers,
// orders, payments, and tracking rows for local testing.
func seedDemoData(db *store.Store) error {
	now := time.Now()

	customers := []store.Customer{
		{CustomerID: "CUST001", Name: "Alice Smith", Email: "alice@example.com", Phone: "+1-555-0101"},
		{CustomerID: "CUST002", Name: "Rahul Mehta", Email: "rahul@example.com", Phone: "+91-98-0000-0202"},
		{CustomerID: "CUST003", Name: "Dana Flores", Email: "dana@example.com", Phone: "+1-555-0303"},
	}
	for _, c := range customers {
		if err := db.InsertCustomer(c); err != nil {
			return err
		}
	}

	orders := []store.Order{
		{OrderID: "ORD0001", CustomerID: "CUST001", ProductName: "Wireless Headphones", Status: store.StatusDelivered, Amount: 45.00, OrderDate: now.AddDate(0, 0, -12)},
		{OrderID: "ORD0002", CustomerID: "CUST001", ProductName: "USB-C Charging Cable", Status: store.StatusShipped, Amount: 12.99, OrderDate: now.AddDate(0, 0, -4)},
		{OrderID: "ORD0003", CustomerID: "CUST002", ProductName: "Mechanical Keyboard", Status: store.StatusProcessing, Amount: 89.50, OrderDate: now.AddDate(0, 0, -2)},
		{OrderID: "ORD0004", CustomerID: "CUST003", ProductName: "4K Monitor", Status: store.StatusDelivered, Amount: 329.00, OrderDate: now.AddDate(0, 0, -20)},
		{OrderID: "ORD0005", CustomerID: "CUST002", ProductName: "Laptop Stand", Status: store.StatusPending, Amount: 24.75, OrderDate: now.AddDate(0, 0, -1)},
	}
	for _, o := range orders {
		if err := db.InsertOrder(o); err != nil {
			return err
		}
	}

	payments := []store.Payment{
		{OrderID: "ORD0001", ProviderPaymentID: "pi_demo_0001", Amount: 45.00, Status: "succeeded"},
		{OrderID: "ORD0002", ProviderPaymentID: "pi_demo_0002", Amount: 12.99, Status: "succeeded"},
		{OrderID: "ORD0003", ProviderPaymentID: "pi_demo_0003", Amount: 89.50, Status: "succeeded"},
		{OrderID: "ORD0004", ProviderPaymentID: "pi_demo_0004", Amount: 329.00, Status: "succeeded"},
		{OrderID: "ORD0005", ProviderPaymentID: "pi_demo_0005", Amount: 24.75, Status: "pending"},
	}
	for _, p := range payments {
		if err := db.InsertPayment(p); err != nil {
			return err
		}
	}

	tracking := []store.Tracking{
		{OrderID: "ORD0001", TrackingNumber: "1Z999AA10123456784", Carrier: "UPS", Status: "delivered", Location: "Front porch", EstimatedDelivery: now.AddDate(0, 0, -7).Format("2006-01-02")},
		{OrderID: "ORD0002", TrackingNumber: "9400110200881234567890", Carrier: "USPS", Status: "in_transit", Location: "Regional facility", EstimatedDelivery: now.AddDate(0, 0, 2).Format("2006-01-02")},
		{OrderID: "ORD0004", TrackingNumber: "771234567890", Carrier: "FedEx", Status: "delivered", Location: "Reception", EstimatedDelivery: now.AddDate(0, 0, -15).Format("2006-01-02")},
	}
	for _, tr := range tracking {
		if err := db.InsertTracking(tr); err != nil {
			return err
		}
	}

	return nil
}
