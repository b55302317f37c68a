// Command chatcli chats with an agency assistant from the terminal using the
// configured LLM provider and in-memory stores.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/app/bootstrap"
	appconfig "github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/config"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/conversation"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

func main() {
	name := flag.String("agency", "Demo Realty", "agency name")
	prompt := flag.String("prompt", "You are a sales assistant for a luxury real estate agency in Dubai. Be warm and concise, and ask for the visitor's name, contact details and budget.", "agency system prompt")
	minTurns := flag.Int("min-turns", 0, "override LEAD_MIN_TURNS")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	cfg.MemoryBackend = "memory"
	cfg.DatabaseURL = ""
	if *minTurns > 0 {
		cfg.LeadMinTurns = *minTurns
	}
	logger := logging.New("warn")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, *name, *prompt); err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, name, prompt string) error {
	stores := bootstrap.BuildMemoryStores()
	llm, err := bootstrap.BuildLLMClient(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}

	agencySvc := agency.NewService(stores.Agencies, nil, logger)
	a, err := agencySvc.Register(ctx, agency.RegisterRequest{Name: name, Prompt: prompt})
	if err != nil {
		return err
	}

	svc, err := bootstrap.BuildConversationService(cfg, bootstrap.ConversationDeps{
		Agencies: agencySvc,
		Leads:    stores.Leads,
		Memory:   bootstrap.BuildMemory(cfg, nil, logger),
		LLM:      llm,
	}, logger)
	if err != nil {
		return err
	}

	session := uuid.NewString()
	fmt.Printf("Chatting with %s (%s). Ctrl-D to quit.\n\n", a.Name, cfg.LLMProvider)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		res, err := svc.HandleTurn(ctx, conversation.TurnRequest{AgencyID: a.ID, SessionID: session, Message: text})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("error: %v\n", err)
			continue
		}
		fmt.Printf("%s> %s\n", a.AssistantName, res.Reply)
		if res.Fields.Any() {
			fmt.Printf("  fields: name=%q email=%q phone=%q budget=%q\n", res.Fields.Name, res.Fields.Email, res.Fields.Phone, res.Fields.Budget)
		}
		if res.Lead != nil {
			fmt.Printf("  lead %s (%s): %s\n", res.Lead.ID, res.Lead.Trigger, res.Lead.Message)
		}
	}
}
