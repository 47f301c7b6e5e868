package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"chat-agent/internal/chat"
	"chat-agent/internal/domain"
	"chat-agent/internal/identity"
	"chat-agent/internal/integrations/proxy"
	"chat-agent/internal/repository"
	"chat-agent/internal/store"
)

func main() {
	proxyURL := flag.String("proxy", "http://localhost:5001", "base URL of the generation proxy")
	dbPath := flag.String("db", defaultDBPath(), "path to the conversation database")
	userID := flag.String("user", os.Getenv("CHAT_USER_ID"), "user identity (defaults to guest)")
	flag.Parse()

	if err := run(context.Background(), *proxyURL, *dbPath, identity.Resolve(*userID)); err != nil {
		slog.Error("chat session failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, proxyURL, dbPath, userID string) error {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return err
	}
	repo, err := repository.New(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	s, err := store.New(repo)
	if err != nil {
		return err
	}
	if err := s.Initialize(ctx, userID); err != nil {
		return err
	}

	client, err := proxy.New(proxyURL)
	if err != nil {
		return err
	}
	orchestrator, err := chat.New(s, client)
	if err != nil {
		return err
	}

	fmt.Printf("chatting as %s (/new /list /select N /delete N /quit)\n", userID)
	printConversation(s)

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	fmt.Print("> ")
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "/quit" {
			return nil
		}
		if err := dispatch(ctx, s, orchestrator, line); err != nil {
			return err
		}
		fmt.Print("> ")
	}
	return scanner.Err()
}

func dispatch(ctx context.Context, s *store.Store, o *chat.Orchestrator, line string) error {
	fields := strings.Fields(line)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		switch fields[0] {
		case "/new":
			if err := s.CreateConversation(ctx); err != nil {
				return err
			}
			printConversation(s)
		case "/list":
			for i, c := range s.Conversations() {
				marker := " "
				if i == s.SelectedIndex() {
					marker = "*"
				}
				fmt.Printf("%s %d. %s (%d messages)\n", marker, i+1, c.Name, len(c.Messages))
			}
		case "/select":
			if i, ok := argIndex(fields); ok {
				s.Select(i)
				printConversation(s)
			}
		case "/delete":
			if i, ok := argIndex(fields); ok {
				if err := s.DeleteConversation(ctx, i); err != nil {
					return err
				}
				printConversation(s)
			}
		default:
			fmt.Printf("unknown command %s\n", fields[0])
		}
		return nil
	}

	turn, err := o.Submit(ctx, line)
	if err != nil {
		return err
	}
	if !turn.Skipped {
		fmt.Printf("%s\n", turn.Reply.Text)
	}
	return nil
}

// argIndex parses the 1-based index argument of /select and /delete.
func argIndex(fields []string) (int, bool) {
	if len(fields) < 2 {
		fmt.Println("expected a conversation number")
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		fmt.Printf("not a conversation number: %s\n", fields[1])
		return 0, false
	}
	return n - 1, true
}

func printConversation(s *store.Store) {
	c := s.Selected()
	fmt.Printf("-- %s --\n", c.Name)
	for _, m := range c.Messages {
		prefix := "you"
		if m.Sender == domain.SenderAssistant {
			prefix = "ai "
		}
		fmt.Printf("%s | %s\n", prefix, m.Text)
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "chat-agent.db"
	}
	return filepath.Join(home, ".chat-agent", "conversations.db")
}
