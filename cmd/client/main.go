package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"cyberarena/internal/client"
)

type config struct {
	ServerURL string `env:"CYBERARENA_SERVER_URL" envDefault:"ws://localhost:8080/ws/game"`
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("load .env: %v", err)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}

	s := client.NewSession()
	defer s.Close()

	s.OnUpdate(printState)
	s.OnStatus(func(connected bool, connErr string) {
		if connected {
			fmt.Println("-- connected to arena --")
			return
		}
		if connErr != "" {
			fmt.Printf("-- disconnected: %s --\n", connErr)
		} else {
			fmt.Println("-- disconnected --")
		}
	})

	s.Connect(cfg.ServerURL)
	if !s.IsConnected() {
		fmt.Println("-- no server, missions will run offline --")
	}

	fmt.Println("commands: start <mission> | approve | reject | summary <team> | code <team> | explain | reset | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		arg := ""
		if len(fields) > 1 {
			arg = strings.ToUpper(fields[1])
		}

		switch strings.ToLower(fields[0]) {
		case "start":
			if arg == "" {
				arg = "NETWORK_FLOOD"
			}
			s.Start(arg)
		case "approve":
			s.SubmitDecision(true)
		case "reject":
			s.SubmitDecision(false)
		case "summary":
			if arg == "" {
				arg = "RED"
			}
			if err := s.RequestSummary(arg); err != nil {
				fmt.Printf("summary: %v\n", err)
			}
		case "code":
			if arg == "" {
				arg = "RED"
			}
			if err := s.RequestCode(arg); err != nil {
				fmt.Printf("code: %v\n", err)
			}
		case "explain":
			if err := s.RequestExplanation(); err != nil {
				fmt.Printf("explain: %v\n", err)
			}
		case "reset":
			s.Reset()
		case "quit", "exit":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func printState(st client.GameState) {
	fmt.Printf("== health %d", st.Health)
	if st.IsHit {
		fmt.Print("  [HIT]")
	}
	if st.MitigationScore > 0 {
		fmt.Printf("  mitigation %d (%s)", st.MitigationScore, st.DefenseDesc)
	}
	fmt.Println(" ==")

	agents := make([]string, 0, len(st.Messages))
	for agent := range st.Messages {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	for _, agent := range agents {
		fmt.Printf("  %-16s %-8s %s\n", agent, st.Statuses[agent], st.Messages[agent])
	}

	if st.Proposal != nil {
		fmt.Printf("  PROPOSAL [%s] %s: %s  (approve/reject)\n",
			st.Proposal.Team, st.Proposal.Action, st.Proposal.Description)
	}
	if st.CodeData != nil {
		fmt.Printf("  CODE [%s] %s\n%s\n", st.CodeData.Team, st.CodeData.Title, st.CodeData.Code)
	}
	if st.EducationalContent != "" {
		fmt.Printf("  BRIEF: %s\n", st.EducationalContent)
	}
}
