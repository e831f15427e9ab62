package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Daily log digest for the ledger service: counts completed/failed external
// confirmations and the most common rejection reasons out of the day's files.

type logStats struct {
	TotalErrors          int
	RechargesCompleted   int
	RechargesFailed      int
	WithdrawsCompleted   int
	WithdrawsFailed      int
	TransfersCompleted   int
	TicketsSold          int
	TicketsRefunded      int
	TicketsConsumed      int
	InsufficientFunds    int
	DuplicateReferences  int
	SweepExpirations     int
	ErrorPatterns        map[string]int
}

func main() {
	today := time.Now().Format("2006-01-02")
	logDir := "./logs"

	stats := &logStats{ErrorPatterns: make(map[string]int)}

	analyzeErrorLog(filepath.Join(logDir, fmt.Sprintf("error-%s.log", today)), stats)
	analyzeInfoLog(filepath.Join(logDir, fmt.Sprintf("info-%s.log", today)), stats)

	printReport(stats)
}

func analyzeErrorLog(logFile string, stats *logStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		stats.TotalErrors++

		switch {
		case strings.Contains(line, "Insufficient wallet balance"),
			strings.Contains(line, "debit failed"):
			stats.InsufficientFunds++
		case strings.Contains(line, "Duplicate"):
			stats.DuplicateReferences++
		}

		if idx := strings.Index(line, "Failed to"); idx >= 0 {
			pattern := line[idx:]
			if len(pattern) > 60 {
				pattern = pattern[:60]
			}
			stats.ErrorPatterns[pattern]++
		}
	}
}

func analyzeInfoLog(logFile string, stats *logStats) {
	file, err := os.Open(logFile)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", logFile, err)
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.Contains(line, "Recharge") && strings.Contains(line, "completed"):
			stats.RechargesCompleted++
		case strings.Contains(line, "Recharge") && strings.Contains(line, "failed"):
			stats.RechargesFailed++
		case strings.Contains(line, "Withdraw") && strings.Contains(line, "COMPLETED"):
			stats.WithdrawsCompleted++
		case strings.Contains(line, "Withdraw") && strings.Contains(line, "FAILED"):
			stats.WithdrawsFailed++
		case strings.Contains(line, "Transfer of"):
			stats.TransfersCompleted++
		case strings.Contains(line, "sold for event"):
			stats.TicketsSold++
		case strings.Contains(line, "refunded,"):
			stats.TicketsRefunded++
		case strings.Contains(line, "consumed for event"):
			stats.TicketsConsumed++
		case strings.Contains(line, "Sweep:"):
			stats.SweepExpirations++
		}
	}
}

func printReport(stats *logStats) {
	fmt.Println("=== Becoin ledger daily digest ===")
	fmt.Printf("Transfers completed:   %d\n", stats.TransfersCompleted)
	fmt.Printf("Recharges completed:   %d (failed: %d)\n", stats.RechargesCompleted, stats.RechargesFailed)
	fmt.Printf("Withdraws completed:   %d (failed: %d)\n", stats.WithdrawsCompleted, stats.WithdrawsFailed)
	fmt.Printf("Tickets sold:          %d (refunded: %d, consumed: %d)\n", stats.TicketsSold, stats.TicketsRefunded, stats.TicketsConsumed)
	fmt.Printf("Sweep expirations:     %d\n", stats.SweepExpirations)
	fmt.Println()
	fmt.Printf("Total errors:          %d\n", stats.TotalErrors)
	fmt.Printf("Insufficient funds:    %d\n", stats.InsufficientFunds)
	fmt.Printf("Duplicate references:  %d\n", stats.DuplicateReferences)

	if len(stats.ErrorPatterns) > 0 {
		fmt.Println("\nTop error patterns:")
		type kv struct {
			Pattern string
			Count   int
		}
		var sorted []kv
		for p, n := range stats.ErrorPatterns {
			sorted = append(sorted, kv{p, n})
		}
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
		for i, e := range sorted {
			if i >= 10 {
				break
			}
			fmt.Printf("  %4d  %s\n", e.Count, e.Pattern)
		}
	}
}
