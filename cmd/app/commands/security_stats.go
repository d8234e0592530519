package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	securityDomain "github.com/keyfort/keyfort/internal/security/domain"
	securityUseCase "github.com/keyfort/keyfort/internal/security/usecase"
)

// securityStatsOutput is the JSON shape of the security-stats command.
type securityStatsOutput struct {
	StartDate       time.Time      `json:"start_date"`
	EndDate         time.Time      `json:"end_date"`
	CountsByType    map[string]int `json:"counts_by_type"`
	LockedAccounts  int            `json:"locked_accounts"`
	SuspiciousCount int            `json:"suspicious_count"`
}

// RunSecurityStats aggregates security event counts over the trailing number
// of days plus the number of currently locked accounts. Format can be "text"
// or "json".
func RunSecurityStats(
	ctx context.Context,
	monitorUseCase securityUseCase.MonitorUseCase,
	writer io.Writer,
	days int,
	format string,
) error {
	if days <= 0 {
		return fmt.Errorf("--days must be positive, got %d", days)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (valid options: text, json)", format)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	stats, err := monitorUseCase.Metrics(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to aggregate security stats: %w", err)
	}

	if format == "json" {
		return printSecurityStatsJSON(writer, start, end, stats)
	}
	return printSecurityStatsText(writer, start, end, stats)
}

func printSecurityStatsText(w io.Writer, start, end time.Time, stats *securityDomain.EventStats) error {
	fmt.Fprintf(w, "Security events from %s to %s\n",
		start.Format(time.RFC3339), end.Format(time.RFC3339))
	fmt.Fprintln(w)

	if len(stats.CountsByType) == 0 {
		fmt.Fprintln(w, "  No events recorded in this range")
	} else {
		for _, eventType := range sortedEventTypes(stats.CountsByType) {
			fmt.Fprintf(w, "  %-22s %d\n", eventType, stats.CountsByType[securityDomain.EventType(eventType)])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Locked accounts:       %d\n", stats.LockedAccounts)
	fmt.Fprintf(w, "  Suspicious activity:   %d\n", stats.SuspiciousCount)
	return nil
}

func printSecurityStatsJSON(w io.Writer, start, end time.Time, stats *securityDomain.EventStats) error {
	counts := make(map[string]int, len(stats.CountsByType))
	for eventType, count := range stats.CountsByType {
		counts[string(eventType)] = count
	}

	output := securityStatsOutput{
		StartDate:       start,
		EndDate:         end,
		CountsByType:    counts,
		LockedAccounts:  stats.LockedAccounts,
		SuspiciousCount: stats.SuspiciousCount,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("failed to encode security stats: %w", err)
	}
	return nil
}

// sortedEventTypes returns the event type names in lexical order so the text
// output is stable.
func sortedEventTypes(counts map[securityDomain.EventType]int) []string {
	names := make([]string, 0, len(counts))
	for eventType := range counts {
		names = append(names, string(eventType))
	}
	sort.Strings(names)
	return names
}
