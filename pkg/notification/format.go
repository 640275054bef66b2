// Package notification renders snapshots into messages and delivers
// them to the Telegram sink.
package notification

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"marketpulse/pkg/core"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

// sourceOrder fixes the rendering order so messages are deterministic
// regardless of map iteration.
var sourceOrder = []string{
	core.SourceTicker,
	core.SourceCandles,
	core.SourceOpenInterest,
	core.SourceBias,
}

// sourceTitles maps source names to their display labels.
var sourceTitles = map[string]string{
	core.SourceTicker:       "ticker",
	core.SourceCandles:      "candles",
	core.SourceOpenInterest: "open interest",
	core.SourceBias:         "bias",
}

// orderedResults returns the snapshot results in display order.
func orderedResults(s core.Snapshot) []core.SourceResult {
	ordered := make([]core.SourceResult, 0, len(s.Results))
	for _, name := range sourceOrder {
		if result, ok := s.Results[name]; ok {
			ordered = append(ordered, result)
		}
	}
	// Unknown sources render last, in name order.
	known := lo.SliceToMap(sourceOrder, func(name string) (string, struct{}) { return name, struct{}{} })
	extras := lo.Filter(lo.Keys(s.Results), func(name string, _ int) bool {
		_, ok := known[name]
		return !ok
	})
	sort.Strings(extras)
	for _, name := range extras {
		ordered = append(ordered, s.Results[name])
	}
	return ordered
}

func title(source string) string {
	if t, ok := sourceTitles[source]; ok {
		return t
	}
	return source
}

// Format renders the cycle's snapshots into a single Markdown message.
// Failed sources are listed explicitly; the message is never empty,
// even when every source of every symbol failed.
func Format(at time.Time, snapshots []core.Snapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Snapshot (UTC %s)*\n", at.UTC().Format("15:04"))

	allFailed := len(snapshots) > 0 && lo.EveryBy(snapshots, func(s core.Snapshot) bool {
		return s.AllFailed()
	})
	if allFailed {
		sb.WriteString("\n🛑 All sources failed this cycle.\n")
	}

	for _, snapshot := range snapshots {
		fmt.Fprintf(&sb, "\n*%s*\n", snapshot.Symbol)

		for _, result := range orderedResults(snapshot) {
			if result.OK() {
				for _, line := range result.Report.Lines() {
					sb.WriteString(line)
					sb.WriteByte('\n')
				}
				continue
			}

			fmt.Fprintf(&sb, "⚠️ %s: %s\n", title(result.Source), result.Err.Error())
		}
	}

	return sb.String()
}

// WriteTable renders the snapshots as a console table, used by the
// one-shot snapshot command.
func WriteTable(w io.Writer, snapshots []core.Snapshot) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Symbol", "Source", "Status", "Detail", "Elapsed"})

	for _, snapshot := range snapshots {
		for _, result := range orderedResults(snapshot) {
			status, detail := "ok", ""
			if result.OK() {
				detail = strings.Join(result.Report.Lines(), " | ")
			} else {
				status = string(result.Err.Kind)
				detail = result.Err.Message
			}

			table.Append([]string{
				snapshot.Symbol,
				title(result.Source),
				status,
				strings.ReplaceAll(detail, "`", ""),
				result.Elapsed.Round(time.Millisecond).String(),
			})
		}
	}

	table.Render()
}
