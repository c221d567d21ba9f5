package insight

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/likhith1253/chemicalanalyzer/internal/dataset/entity"
)

// TopTypes bounds how many equipment types are named in the prompt.
const TopTypes = 5

// BuildPrompt describes a dataset's summary for the model. Averages are
// rounded to two decimals and omitted when absent.
func BuildPrompt(s entity.Summary) string {
	stats := []string{"Total Equipment Count: " + strconv.Itoa(s.TotalCount)}

	if s.AvgFlowrate != nil {
		stats = append(stats, fmt.Sprintf("Average Flowrate: %.2f L/min", *s.AvgFlowrate))
	}
	if s.AvgPressure != nil {
		stats = append(stats, fmt.Sprintf("Average Pressure: %.2f bar", *s.AvgPressure))
	}
	if s.AvgTemperature != nil {
		stats = append(stats, fmt.Sprintf("Average Temperature: %.2f °C", *s.AvgTemperature))
	}

	if top := topTypes(s.TypeDistribution, TopTypes); len(top) > 0 {
		stats = append(stats, "Top Equipment Types: "+strings.Join(top, ", "))
	}

	var b strings.Builder
	b.WriteString("Analyze these chemical equipment statistics as a senior industrial engineer:\n\n")
	b.WriteString(strings.Join(stats, "\n"))
	b.WriteString("\n\nPlease provide 3 key insights or maintenance recommendations.\n")
	b.WriteString("Focus on potential anomalies, efficiency, or safety concerns based on standard industrial values.\n")
	b.WriteString("Keep the response concise (bullet points, under 50 words per point).\n")

	return b.String()
}

func topTypes(dist map[string]int, n int) []string {
	keys := make([]string, 0, len(dist))
	for k := range dist {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if dist[keys[i]] != dist[keys[j]] {
			return dist[keys[i]] > dist[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%s: %d", k, dist[k]))
	}
	return out
}
