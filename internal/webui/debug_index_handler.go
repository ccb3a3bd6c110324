package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"railplanner.org/internal/appconf"
	"railplanner.org/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	w.Header().Set("Content-Type", "text/html")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps loaded state for inspection. Building the graph is
// never triggered from here.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production {
		http.NotFound(w, r)
		return
	}

	var data any
	var title string

	switch r.URL.Query().Get("dataType") {
	case "graph":
		title = "Routing Graph - Stats"
		data = webUI.graphStats(r)
	case "stations":
		title = "Routing Graph - Stations"
		data = webUI.stations(r)
	case "passes":
		title = "Pass Catalog"
		data = webUI.Planner.Catalog().All()
	case "config":
		title = "Configuration"
		data = map[string]any{
			"env":     webUI.Config.Env.String(),
			"data":    webUI.DataConfig,
			"routing": webUI.RoutingConfig,
		}
	case "db":
		title = "Pass DB - Table Counts"
		data = webUI.tableCounts(r)
	default:
		title = "Choose a data type"
		data = map[string]string{
			"error": "Please use one of the following: graph, stations, passes, config, db.",
		}
	}

	writeDebugData(w, title, data)
}

func (webUI *WebUI) graphStats(r *http.Request) any {
	if webUI.Graphs == nil || !webUI.Graphs.Ready() {
		return "graph not built yet"
	}
	g, err := webUI.Graphs.Get(r.Context())
	if err != nil {
		return err.Error()
	}
	return g.Stats()
}

func (webUI *WebUI) stations(r *http.Request) any {
	if webUI.Graphs == nil || !webUI.Graphs.Ready() {
		return "graph not built yet"
	}
	g, err := webUI.Graphs.Get(r.Context())
	if err != nil {
		return err.Error()
	}
	return g.Stations()
}

func (webUI *WebUI) tableCounts(r *http.Request) any {
	if webUI.PassDB == nil {
		return "pass DB not configured"
	}
	counts, err := webUI.PassDB.TableCounts(r.Context())
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to count pass DB tables", err)
		return err.Error()
	}
	return counts
}
