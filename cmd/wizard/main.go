// Command wizard runs the solicitação wizard in the terminal. It takes
// the output of the document-ingestion step as a JSON file and walks
// the user through review, order data and result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fiscaldesk/solicitacao/internal/backend"
	"github.com/fiscaldesk/solicitacao/internal/config"
	"github.com/fiscaldesk/solicitacao/internal/fiscal"
	"github.com/fiscaldesk/solicitacao/internal/poller"
	"github.com/fiscaldesk/solicitacao/internal/submission"
	"github.com/fiscaldesk/solicitacao/internal/tui"
	"github.com/fiscaldesk/solicitacao/internal/wizard"
	"github.com/fiscaldesk/solicitacao/internal/worker"
	"github.com/fiscaldesk/solicitacao/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	xmlPath := flag.String("xml", "", "path to the extracted fiscal document data (JSON)")
	flag.Parse()

	_ = gotenv.Load()

	if *xmlPath == "" {
		fmt.Fprintln(os.Stderr, "usage: wizard -xml <extracted-xml-data.json> [-config <file>]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stdout; log to a file so the UI stays clean.
	logPath := cfg.Logger.OutputPath
	if logPath == "" || logPath == "stdout" || logPath == "stderr" {
		logPath = "logs/wizard.log"
	}
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: logPath,
		Format:     "json",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	xmlData, err := loadXMLData(*xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load XML data: %v\n", err)
		os.Exit(1)
	}

	client := backend.NewHTTPClient(backend.Config{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout,
	}, logger)

	store := wizard.NewStore()
	store.SetXMLData(xmlData)
	ctrl := submission.NewController(store, client, logger)
	p := poller.New(store, client, logger)

	if cfg.Poller.Auto {
		// Background polling resolves the result step without the user
		// pressing "consultar".
		sp := worker.NewStatusPoller(p, store, logger, cfg.Poller.Interval)
		if err := sp.Start(context.Background()); err != nil {
			logger.Warn("Failed to start background status poller", zap.Error(err))
		} else {
			defer sp.Stop()
		}
	}

	program := tea.NewProgram(tui.New(store, ctrl, p), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Error("Wizard terminated with error", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadXMLData(path string) (*fiscal.XmlData, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data fiscal.XmlData
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("invalid XML data file: %w", err)
	}
	return &data, nil
}
