package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/barsim/internal/backtest/engine/commission_fee"
	engine "github.com/rxtech-lab/barsim/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/barsim/internal/strategy"
	"gopkg.in/yaml.v3"
)

const (
	schemaName       = "backtest-engine-v1-config.json"
	sampleConfigName = "backtest-engine-v1-config.yaml"
	configDir        = "./config"
)

// sampleConfig is the subset of the backtest config written to the sample file.
type sampleConfig struct {
	InitialCapital float64               `yaml:"initial_capital"`
	SlippageFactor float64               `yaml:"slippage_factor"`
	Commission     float64               `yaml:"commission"`
	Broker         commission_fee.Broker `yaml:"broker"`
	Symbols        []string              `yaml:"symbols"`
	Strategy       sampleStrategy        `yaml:"strategy"`
}

type sampleStrategy struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params,omitempty"`
}

func newSampleConfig(config engine.BacktestEngineV1Config) sampleConfig {
	sample := sampleConfig{
		InitialCapital: config.InitialCapital,
		SlippageFactor: config.SlippageFactor,
		Commission:     config.Commission,
		Broker:         config.Broker,
		Symbols:        config.Symbols,
		Strategy: sampleStrategy{
			Name:   config.Strategy.Name,
			Params: config.Strategy.Params,
		},
	}

	if sample.InitialCapital == 0 {
		sample.InitialCapital = 10000
	}

	if sample.Symbols == nil {
		sample.Symbols = []string{}
	}

	if sample.Strategy.Name == "" {
		sample.Strategy.Name = strategy.NameBuyAndHold
	}

	return sample
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

// getSchemaReference returns the yaml-language-server header pointing at the schema.
func getSchemaReference(name string) string {
	return "# yaml-language-server: $schema=" + name + "\n"
}

func generateSchemaFile(config engine.BacktestEngineV1Config, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes the sample config unless a file already exists at path.
func generateSampleConfig(config engine.BacktestEngineV1Config, path string, schemaName string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(newSampleConfig(config))
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	log.Printf("Sample config successfully generated at %s", path)

	return nil
}

func main() {
	config := engine.EmptyConfig()

	schemaPath := filepath.Join(configDir, schemaName)
	sampleConfigPath := filepath.Join(configDir, sampleConfigName)

	if err := validatePaths(schemaPath, sampleConfigPath); err != nil {
		log.Fatal(err)
	}

	if err := validateSchemaName(schemaName); err != nil {
		log.Fatal(err)
	}

	if err := generateSchemaFile(config, schemaPath); err != nil {
		log.Fatal(err)
	}

	if err := generateSampleConfig(config, sampleConfigPath, schemaName); err != nil {
		log.Fatal(err)
	}

	log.Printf("Schema successfully generated at %s", schemaPath)
}
