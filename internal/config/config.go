// Package config defines the data structures related to configuration and
// includes functions for loading the config and converting it into engine
// inputs.
package config

import (
	"fmt"
	"io"

	"github.com/spf13/viper"
)

// Configuration holds all configuration for progressive-tax.
type Configuration struct {
	Logging   LoggingConfig              `yaml:"logging,omitempty"`
	Output    OutputConfig               `yaml:"output,omitempty"`
	Brackets  map[string][]BracketConfig `yaml:"brackets,omitempty"`
	Scenarios []Scenario                 `yaml:"scenarios,omitempty"`
	History   History                    `yaml:"history,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
	Locale string `yaml:"locale,omitempty"` // number grouping for pretty output, e.g. en, fr
}

// BracketConfig is one bracket as written in YAML. An empty Max marks the
// unbounded top bracket. Amounts are kept as strings so they reach the
// decimal parser without passing through float64.
type BracketConfig struct {
	Min  string `yaml:"min"`
	Max  string `yaml:"max,omitempty"`
	Rate string `yaml:"rate"`
}

// Scenario is one income situation to evaluate. A zero Year selects the most
// recent supported year.
type Scenario struct {
	Name        string `yaml:"name"`
	Active      bool   `yaml:"active"`
	Year        int    `yaml:"year,omitempty"`
	GrossIncome string `yaml:"grossIncome"`
	Deductions  []Item `yaml:"deductions,omitempty"`
	Credits     []Item `yaml:"credits,omitempty"`
}

// Item is a named deduction or credit amount.
type Item struct {
	Name   string `yaml:"name"`
	Amount string `yaml:"amount"`
}

// History requests the same income evaluated under several years. An empty
// Years list means every supported year.
type History struct {
	GrossIncome string `yaml:"grossIncome,omitempty"`
	Deductions  []Item `yaml:"deductions,omitempty"`
	Credits     []Item `yaml:"credits,omitempty"`
	Years       []int  `yaml:"years,omitempty"`
}

// Enabled reports whether a history comparison was configured.
func (h History) Enabled() bool {
	return h.GrossIncome != ""
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}
